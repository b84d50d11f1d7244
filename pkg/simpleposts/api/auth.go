package api

import (
	"context"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/tendant/simple-posts/pkg/simpleposts"
)

// PrincipalFromContext builds the acting principal from the verified JWT in
// the request context. It returns a zero Principal when no valid token is
// present; the service maps that to its unauthorized error on mutating calls.
func PrincipalFromContext(ctx context.Context) simpleposts.Principal {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return simpleposts.Principal{}
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return simpleposts.Principal{}
	}

	name, _ := claims["name"].(string)
	return simpleposts.Principal{ID: id, DisplayName: name}
}
