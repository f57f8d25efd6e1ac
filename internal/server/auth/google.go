package auth

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/accountability/internal/common"
	"google.golang.org/api/idtoken"
)

// IdentityVerifier turns an external identity token into a verified email.
type IdentityVerifier interface {
	VerifyEmail(ctx context.Context, token string) (string, error)
}

// validateIDToken is a seam for testing idtoken.Validate.
var validateIDToken = idtoken.Validate

// GoogleVerifier checks Google ID tokens issued for one OAuth client.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (v *GoogleVerifier) VerifyEmail(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: empty identity token", common.ErrValidation)
	}

	payload, err := validateIDToken(ctx, token, v.clientID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", fmt.Errorf("%w: identity token has no email", common.ErrUnauthorized)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return "", fmt.Errorf("%w: email not verified", common.ErrUnauthorized)
	}

	return email, nil
}
