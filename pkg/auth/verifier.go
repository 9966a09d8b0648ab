package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/config"
	"google.golang.org/api/option"
)

// Claims are the fields extracted from a verified identity token.
type Claims struct {
	Subject    string `json:"subject"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// TokenVerifier verifies an opaque bearer token against the identity
// provider and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(ctx context.Context, cfg *config.FirebaseConfig) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}

	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		// Collapse verification failures into a single error so the
		// response never leaks why the token was rejected.
		return nil, apperrors.ErrForbidden
	}

	return &Claims{
		Subject:    tok.UID,
		Email:      stringClaim(tok, "email"),
		GivenName:  stringClaim(tok, "given_name"),
		FamilyName: stringClaim(tok, "family_name"),
	}, nil
}

func stringClaim(tok *fbauth.Token, key string) string {
	if v, ok := tok.Claims[key].(string); ok {
		return v
	}
	return ""
}
