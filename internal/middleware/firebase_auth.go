package middleware

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/wisora/internal/models"
)

// IDTokenVerifier is satisfied by *auth.Client.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type FirebaseUserLookup interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseAuthenticator accepts Firebase ID tokens for users that have
// already signed in through firebase-login.
func FirebaseAuthenticator(verifier IDTokenVerifier, users FirebaseUserLookup) TokenAuthenticator {
	return func(ctx context.Context, idToken string) (string, error) {
		token, err := verifier.VerifyIDToken(ctx, idToken)
		if err != nil {
			return "", fmt.Errorf("invalid or expired ID token: %w", err)
		}
		user, err := users.GetUserByFirebaseUID(ctx, token.UID)
		if err != nil {
			return "", fmt.Errorf("no user for firebase uid %s: %w", token.UID, err)
		}
		return user.ID, nil
	}
}
