package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

var (
	// ErrNotConfigured is returned when no credentials path is set.
	ErrNotConfigured = errors.New("firebase credentials path not provided")
	ErrInvalidToken  = errors.New("invalid firebase ID token")
)

// Config selects the service account and project used to check ID tokens.
type Config struct {
	CredentialsPath string
	ProjectID       string
	CheckRevoked    bool
}

// tokenClient is the part of *auth.Client the verifier needs.
type tokenClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
}

// Verifier checks ID tokens presented at firebase-login and as bearer
// tokens. It satisfies middleware.IDTokenVerifier.
type Verifier struct {
	client       tokenClient
	checkRevoked bool
	log          zerolog.Logger
}

// NewVerifier loads the service account at cfg.CredentialsPath and builds an
// auth client for it.
func NewVerifier(ctx context.Context, cfg Config, log zerolog.Logger) (*Verifier, error) {
	if cfg.CredentialsPath == "" {
		return nil, ErrNotConfigured
	}
	if _, err := os.Stat(cfg.CredentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file not readable at %s: %w", cfg.CredentialsPath, err)
	}

	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, appConfig, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth client: %w", err)
	}

	v := newVerifier(client, cfg.CheckRevoked, log)
	v.log.Info().Str("project", cfg.ProjectID).Bool("check_revoked", cfg.CheckRevoked).Msg("firebase token verification enabled")
	return v, nil
}

func newVerifier(client tokenClient, checkRevoked bool, log zerolog.Logger) *Verifier {
	return &Verifier{
		client:       client,
		checkRevoked: checkRevoked,
		log:          log.With().Str("component", "firebase").Logger(),
	}
}

// VerifyIDToken returns the decoded token. Every rejection wraps
// ErrInvalidToken.
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	verify := v.client.VerifyIDToken
	if v.checkRevoked {
		verify = v.client.VerifyIDTokenAndCheckRevoked
	}
	token, err := verify(ctx, idToken)
	if err != nil {
		v.log.Debug().Err(err).Msg("id token rejected")
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if token.UID == "" {
		return nil, fmt.Errorf("%w: token has no uid", ErrInvalidToken)
	}
	return token, nil
}
