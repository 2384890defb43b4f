package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/middleware"
	"github.com/anonto42/wisora/internal/models"
)

type tokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type fakeVerifier map[string]*auth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("bad token")
}

func TestSignupAndSignIn(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodPost, "/api/v1/auth/signup", "", models.SignupRequest{Username: "dana", Email: "Dana@Example.com", Password: "hunter22!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var signup tokenResponse
	data(t, rec, &signup)
	assert.Equal(t, "dana@example.com", signup.User.Email)

	claims, err := middleware.ParseToken(testSecret, signup.Token)
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, claims.UserID)

	rec = h.do(http.MethodPost, "/api/v1/auth/signup", "", models.SignupRequest{Username: "dana2", Email: "dana@example.com", Password: "hunter22!"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/auth/signin", "", models.SignInRequest{Email: "dana@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/auth/signin", "", models.SignInRequest{Email: "dana@example.com", Password: "hunter22!"})
	require.Equal(t, http.StatusOK, rec.Code)
	var signin tokenResponse
	data(t, rec, &signin)
	assert.Equal(t, signup.User.ID, signin.User.ID)

	rec = h.do(http.MethodPost, "/api/v1/auth/signup", "", models.SignupRequest{Username: "x", Email: "not-an-email", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFirebaseLogin(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h := newHarness(t, nil)
		rec := h.do(http.MethodPost, "/api/v1/auth/firebase-login", "", models.FirebaseLoginRequest{IDToken: "tok"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	verifier := fakeVerifier{
		"new":  {UID: "fb-1", Claims: map[string]interface{}{"email": "erin@example.com", "name": "Erin K"}},
		"link": {UID: "fb-2", Claims: map[string]interface{}{"email": "frank@example.com"}},
	}

	t.Run("creates an account on first login", func(t *testing.T) {
		h := newHarness(t, verifier)
		rec := h.do(http.MethodPost, "/api/v1/auth/firebase-login", "", models.FirebaseLoginRequest{IDToken: "new"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got tokenResponse
		data(t, rec, &got)
		assert.Equal(t, "erin@example.com", got.User.Email)
		assert.Regexp(t, `^erink[0-9a-f]{8}$`, got.User.Username)

		rec = h.do(http.MethodPost, "/api/v1/auth/firebase-login", "", models.FirebaseLoginRequest{IDToken: "new"})
		var again tokenResponse
		data(t, rec, &again)
		assert.Equal(t, got.User.ID, again.User.ID)
	})

	t.Run("links an existing email account", func(t *testing.T) {
		h := newHarness(t, verifier)
		h.addUser("frank-id", "frank")
		rec := h.do(http.MethodPost, "/api/v1/auth/firebase-login", "", models.FirebaseLoginRequest{IDToken: "link"})
		require.Equal(t, http.StatusOK, rec.Code)
		var got tokenResponse
		data(t, rec, &got)
		assert.Equal(t, "frank-id", got.User.ID)

		u, err := h.store.Users().GetUserByFirebaseUID(context.Background(), "fb-2")
		require.NoError(t, err)
		assert.Equal(t, "frank-id", u.ID)
	})

	t.Run("rejects bad tokens", func(t *testing.T) {
		h := newHarness(t, verifier)
		rec := h.do(http.MethodPost, "/api/v1/auth/firebase-login", "", models.FirebaseLoginRequest{IDToken: "forged"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestProfile(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")

	rec := h.do(http.MethodPut, "/api/v1/users/me", "alice", models.UpdateProfileRequest{Bio: "<b>gopher</b>"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/v1/users/me", "alice", nil)
	var me models.User
	data(t, rec, &me)
	assert.Equal(t, "gopher", me.Bio)

	rec = h.do(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
