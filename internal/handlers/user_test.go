package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/models"
)

func usernames(cards []models.UserCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Username)
	}
	return out
}

func TestSuggestedUsers(t *testing.T) {
	h := newHarness(t, nil)
	for _, name := range []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi"} {
		h.addUser(name, name)
	}
	h.do(http.MethodPost, "/api/v1/users/follow/carol", "bob", nil)
	h.do(http.MethodPost, "/api/v1/users/follow/carol", "dave", nil)
	h.do(http.MethodPost, "/api/v1/users/follow/dave", "bob", nil)
	rec := h.do(http.MethodPost, "/api/v1/users/follow/bob", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/v1/users/suggested", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Users []models.UserCard `json:"users"`
	}
	data(t, rec, &out)
	assert.Equal(t, []string{"carol", "dave", "erin", "frank", "grace"}, usernames(out.Users))
	assert.EqualValues(t, 2, out.Users[0].FollowersCount)
	for _, u := range out.Users {
		assert.False(t, u.IsFollowing)
	}
}

func TestCommunitySearch(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("gopher", "gopher")
	h.addUser("gophette", "gophette")
	h.addUser("rustacean", "rustacean")
	h.do(http.MethodPost, "/api/v1/users/follow/gophette", "alice", nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty search lists everyone but the caller", "", []string{"gophette", "gopher", "rustacean"}},
		{"case insensitive substring", "?search=GOPH", []string{"gophette", "gopher"}},
		{"no match", "?search=zig", []string{}},
		{"limit", "?limit=1", []string{"gophette"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodGet, "/api/v1/users/community"+tt.query, "alice", nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var out struct {
				Users []models.UserCard `json:"users"`
			}
			data(t, rec, &out)
			assert.Equal(t, tt.want, usernames(out.Users))
			for _, u := range out.Users {
				assert.Equal(t, u.Username == "gophette", u.IsFollowing, u.Username)
			}
		})
	}
}
