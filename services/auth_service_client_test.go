package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/validate", r.URL.Path)
		require.Equal(t, "Bearer service-secret", r.Header.Get("Authorization"))

		var req struct {
			AccessToken string `json:"access_token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.AccessToken != "good-token" {
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_id":"a3f0c1d2-0000-0000-0000-000000000001","role":"user"}`))
	}))
	defer srv.Close()

	client := NewAuthServiceClient(srv.URL, "service-secret")

	res, err := client.ValidateToken("good-token")
	require.NoError(t, err)
	assert.Equal(t, "a3f0c1d2-0000-0000-0000-000000000001", res.UserID)
	assert.Equal(t, "user", res.Role)

	_, err = client.ValidateToken("expired-token")
	assert.Error(t, err)
}
