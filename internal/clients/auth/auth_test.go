package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-waste-client/internal/clients/rest"
	apierrors "github.com/pribylovaa/go-waste-client/internal/errors"
	"github.com/pribylovaa/go-waste-client/internal/models"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(rest.New(srv.Client(), srv.URL))
}

func TestLogin_DecodesPair_NormalizesTokenType(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, PathLogin, r.URL.Path)

		var in models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, models.LoginRequest{Email: "a@b.com", Password: "secret123"}, in)

		_, _ = w.Write([]byte(`{"accessToken":"T1","accessTokenExpiresIn":900,"refreshToken":"R1","refreshTokenExpiresIn":86400}`))
	})

	pair, err := c.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, models.CredentialPair{
		TokenType:        "Bearer",
		AccessToken:      "T1",
		AccessExpiresIn:  900,
		RefreshToken:     "R1",
		RefreshExpiresIn: 86400,
	}, pair)
}

func TestRegister_SendsDisplayName(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathRegister, r.URL.Path)

		var raw map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		require.Equal(t, "Ann", raw["displayName"])

		_, _ = w.Write([]byte(`{"tokenType":"Bearer","accessToken":"T1","refreshToken":"R1"}`))
	})

	pair, err := c.Register(context.Background(), models.RegisterRequest{Email: "a@b.com", Password: "secret123", DisplayName: "Ann"})
	require.NoError(t, err)
	require.True(t, pair.Usable())
}

func TestRefresh_SendsRefreshToken(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathRefresh, r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))

		var in models.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "R1", in.RefreshToken)

		_, _ = w.Write([]byte(`{"tokenType":"Bearer","accessToken":"T2","refreshToken":"R2"}`))
	})

	pair, err := c.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	require.Equal(t, "T2", pair.AccessToken)
	require.Equal(t, "R2", pair.RefreshToken)
}

func TestRefresh_Unauthorized(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.New(http.StatusUnauthorized))
	})

	_, err := c.Refresh(context.Background(), "R-revoked")
	require.Error(t, err)
	require.True(t, apierrors.IsUnauthorized(err))
	require.Contains(t, err.Error(), "auth.Client.Refresh")
}

func TestMe_DecodesIdentity(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, PathMe, r.URL.Path)
		_, _ = w.Write([]byte(`{"id":1,"email":"a@b.com","displayName":"Ann","roles":["USER","DRIVER"]}`))
	})

	id, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), id.ID)
	require.Equal(t, "a@b.com", id.Email)
	require.True(t, id.HasRole(models.RoleDriver))
	require.False(t, id.HasRole(models.RoleSystemAdmin))
}
