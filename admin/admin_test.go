package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shdpixel/storefront-client/admin"
	"github.com/shdpixel/storefront-client/store"
	"github.com/shdpixel/storefront-client/store/storefakes"
	"github.com/rs/zerolog"
)

type testFixture struct {
	store   *storefakes.FakeStore
	service *admin.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["password"] != "admin-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		w.Write([]byte(`{"access_token":"A1","token_type":"bearer"}`))
	})
	mux.HandleFunc("GET /auth/admin/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":1,"username":"root","email":"root@example.com","role":"admin","is_active":true}`))
	})
	mux.HandleFunc("GET /admin/categories/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"id":1,"name":"Peripherals"}]`))
	})
	mux.HandleFunc("PUT /admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		// Partial update: only the provided fields appear in the payload.
		if _, ok := payload["email"]; ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"id":7,"username":"john.doe","email":"john.doe@example.com","is_active":false,"is_verified":true}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	fakeStore := storefakes.NewFakeStore()
	client, err := admin.NewClient(server.URL, fakeStore, zerolog.Nop())
	require.NoError(t, err)

	service, err := admin.NewService(client)
	require.NoError(t, err)

	return &testFixture{store: fakeStore, service: service}
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success caches the profile", func(t *testing.T) {
		f := setupTestFixture(t)

		profile, err := f.service.Login(ctx, "root", "admin-secret")
		require.NoError(t, err)
		require.Equal(t, "root", profile.Username)

		cached, ok := f.service.Profile()
		require.True(t, ok)
		require.Equal(t, "root", cached.Username)

		// The admin token lives in its own namespace.
		_, ok, err = f.store.Get(store.AdminAccessTokenKey)
		require.NoError(t, err)
		require.True(t, ok)
		_, ok, err = f.store.Get(store.AccessTokenKey)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Login(ctx, "root", "wrong")
		require.Error(t, err)
		_, ok := f.service.Profile()
		require.False(t, ok)
	})
}

func TestAdmin401EndsOnlyAdminSession(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	// A storefront token in the shared store must survive admin expiry.
	require.NoError(t, f.store.Set(store.AccessTokenKey, `{"access_token":"T1","token_type":"Bearer"}`))

	_, err := f.service.Login(ctx, "root", "admin-secret")
	require.NoError(t, err)

	// Expire the admin session server-side: next call 401s, no refresh exists.
	require.NoError(t, f.store.Set(store.AdminAccessTokenKey, `{"access_token":"stale","token_type":"Bearer"}`))

	_, err = f.service.Categories(ctx)
	require.Error(t, err)

	_, ok, err := f.store.Get(store.AdminAccessTokenKey)
	require.NoError(t, err)
	require.False(t, ok, "admin token cleared on 401")
	_, ok, err = f.store.Get(store.AccessTokenKey)
	require.NoError(t, err)
	require.True(t, ok, "storefront token untouched")

	_, ok = f.service.Profile()
	require.False(t, ok, "cached profile dropped with the session")
}

func TestAdminCatalogAndUsers(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	_, err := f.service.Login(ctx, "root", "admin-secret")
	require.NoError(t, err)

	t.Run("list categories", func(t *testing.T) {
		categories, err := f.service.Categories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 1)
		require.Equal(t, "Peripherals", categories[0].Name)
	})

	t.Run("deactivating a user omits unset fields", func(t *testing.T) {
		user, err := f.service.SetUserActive(ctx, 7, false)
		require.NoError(t, err)
		require.False(t, user.IsActive)
	})

	t.Run("logout is local", func(t *testing.T) {
		f.service.Logout()
		_, ok := f.service.Profile()
		require.False(t, ok)
	})
}
