package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonebook/internal/errs"
	"phonebook/internal/model"
)

func TestClient_Signup(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/signup", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ann", body["name"])
		assert.Equal(t, "ann@example.com", body["email"])
		assert.Equal(t, "secret1", body["password"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.AuthPayload{
			User:  model.Identity{Name: "Ann", Email: "ann@example.com"},
			Token: "T1",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	payload, err := c.Signup(context.Background(), "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "T1", payload.Token)
	assert.Equal(t, "Ann", payload.User.Name)
}

func TestClient_BearerHeader(t *testing.T) {
	t.Parallel()
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.Identity{Name: "Ann", Email: "ann@example.com"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("T1")
	_, err := c.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer T1", got)

	c.ClearToken()
	_, err = c.Current(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_ServerErrorMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusConflict, `{"message":"Email in use"}`, "Email in use"},
		{"error field", http.StatusBadRequest, `{"error":"boom"}`, "boom"},
		{"validation map", http.StatusBadRequest, `{"errors":{"name":"name is required"}}`, "name is required"},
		{"malformed body", http.StatusBadGateway, `<html>oops</html>`, ""},
		{"empty body", http.StatusUnauthorized, ``, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).ListContacts(context.Background())
			var se *errs.ServerError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.status, se.Status)
			assert.Equal(t, tc.wantMsg, se.Message)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listens anymore

	_, err := New(srv.URL).ListContacts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrTransport), "got: %v", err)
}

func TestClient_ListContacts(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/contacts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","name":"Ann","number":"123"},{"id":"2","name":"Bob","number":"456"}]`))
	}))
	defer srv.Close()

	items, err := New(srv.URL).ListContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.Contact{ID: "1", Name: "Ann", Number: "123"}, items[0])
}

func TestClient_DeleteContact(t *testing.T) {
	t.Parallel()
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).DeleteContact(context.Background(), "abc-123"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/contacts/abc-123", gotPath)
}

func TestClient_LogOutSendsNoBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/logout", r.URL.Path)
		require.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("T1")
	require.NoError(t, c.LogOut(context.Background()))
}
