package endpoints

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/piivault/pkg/seal"
	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/server/middleware"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

// newTestServer wires a full API server over in-memory stores, bootstraps
// the admin principal and registers every endpoint.
func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	f := newFakeStore()
	indexer, err := seal.NewIndexer(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)

	v := vault.New(f, f, f, f, f, f, indexer)
	require.NoError(t, v.Bootstrap("admin", "test-admin-pass"))

	sessions := middleware.NewSessionAuthenticator([]byte("test-signing-key-of-32-bytes!!!!"), 10*time.Minute)
	srv := server.NewServer(v, sessions, f, "127.0.0.1:0")
	RegisterAll(srv)
	return srv
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, srv *server.Server, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, reader)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	srv.Router.ServeHTTP(recorder, request)
	return recorder.Result()
}

func decodeBody(t *testing.T, response *http.Response, into interface{}) {
	t.Helper()
	defer func() { _ = response.Body.Close() }()
	require.NoError(t, json.NewDecoder(response.Body).Decode(into))
}

// loginAs obtains a session token through the authenticate endpoint.
func loginAs(t *testing.T, srv *server.Server, username, password string) string {
	t.Helper()

	response := doJSON(t, srv, "POST", "/auth/token", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, response.StatusCode)

	var body AuthenticateResponse
	decodeBody(t, response, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func adminToken(t *testing.T, srv *server.Server) string {
	t.Helper()
	return loginAs(t, srv, "admin", "test-admin-pass")
}

// createPeopleCollection creates the collection most tests run against.
func createPeopleCollection(t *testing.T, srv *server.Server, token string) {
	t.Helper()

	response := doJSON(t, srv, "POST", "/collections", token, map[string]interface{}{
		"name": "people",
		"schema": map[string]interface{}{
			"full_name": map[string]interface{}{"type": "name"},
			"email":     map[string]interface{}{"type": "email", "indexed": true},
			"notes":     map[string]interface{}{"type": "string"},
		},
	})
	require.Equal(t, http.StatusCreated, response.StatusCode)
}

func createRecord(t *testing.T, srv *server.Server, token string, payload map[string]string) string {
	t.Helper()

	response := doJSON(t, srv, "POST", "/collections/people/records", token, payload)
	require.Equal(t, http.StatusCreated, response.StatusCode)

	var body map[string]string
	decodeBody(t, response, &body)
	require.NotEmpty(t, body["id"])
	return body["id"]
}
