package endpoints

import (
	"net/http"
	"time"

	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/server/middleware"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

type authenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthenticateResponse carries a freshly issued session token.
type AuthenticateResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterAuthenticateEndpoint registers the session token endpoint. It is
// the only endpoint that accepts credentials instead of a session token.
func RegisterAuthenticateEndpoint(srv *server.Server) {
	srv.Router.HandleFunc("/auth/token", handleAuthenticate(srv.Vault, srv.Sessions)).Methods("POST")
}

func handleAuthenticate(v *vault.Vault, sessions *middleware.SessionAuthenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body authenticateRequest
		if username, password, ok := r.BasicAuth(); ok {
			body = authenticateRequest{Username: username, Password: password}
		} else if !decodeJSONBody(w, r, &body) {
			return
		}

		principal, err := v.Login(r.Context(), body.Username, body.Password)
		if err != nil {
			respondWithVaultError(w, err)
			return
		}

		token, expiresAt, err := sessions.Issue(principal.ID, principal.Username)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal error")
			return
		}

		respondWithJSON(w, http.StatusOK, AuthenticateResponse{Token: token, ExpiresAt: expiresAt})
	}
}
