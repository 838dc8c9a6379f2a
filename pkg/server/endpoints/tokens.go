package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

// RegisterTokensEndpoints registers detokenization and revocation endpoints.
// Tokens are issued under their record, see RegisterRecordsEndpoints.
func RegisterTokensEndpoints(srv *server.Server) {
	router := srv.Router.PathPrefix("/tokens").Subrouter()
	router.Use(srv.Sessions.Middleware)

	router.HandleFunc("/{token}", handleDetokenize(srv.Vault)).Methods("GET")
	router.HandleFunc("/{token}", handleDeleteToken(srv.Vault)).Methods("DELETE")
}

func handleDetokenize(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := v.Detokenize(r.Context(), mux.Vars(r)["token"])
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"value": value})
	}
}

func handleDeleteToken(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := v.DeleteToken(r.Context(), mux.Vars(r)["token"]); err != nil {
			respondWithVaultError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
