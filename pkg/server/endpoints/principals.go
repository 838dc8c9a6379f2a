package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

type createPrincipalRequest struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Description string   `json:"description"`
	PolicyIDs   []string `json:"policy_ids"`
}

// PrincipalResponse is the rendered form of a principal. Password hashes
// never leave the server.
type PrincipalResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Description string   `json:"description"`
	PolicyIDs   []string `json:"policy_ids"`
}

// RegisterPrincipalsEndpoints registers principal management endpoints
func RegisterPrincipalsEndpoints(srv *server.Server) {
	router := srv.Router.PathPrefix("/principals").Subrouter()
	router.Use(srv.Sessions.Middleware)

	router.HandleFunc("", handleCreatePrincipal(srv.Vault)).Methods("POST")
	router.HandleFunc("/{username}", handleGetPrincipal(srv.Vault)).Methods("GET")
	router.HandleFunc("/{username}", handleDeletePrincipal(srv.Vault)).Methods("DELETE")
}

func principalResponse(principal *model.Principal) PrincipalResponse {
	policyIDs := make([]string, 0, len(principal.Policies))
	for _, attached := range principal.Policies {
		policyIDs = append(policyIDs, attached.ID)
	}
	return PrincipalResponse{
		ID:          principal.ID,
		Username:    principal.Username,
		Description: principal.Description,
		PolicyIDs:   policyIDs,
	}
}

func handleCreatePrincipal(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createPrincipalRequest
		if !decodeJSONBody(w, r, &body) {
			return
		}

		principal, err := v.CreatePrincipal(r.Context(), body.Username, body.Password, body.Description, body.PolicyIDs)
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, principalResponse(principal))
	}
}

func handleGetPrincipal(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := v.GetPrincipal(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, principalResponse(principal))
	}
}

func handleDeletePrincipal(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := v.DeletePrincipal(r.Context(), mux.Vars(r)["username"]); err != nil {
			respondWithVaultError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
