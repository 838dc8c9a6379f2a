package endpoints

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/piivault/pkg/policy"
	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

// RegisterPoliciesEndpoints registers access policy management endpoints
func RegisterPoliciesEndpoints(srv *server.Server) {
	router := srv.Router.PathPrefix("/policies").Subrouter()
	router.Use(srv.Sessions.Middleware)

	router.HandleFunc("", handleCreatePolicy(srv.Vault)).Methods("POST")
	router.HandleFunc("", handleListPolicies(srv.Vault)).Methods("GET")
	router.HandleFunc("/load", handleLoadBundle(srv.Vault)).Methods("POST")
	router.HandleFunc("/{policy}", handleGetPolicy(srv.Vault)).Methods("GET")
	router.HandleFunc("/{policy}", handleDeletePolicy(srv.Vault)).Methods("DELETE")
}

func handleCreatePolicy(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rule policy.Policy
		if !decodeJSONBody(w, r, &rule) {
			return
		}

		created, err := v.CreatePolicy(r.Context(), &rule)
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, map[string]string{"id": created.ID})
	}
}

// handleLoadBundle applies a YAML bundle of policies and principals.
func handleLoadBundle(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "unreadable request body")
			return
		}

		bundle, err := policy.ParseBundle(source)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := v.ApplyBundle(r.Context(), bundle)
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, result)
	}
}

func handleListPolicies(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := v.ListPolicies(r.Context())
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string][]string{"policies": ids})
	}
}

func handleGetPolicy(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rule, err := v.GetPolicy(r.Context(), mux.Vars(r)["policy"])
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, rule)
	}
}

func handleDeletePolicy(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := v.DeletePolicy(r.Context(), mux.Vars(r)["policy"]); err != nil {
			respondWithVaultError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
