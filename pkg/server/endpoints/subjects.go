package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

type createSubjectRequest struct {
	EID string `json:"eid"`
}

// RegisterSubjectsEndpoints registers subject registration and erasure
// endpoints. Deleting a subject cascades through its records.
func RegisterSubjectsEndpoints(srv *server.Server) {
	router := srv.Router.PathPrefix("/subjects").Subrouter()
	router.Use(srv.Sessions.Middleware)

	router.HandleFunc("", handleCreateSubject(srv.Vault)).Methods("POST")
	router.HandleFunc("", handleListSubjects(srv.Vault)).Methods("GET")
	router.HandleFunc("/{eid}", handleGetSubject(srv.Vault)).Methods("GET")
	router.HandleFunc("/{eid}", handleEraseSubject(srv.Vault)).Methods("DELETE")
}

func handleCreateSubject(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createSubjectRequest
		if !decodeJSONBody(w, r, &body) {
			return
		}

		subject, err := v.CreateSubject(r.Context(), body.EID)
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, map[string]string{"id": subject.ID, "eid": subject.EID})
	}
}

func handleListSubjects(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eids, err := v.ListSubjects(r.Context())
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string][]string{"subjects": eids})
	}
}

func handleGetSubject(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := v.GetSubject(r.Context(), mux.Vars(r)["eid"])
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"id": subject.ID, "eid": subject.EID})
	}
}

func handleEraseSubject(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := v.EraseSubject(r.Context(), mux.Vars(r)["eid"]); err != nil {
			respondWithVaultError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
