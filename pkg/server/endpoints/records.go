package endpoints

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/piivault/pkg/ptype"
	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

// RegisterRecordsEndpoints registers record storage, rendering and search
// endpoints under their collection.
func RegisterRecordsEndpoints(srv *server.Server) {
	router := srv.Router.PathPrefix("/collections/{collection}/records").Subrouter()
	router.Use(srv.Sessions.Middleware)

	router.HandleFunc("", handleCreateRecord(srv.Vault)).Methods("POST")
	router.HandleFunc("", handleListOrSearchRecords(srv.Vault)).Methods("GET")
	router.HandleFunc("/{record}", handleGetRecord(srv.Vault)).Methods("GET")
	router.HandleFunc("/{record}", handleUpdateRecord(srv.Vault)).Methods("PATCH")
	router.HandleFunc("/{record}", handleDeleteRecord(srv.Vault)).Methods("DELETE")
	router.HandleFunc("/{record}/tokens", handleTokenizeField(srv.Vault)).Methods("POST")
}

func handleCreateRecord(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if !decodeJSONBody(w, r, &payload) {
			return
		}

		id, err := v.CreateRecord(r.Context(), mux.Vars(r)["collection"], payload)
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

func handleListOrSearchRecords(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection := mux.Vars(r)["collection"]
		query := r.URL.Query()

		var ids []string
		var err error
		if field := query.Get("field"); field != "" {
			ids, err = v.SearchRecords(r.Context(), collection, field, query.Get("value"))
		} else {
			ids, err = v.ListRecords(r.Context(), collection)
		}
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string][]string{"records": ids})
	}
}

// fieldSelectors parses the comma-separated ?fields= query parameter.
// An absent parameter means the caller gets every field masked.
func fieldSelectors(r *http.Request) []string {
	raw := r.URL.Query().Get("fields")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func handleGetRecord(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		rendered, err := v.GetRecord(r.Context(), vars["collection"], vars["record"], fieldSelectors(r))
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, rendered)
	}
}

func handleUpdateRecord(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if !decodeJSONBody(w, r, &payload) {
			return
		}

		vars := mux.Vars(r)
		if err := v.UpdateRecord(r.Context(), vars["collection"], vars["record"], payload); err != nil {
			respondWithVaultError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeleteRecord(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := v.DeleteRecord(r.Context(), vars["collection"], vars["record"]); err != nil {
			respondWithVaultError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type tokenizeRequest struct {
	Field  string `json:"field"`
	Format string `json:"format"`
}

func handleTokenizeField(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body tokenizeRequest
		if !decodeJSONBody(w, r, &body) {
			return
		}
		if body.Format == "" {
			body.Format = ptype.PlainFormat
		}

		vars := mux.Vars(r)
		token, err := v.Tokenize(r.Context(), vars["collection"], vars["record"], body.Field, body.Format)
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, map[string]string{"token": token})
	}
}
