package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

type createCollectionRequest struct {
	Name   string                 `json:"name"`
	Parent string                 `json:"parent"`
	Schema model.CollectionSchema `json:"schema"`
}

// CollectionResponse is the rendered form of a collection.
type CollectionResponse struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	Parent string                 `json:"parent,omitempty"`
	Schema model.CollectionSchema `json:"schema"`
}

// RegisterCollectionsEndpoints registers collection management endpoints
func RegisterCollectionsEndpoints(srv *server.Server) {
	router := srv.Router.PathPrefix("/collections").Subrouter()
	router.Use(srv.Sessions.Middleware)

	router.HandleFunc("", handleCreateCollection(srv.Vault)).Methods("POST")
	router.HandleFunc("", handleListCollections(srv.Vault)).Methods("GET")
	router.HandleFunc("/{collection}", handleGetCollection(srv.Vault)).Methods("GET")
	router.HandleFunc("/{collection}", handleDeleteCollection(srv.Vault)).Methods("DELETE")
}

func collectionResponse(collection *model.Collection) (CollectionResponse, error) {
	schema, err := collection.ParseSchema()
	if err != nil {
		return CollectionResponse{}, err
	}
	return CollectionResponse{ID: collection.ID, Name: collection.Name, Parent: collection.Parent, Schema: schema}, nil
}

func handleCreateCollection(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createCollectionRequest
		if !decodeJSONBody(w, r, &body) {
			return
		}

		collection, err := v.CreateCollection(r.Context(), body.Name, body.Parent, body.Schema)
		if err != nil {
			respondWithVaultError(w, err)
			return
		}

		response, err := collectionResponse(collection)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondWithJSON(w, http.StatusCreated, response)
	}
}

func handleListCollections(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := v.ListCollections(r.Context())
		if err != nil {
			respondWithVaultError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string][]string{"collections": names})
	}
}

func handleGetCollection(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, err := v.GetCollection(r.Context(), mux.Vars(r)["collection"])
		if err != nil {
			respondWithVaultError(w, err)
			return
		}

		response, err := collectionResponse(collection)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}

func handleDeleteCollection(v *vault.Vault) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := v.DeleteCollection(r.Context(), mux.Vars(r)["collection"]); err != nil {
			respondWithVaultError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
