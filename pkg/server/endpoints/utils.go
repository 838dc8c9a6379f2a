package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithVaultError maps vault error types onto HTTP statuses.
func respondWithVaultError(w http.ResponseWriter, err error) {
	var (
		notAuthenticated *vault.NotAuthenticatedError
		forbidden        *vault.ForbiddenError
		notFound         *vault.NotFoundError
		conflict         *vault.ConflictError
		valueErr         *vault.ValueError
		integrity        *vault.IntegrityError
	)
	switch {
	case errors.As(err, &notAuthenticated):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &notFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.As(err, &valueErr):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &integrity):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
