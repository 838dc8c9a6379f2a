package endpoints

import (
	"net/http"
	"os"

	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// StatusResponse represents the response from the status endpoint
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RegisterStatusEndpoints registers the status and health endpoints.
// Neither requires authentication.
func RegisterStatusEndpoints(srv *server.Server) {
	srv.Router.HandleFunc("/", handleStatus()).Methods("GET")
	srv.Router.HandleFunc("/health", handleHealth(srv.HealthStore)).Methods("GET")
}

func version() string {
	if v := os.Getenv("PIIVAULT_VERSION_DISPLAY"); v != "" {
		return v
	}
	return "0.1.0"
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok", Version: version()})
	}
}

func handleHealth(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := healthStore.CheckConnectivity(); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "error", Version: version()})
			return
		}
		respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok", Version: version()})
	}
}
