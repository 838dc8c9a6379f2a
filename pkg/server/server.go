package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/piivault/pkg/server/middleware"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

type Server struct {
	Vault       *vault.Vault
	Sessions    *middleware.SessionAuthenticator
	HealthStore store.HealthStore
	Router      *mux.Router
	srv         *http.Server
}

func NewServer(
	v *vault.Vault,
	sessions *middleware.SessionAuthenticator,
	healthStore store.HealthStore,
	addr string,
) *Server {
	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    addr,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Vault:       v,
		Sessions:    sessions,
		HealthStore: healthStore,
		Router:      router,
		srv:         srv,
	}
}

func (s Server) Start() error {
	return s.srv.ListenAndServe()
}
