package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/piivault/pkg/db"
	"github.com/doodlesbykumbi/piivault/pkg/seal"
	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/server/endpoints"
	"github.com/doodlesbykumbi/piivault/pkg/server/middleware"
	gormstore "github.com/doodlesbykumbi/piivault/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

// TestContext holds the resources shared by every scenario: a Postgres
// testcontainer with migrations applied and an in-process vault server.
type TestContext struct {
	DB          *gorm.DB
	Container   testcontainers.Container
	Vault       *vault.Vault
	ServerURL   string
	DatabaseURL string
	HTTPClient  *http.Client

	httpSrv *httptest.Server
}

// NewTestContext starts a PostgreSQL container, applies the migrations
// from db/migrations and serves the full API over httptest.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("piivault_test"),
		tcpostgres.WithUsername("piivault"),
		tcpostgres.WithPassword("piivault"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://piivault:piivault@%s:%s/piivault_test?sslmode=disable", host, port.Port())

	if err := runMigrations(migrationsDir, connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dataKey := bytes.Repeat([]byte{11}, 32)
	cipher, err := seal.NewSymmetric(dataKey)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	indexer, err := seal.NewIndexer(dataKey)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}

	gormDB, err := db.Connect(db.Config{URL: connStr, Cipher: cipher})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	v := vault.New(
		gormstore.NewCollectionsStore(gormDB),
		gormstore.NewRecordsStore(gormDB),
		gormstore.NewSubjectsStore(gormDB),
		gormstore.NewPoliciesStore(gormDB),
		gormstore.NewPrincipalsStore(gormDB),
		gormstore.NewTokensStore(gormDB),
		indexer,
	)

	sessions := middleware.NewSessionAuthenticator([]byte("integration-signing-key"), time.Hour)
	s := server.NewServer(v, sessions, gormstore.NewHealthStore(gormDB), "127.0.0.1:0")
	endpoints.RegisterAll(s)

	httpSrv := httptest.NewServer(s.Router)

	return &TestContext{
		DB:          gormDB,
		Container:   pgContainer,
		Vault:       v,
		ServerURL:   httpSrv.URL,
		DatabaseURL: connStr,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		httpSrv:     httpSrv,
	}, nil
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.httpSrv != nil {
		tc.httpSrv.Close()
	}
	if tc.DB != nil {
		if rawDB, err := tc.DB.DB(); err == nil {
			_ = rawDB.Close()
		}
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the directory that holds go.mod
func findProjectRoot() (string, error) {
	for _, p := range []string{"../..", "..", "."} {
		if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
			return filepath.Abs(p)
		}
	}
	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

func runMigrations(migrationsDir, databaseURL string) error {
	m, err := migrate.New("file://"+migrationsDir, databaseURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
