package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/piivault/pkg/audit"
	"github.com/doodlesbykumbi/piivault/pkg/config"
	"github.com/doodlesbykumbi/piivault/pkg/db"
	"github.com/doodlesbykumbi/piivault/pkg/seal"
	"github.com/doodlesbykumbi/piivault/pkg/server"
	"github.com/doodlesbykumbi/piivault/pkg/server/endpoints"
	"github.com/doodlesbykumbi/piivault/pkg/server/middleware"
	gormstore "github.com/doodlesbykumbi/piivault/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/piivault/pkg/vault"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the vault API server",
	Long: `Run the vault API server.

Configuration is read from piivault.yml and PIIVAULT_* environment
variables. At minimum the server needs DATABASE_URL, PIIVAULT_DATA_KEY
and PIIVAULT_SIGNING_KEY.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		dataKey, err := base64.StdEncoding.DecodeString(cfg.DataKey)
		if err != nil {
			fmt.Println("Bad PIIVAULT_DATA_KEY:", err)
			os.Exit(1)
		}

		cipher, err := seal.NewSymmetric(dataKey)
		if err != nil {
			fmt.Println("Unable to initiate cipher:", err)
			os.Exit(1)
		}

		// the blind-index key is derived from the same data key but kept
		// distinct from the cipher key material inside the indexer
		indexer, err := seal.NewIndexer(dataKey)
		if err != nil {
			fmt.Println("Unable to initiate indexer:", err)
			os.Exit(1)
		}

		gormDB, err := db.Connect(db.Config{URL: cfg.DatabaseURL, Cipher: cipher})
		if err != nil {
			fmt.Println("Unable to connect to DB:", err)
			os.Exit(1)
		}

		audit.SetEnabled(cfg.AuditEnabled)

		v := vault.New(
			gormstore.NewCollectionsStore(gormDB),
			gormstore.NewRecordsStore(gormDB),
			gormstore.NewSubjectsStore(gormDB),
			gormstore.NewPoliciesStore(gormDB),
			gormstore.NewPrincipalsStore(gormDB),
			gormstore.NewTokensStore(gormDB),
			indexer,
		)
		v.PurgeTokensOnDelete = cfg.PurgeTokensOnDelete

		if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
			if err := v.Bootstrap(cfg.AdminUsername, cfg.AdminPassword); err != nil {
				fmt.Println("Bootstrap failed:", err)
				os.Exit(1)
			}
		}

		sessions := middleware.NewSessionAuthenticator([]byte(cfg.SigningKey), cfg.SessionDuration())

		s := server.NewServer(v, sessions, gormstore.NewHealthStore(gormDB), cfg.ListenAddr())
		endpoints.RegisterAll(s)

		// pick up audit and token-purge toggles without a restart
		err = config.Watch(func() {
			reloaded := config.Get()
			audit.SetEnabled(reloaded.AuditEnabled)
			v.PurgeTokensOnDelete = reloaded.PurgeTokensOnDelete
			log.Println("Configuration reloaded")
		})
		if err != nil {
			log.Println("Config watch disabled:", err)
		}

		log.Printf("Running server at http://%s...\n", cfg.ListenAddr())
		log.Fatal(s.Start())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
