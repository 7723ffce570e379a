package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/metalfoundry/foundry/internal/api"
	"github.com/metalfoundry/foundry/internal/config"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "foundry",
		Short: "Bare-metal cluster deployment tracker",
		Long:  "foundry tracks switches, discovered machines, cluster configuration, and installation progress for bare-metal deployments.",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(serveCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			ds, err := cfg.InitializeDatastore()
			if err != nil {
				return fmt.Errorf("failed to initialize datastore: %w", err)
			}
			defer func() {
				if err := ds.Close(); err != nil {
					log.Printf("failed to close datastore: %v", err)
				}
			}()

			r := chi.NewRouter()
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)

			api.NewAPI(ds).RegisterRoutes(r)

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				if _, err := fmt.Fprintln(w, "foundry is running"); err != nil {
					log.Printf("failed to write response: %v", err)
				}
			})

			addr := ":" + cfg.Port
			fmt.Printf("Starting foundry on %s...\n", addr)
			return http.ListenAndServe(addr, r)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Opening the datastore runs all pending migrations.
			ds, err := cfg.InitializeDatastore()
			if err != nil {
				return fmt.Errorf("failed to initialize datastore: %w", err)
			}
			if err := ds.Close(); err != nil {
				return err
			}

			fmt.Println("Database schema is up to date.")
			return nil
		},
	}
}
