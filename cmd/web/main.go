package main

import (
	"fmt"
	"os"

	"github.com/de-tools/fleet-compliance/pkg/server"
	"github.com/de-tools/fleet-compliance/pkg/services/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the fleet compliance query API",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a settings file (environment variables with the COMPLIANCE_ prefix override it)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	settings, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(settings.Log, os.Stdout)
	if err != nil {
		return err
	}
	ctx := logger.WithContext(cmd.Context())

	components, err := config.Build(ctx, settings)
	if err != nil {
		return err
	}

	logger.Info().
		Str("secrets_backend", settings.Secrets.Backend).
		Str("inventory_backend", settings.Inventory.Backend).
		Strs("regions", settings.Regions).
		Msg("configuration loaded")

	api := server.NewWebAPI(server.Config{
		Addr:            settings.Addr(),
		ShutdownTimeout: settings.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Compliance: components.Evaluator,
			Secrets:    components.Secrets,
			Logger:     logger,
		},
	})

	return api.Start(ctx)
}
