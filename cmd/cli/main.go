package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/fleet-compliance/pkg/runtime/terminal"
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
	"github.com/de-tools/fleet-compliance/pkg/services/config"
	"github.com/joho/godotenv"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Connect: connect,
		Output:  os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect logs to stderr so that stdout only carries the report.
func connect(ctx context.Context, configFile string) (context.Context, compliance.Service, error) {
	_ = godotenv.Load()

	settings, err := config.Load(configFile)
	if err != nil {
		return ctx, nil, err
	}
	logger, err := config.NewLogger(settings.Log, os.Stderr)
	if err != nil {
		return ctx, nil, err
	}
	ctx = logger.WithContext(ctx)

	components, err := config.Build(ctx, settings)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, components.Evaluator, nil
}
