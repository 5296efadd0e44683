package commands

import (
	"fmt"

	"github.com/de-tools/fleet-compliance/pkg/adapters"
	"github.com/de-tools/fleet-compliance/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type AppsCmd struct {
	service  ServiceFunc
	reporter *export.Reporter
}

func NewAppsCmd(service ServiceFunc, reporter *export.Reporter) *cobra.Command {
	ac := &AppsCmd{service: service, reporter: reporter}
	return &cobra.Command{
		Use:   "apps",
		Short: "List the applications configured in the secret store",
		Args:  cobra.NoArgs,
		RunE:  ac.run,
	}
}

func (ac *AppsCmd) run(cmd *cobra.Command, _ []string) error {
	apps, err := ac.service().ListApplications(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}
	return ac.reporter.Applications(adapters.MapApplicationsToApi(apps))
}
