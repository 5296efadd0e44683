package commands

import (
	"fmt"

	"github.com/de-tools/fleet-compliance/pkg/adapters"
	"github.com/de-tools/fleet-compliance/pkg/runtime/terminal/export"
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
	"github.com/de-tools/fleet-compliance/pkg/services/report"
	"github.com/spf13/cobra"
)

type SummaryCmd struct {
	debug    bool
	service  ServiceFunc
	reporter *export.Reporter
}

func NewSummaryCmd(service ServiceFunc, reporter *export.Reporter) *cobra.Command {
	sc := &SummaryCmd{service: service, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show fleet-wide compliance totals per application",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}

	cmd.Flags().BoolVar(&sc.debug, "debug", false, "Log every classification decision")

	return cmd
}

func (sc *SummaryCmd) run(cmd *cobra.Command, _ []string) error {
	run, err := sc.service().EvaluateAll(cmd.Context(), compliance.Options{Debug: sc.debug})
	if err != nil {
		return fmt.Errorf("failed to generate compliance summary: %w", err)
	}
	return sc.reporter.FleetSummary(adapters.MapFleetSummaryDomainToApi(report.Summarize(run)))
}
