package commands

import (
	"fmt"

	"github.com/de-tools/fleet-compliance/pkg/adapters"
	"github.com/de-tools/fleet-compliance/pkg/runtime/terminal/export"
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
	"github.com/spf13/cobra"
)

type CheckCmd struct {
	app      string
	debug    bool
	service  ServiceFunc
	reporter *export.Reporter
}

func NewCheckCmd(service ServiceFunc, reporter *export.Reporter) *cobra.Command {
	cc := &CheckCmd{service: service, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check image compliance for one or all applications",
		Args:  cobra.NoArgs,
		RunE:  cc.run,
	}

	cmd.Flags().StringVar(&cc.app, "app", "", "Application to check (default: all applications)")
	cmd.Flags().BoolVar(&cc.debug, "debug", false, "Log every classification decision")

	return cmd
}

func (cc *CheckCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	opts := compliance.Options{Debug: cc.debug}

	if cc.app != "" {
		result, err := cc.service().EvaluateApplication(ctx, cc.app, opts)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", cc.app, err)
		}
		return cc.reporter.ApplicationResult(adapters.MapApplicationResultDomainToApi(result))
	}

	run, err := cc.service().EvaluateAll(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to check compliance: %w", err)
	}
	return cc.reporter.EvaluationRun(adapters.MapEvaluationRunDomainToApi(run))
}
