package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/fleet-compliance/pkg/runtime/terminal/commands"
	"github.com/de-tools/fleet-compliance/pkg/runtime/terminal/export"
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
	"github.com/spf13/cobra"
)

// ConnectFunc builds the evaluation service from the --config flag.
type ConnectFunc func(ctx context.Context, configFile string) (context.Context, compliance.Service, error)

// CLI represents the command-line interface
type CLI struct {
	connect    ConnectFunc
	service    compliance.Service
	reporter   *export.Reporter
	configFile string
	output     string
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Connect ConnectFunc
	Output  io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		connect:  opts.Connect,
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// ExecuteContext runs the CLI with explicit arguments, mostly for tests.
func (cli *CLI) ExecuteContext(ctx context.Context, args ...string) error {
	cli.rootCmd.SetArgs(args)
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "compliance",
		Short:             "Fleet VM image compliance checker",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.setup,
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVarP(&cli.configFile, "config", "c", "", "Path to a settings file (yaml, json or toml)")
	cmd.PersistentFlags().StringVarP(&cli.output, "output", "o", string(export.FormatTable), "Output format: table or json")

	svc := func() compliance.Service { return cli.service }
	cmd.AddCommand(commands.NewAppsCmd(svc, cli.reporter))
	cmd.AddCommand(commands.NewCheckCmd(svc, cli.reporter))
	cmd.AddCommand(commands.NewSummaryCmd(svc, cli.reporter))

	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(cli.output)
	if err != nil {
		return err
	}
	cli.reporter.SetFormat(format)

	ctx, service, err := cli.connect(cmd.Context(), cli.configFile)
	if err != nil {
		return err
	}
	cli.service = service
	cmd.SetContext(ctx)
	return nil
}
