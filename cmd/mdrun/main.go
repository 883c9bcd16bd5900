package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

type globalFlags struct {
	root          string
	model         string
	sandboxMode   string
	maxIterations int
	quiet         bool
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "mdrun",
		Short:         "mdrun - run goals against markdown-defined agents and tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.root, "root", "", "directory holding system/, components/ and workspace/ (default: current directory)")
	pf.StringVar(&flags.model, "model", "", "model name passed to the provider")
	pf.StringVar(&flags.sandboxMode, "sandbox", "", "sandbox mode: auto, docker or host")
	pf.IntVar(&flags.maxIterations, "max-iterations", 0, "iteration ceiling per goal")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress progress logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "boot",
			Short: "Reset the workspace and show what a run would use",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runBoot(cmd.Context(), cmd.OutOrStdout(), flags)
			},
		},
		&cobra.Command{
			Use:   "execute <goal>",
			Short: "Run a single goal to completion",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runExecute(cmd.Context(), cmd.OutOrStdout(), flags, args)
			},
		},
		&cobra.Command{
			Use:   "interactive",
			Short: "Read goals line by line and run each one",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), flags)
			},
		},
	)
	return root
}
