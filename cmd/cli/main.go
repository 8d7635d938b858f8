package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cellfade/internal/config"
	"cellfade/internal/container"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options shared by every subcommand
type rootOptions struct {
	json bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "cellfade",
		Short:         "Battery cycle-life analytics: synthesize, filter, fit and summarize test cells",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newSynthesizeCmd(opts),
		newFilterCmd(opts),
		newFitCmd(opts),
		newKPIsCmd(opts),
		newReportCmd(opts),
		newDistributionCmd(opts),
		newExportCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// loadContainer reads configuration the same way the server does
func loadContainer() (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(cfg)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
