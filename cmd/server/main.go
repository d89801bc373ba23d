package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-flowgate/internal/api/dto"
	"go-flowgate/internal/config"
	"go-flowgate/internal/domain"
	"go-flowgate/internal/logging"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the workflow HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, configFile)
		},
	}

	root := &cobra.Command{
		Use:          "flowgate",
		Short:        "Configurable state-machine workflows over HTTP",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (default ./config.yaml)")

	root.AddCommand(serveCmd, newValidateCmd())
	return root
}

func runServe(cmd *cobra.Command, configFile string) error {
	cfg, err := config.LoadConfig(viper.New(), configFile)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	return serve(cmd.Context(), cfg, logger)
}

// newValidateCmd checks a blueprint file offline, with no registered blueprints.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <blueprint.json>",
		Short: "Validate a blueprint definition without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var req dto.CreateBlueprintRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			if err := domain.ValidateBlueprint(req.ToDomain(), nil); err != nil {
				return fmt.Errorf("%s: %w", domain.CodeOf(err), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "blueprint %q is valid (%d states, %d actions)\n",
				req.ID, len(req.States), len(req.Actions))
			return nil
		},
	}
}
