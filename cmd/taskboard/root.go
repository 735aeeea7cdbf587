package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Taskboard tracks tasks through status pipelines for agents and humans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newCreateCmd(cfg, &jsonOutput),
		newShowCmd(cfg, &jsonOutput),
		newListCmd(cfg, &jsonOutput),
		newSearchCmd(cfg, &jsonOutput),
		newUpdateCmd(cfg, &jsonOutput),
		newDeleteCmd(cfg, &jsonOutput),
		newCommentCmd(cfg, &jsonOutput),
		newReviewCmd(cfg, &jsonOutput),
		newCriteriaCmd(cfg, &jsonOutput),
		newDepCmd(cfg, &jsonOutput),
		newBoardCmd(cfg, &jsonOutput),
		newInitiativeCmd(cfg, &jsonOutput),
		newInfoCmd(cfg, &jsonOutput),
		newMigrateCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
	)

	return cmd
}
