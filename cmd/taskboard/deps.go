package main

import (
	"context"

	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/config"
)

func newDepCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	depCmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage blocking dependencies between tasks",
	}

	depCmd.AddCommand(
		newDepEdgeCmd(cfg, jsonOutput, "add", "Make <task> depend on <depends-on>", (*api.Client).AddDependency),
		newDepEdgeCmd(cfg, jsonOutput, "remove", "Remove the dependency of <task> on <depends-on>", (*api.Client).RemoveDependency),
	)
	return depCmd
}

type depCall func(*api.Client, context.Context, api.DepRequest) (api.DepResponse, error)

func newDepEdgeCmd(cfg *config.Config, jsonOutput *bool, use, short string, call depCall) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task> <depends-on>",
		Short: short,
		Args:  requireExactlyArgs(2, "task and depends-on ids are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := call(client, cmd.Context(), api.DepRequest{TaskID: args[0], DependsOnID: args[1]})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if ok, err := checkOutcome(resp.Outcome); !ok {
					return err
				}
				if !resp.Changed {
					return writePlain("%s -> %s: %s\n", args[0], args[1], resp.Message)
				}
				return writePlain("%s -> %s\n", args[0], args[1])
			})
		},
	}
}
