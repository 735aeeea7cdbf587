package main

import (
	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/config"
)

func newBoardCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "board <project>",
		Short: "Show a project's tasks grouped by status in pipeline order",
		Args:  requireExactlyArgs(1, "project is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Board(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s", resp.Text)
			})
		},
	}
}
