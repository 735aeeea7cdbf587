package main

import (
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/config"
)

func newDeleteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task together with its subtasks",
		Long:  "Delete a task. Without --yes the server only reports what would be removed.",
		Args:  requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.DeleteTask(cmd.Context(), args[0], confirm)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if ok, err := checkOutcome(resp.Outcome); !ok {
					if err == nil && resp.IsNoop() {
						err = writePlain("re-run with --yes to delete\n")
					}
					return err
				}
				return writePlain("deleted %s\n", strings.Join(resp.Deleted, ", "))
			})
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "confirm deletion")
	return cmd
}
