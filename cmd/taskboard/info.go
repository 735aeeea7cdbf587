package main

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show database, pipeline and task count info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(struct {
						api.InfoResponse
						DBPath string `json:"db_path"`
					}{resp, cfg.DBPath})
				}

				_ = writePlain("db_path: %s\n", cfg.DBPath)
				_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
				_ = writePlain("lightweight_prefix: %s\n", resp.LightweightPrefix)
				pipelines := make([]string, 0, len(resp.Pipelines))
				for name := range resp.Pipelines {
					pipelines = append(pipelines, name)
				}
				sort.Strings(pipelines)
				for _, name := range pipelines {
					_ = writePlain("pipeline %s: %s\n", name, strings.Join(resp.Pipelines[name], " -> "))
				}
				_ = writePlain("total_tasks: %d\n", resp.TotalTasks)

				statuses := make([]string, 0, len(resp.TaskCounts))
				for status := range resp.TaskCounts {
					statuses = append(statuses, status)
				}
				sort.Strings(statuses)
				for _, status := range statuses {
					_ = writePlain("  %s: %d\n", status, resp.TaskCounts[status])
				}
				return nil
			})
		},
	}
}
