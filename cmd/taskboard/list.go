package main

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/config"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		project  string
		status   string
		assignee string
		parentID string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, highest priority first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				query := url.Values{}
				setIfNotEmpty(query, "project", project)
				setIfNotEmpty(query, "status", status)
				setIfNotEmpty(query, "assignee", assignee)
				setIfNotEmpty(query, "parent_id", parentID)
				setIfPositive(query, "limit", limit)
				setIfPositive(query, "offset", offset)

				resp, err := client.ListTasks(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeTaskTable(resp.Tasks)
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project filter")
	cmd.Flags().StringVar(&status, "status", "", "status filter (comma separated)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee filter")
	cmd.Flags().StringVar(&parentID, "parent", "", "only subtasks of this task")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	cmd.Flags().IntVar(&offset, "offset", 0, "offset results")

	return cmd
}

func newSearchCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		project string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over task titles and descriptions",
		Args:  requireAtLeastArgs(1, "query is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				query := url.Values{}
				query.Set("q", strings.Join(args, " "))
				setIfNotEmpty(query, "project", project)
				setIfPositive(query, "limit", limit)

				resp, err := client.SearchTasks(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeTaskTable(resp.Tasks)
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project filter")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")

	return cmd
}
