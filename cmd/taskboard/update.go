package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/config"
)

type updateCmdOptions struct {
	expect      string
	title       string
	status      string
	priority    int
	description string
	assignee    string
	dueDate     string
	branch      string
	prURL       string
	specFile    string
	designFile  string
	parentID    string
}

func newUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &updateCmdOptions{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields or move it to the next status",
		Long:  "Update task fields. --status moves the task along its pipeline; --expect makes the change conditional on the current status. An empty --parent detaches a subtask.",
		Args:  requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, cfg, opts, jsonOutput, args[0])
		},
	}

	bindUpdateFlags(cmd, opts)
	return cmd
}

func runUpdate(cmd *cobra.Command, cfg *config.Config, opts *updateCmdOptions, jsonOutput *bool, id string) error {
	req := buildUpdateRequest(cmd, opts)
	if !hasTaskUpdateFields(req) {
		return errors.New("no fields to update")
	}

	return withClient(cfg, func(client *api.Client) error {
		resp, err := client.UpdateTask(cmd.Context(), id, req)
		if err != nil {
			return err
		}
		if *jsonOutput {
			return writeJSON(resp)
		}
		if ok, err := checkOutcome(resp.Outcome); !ok {
			return err
		}
		if len(resp.Changed) == 0 {
			return writePlain("%s: %s\n", id, resp.Message)
		}
		return writePlain("%s: updated %s\n", id, strings.Join(resp.Changed, ", "))
	})
}

func buildUpdateRequest(cmd *cobra.Command, opts *updateCmdOptions) api.TaskUpdateRequest {
	return api.TaskUpdateRequest{
		ExpectedStatus: stringFlag(cmd, "expect", opts.expect),
		Title:          stringFlag(cmd, "title", opts.title),
		Status:         stringFlag(cmd, "status", opts.status),
		Priority:       intFlag(cmd, "priority", opts.priority),
		Description:    stringFlag(cmd, "description", opts.description),
		Assignee:       stringFlag(cmd, "assignee", opts.assignee),
		DueDate:        stringFlag(cmd, "due", opts.dueDate),
		Branch:         stringFlag(cmd, "branch", opts.branch),
		PRURL:          stringFlag(cmd, "pr-url", opts.prURL),
		SpecFile:       stringFlag(cmd, "spec-file", opts.specFile),
		DesignFile:     stringFlag(cmd, "design-file", opts.designFile),
		ParentTaskID:   stringFlag(cmd, "parent", opts.parentID),
	}
}

// hasTaskUpdateFields ignores ExpectedStatus: a guard alone changes nothing.
func hasTaskUpdateFields(req api.TaskUpdateRequest) bool {
	return req.Title != nil ||
		req.Status != nil ||
		req.Priority != nil ||
		req.Description != nil ||
		req.Assignee != nil ||
		req.DueDate != nil ||
		req.Branch != nil ||
		req.PRURL != nil ||
		req.SpecFile != nil ||
		req.DesignFile != nil ||
		req.ParentTaskID != nil
}

func bindUpdateFlags(cmd *cobra.Command, opts *updateCmdOptions) {
	cmd.Flags().StringVar(&opts.expect, "expect", "", "only apply when the task is in this status")
	cmd.Flags().StringVar(&opts.title, "title", "", "new title")
	cmd.Flags().StringVar(&opts.status, "status", "", "target status")
	cmd.Flags().IntVarP(&opts.priority, "priority", "p", 0, "priority 0 (highest) to 4")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "description")
	cmd.Flags().StringVar(&opts.assignee, "assignee", "", "assignee")
	cmd.Flags().StringVar(&opts.dueDate, "due", "", "due date (YYYY-MM-DD, empty clears)")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "working branch")
	cmd.Flags().StringVar(&opts.prURL, "pr-url", "", "pull request url")
	cmd.Flags().StringVar(&opts.specFile, "spec-file", "", "spec document path")
	cmd.Flags().StringVar(&opts.designFile, "design-file", "", "design document path")
	cmd.Flags().StringVar(&opts.parentID, "parent", "", "new parent task id (empty detaches)")
}
