package main

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/config"
)

type createCmdOptions struct {
	project     string
	parentID    string
	priority    int
	status      string
	description string
	assignee    string
	dueDate     string
	branch      string
	prURL       string
	specFile    string
	designFile  string
	criteria    []string
	filePath    string
}

func newCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &createCmdOptions{}
	cmd := &cobra.Command{
		Use:   "create [<title>]",
		Short: "Create a task",
		Long:  "Create a task in a project, or a subtask with --parent. With --file the task is read from a markdown document whose front matter holds fields and whose list items become acceptance criteria.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, cfg, opts, jsonOutput, args)
		},
	}

	bindCreateFlags(cmd, opts)
	return cmd
}

func runCreate(cmd *cobra.Command, cfg *config.Config, opts *createCmdOptions, jsonOutput *bool, args []string) error {
	req, err := buildCreateRequest(cmd, opts, args)
	if err != nil {
		return err
	}

	return withClient(cfg, func(client *api.Client) error {
		resp, err := client.CreateTask(cmd.Context(), req)
		if err != nil {
			return err
		}
		if *jsonOutput {
			return writeJSON(resp)
		}
		if ok, err := checkOutcome(resp.Outcome); !ok {
			return err
		}
		return writePlain("%s\n", resp.ID)
	})
}

func buildCreateRequest(cmd *cobra.Command, opts *createCmdOptions, args []string) (api.TaskCreateRequest, error) {
	req := api.TaskCreateRequest{}
	if opts.filePath != "" {
		data, err := os.ReadFile(opts.filePath)
		if err != nil {
			return req, err
		}
		if req, err = parseTaskDocument(string(data)); err != nil {
			return req, err
		}
	}

	if len(args) > 0 {
		req.Title = strings.Join(args, " ")
	}
	if strings.TrimSpace(req.Title) == "" {
		return req, errors.New("title is required")
	}

	overlay := func(name string, value string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst = value
		}
	}
	overlay("project", opts.project, &req.Project)
	overlay("parent", opts.parentID, &req.ParentTaskID)
	overlay("status", opts.status, &req.Status)
	overlay("description", opts.description, &req.Description)
	overlay("assignee", opts.assignee, &req.Assignee)
	overlay("due", opts.dueDate, &req.DueDate)
	overlay("branch", opts.branch, &req.Branch)
	overlay("pr-url", opts.prURL, &req.PRURL)
	overlay("spec-file", opts.specFile, &req.SpecFile)
	overlay("design-file", opts.designFile, &req.DesignFile)
	if priority := intFlag(cmd, "priority", opts.priority); priority != nil {
		req.Priority = priority
	}
	if len(opts.criteria) > 0 {
		req.AcceptanceCriteria = append(req.AcceptanceCriteria, opts.criteria...)
	}

	if strings.TrimSpace(req.Project) == "" && strings.TrimSpace(req.ParentTaskID) == "" {
		return req, errors.New("--project or --parent is required")
	}
	return req, nil
}

func bindCreateFlags(cmd *cobra.Command, opts *createCmdOptions) {
	cmd.Flags().StringVar(&opts.project, "project", "", "project name")
	cmd.Flags().StringVar(&opts.parentID, "parent", "", "parent task id (creates a subtask)")
	cmd.Flags().IntVarP(&opts.priority, "priority", "p", 0, "priority 0 (highest) to 4")
	cmd.Flags().StringVar(&opts.status, "status", "", "initial status (defaults to the pipeline start)")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&opts.assignee, "assignee", "", "assignee")
	cmd.Flags().StringVar(&opts.dueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "working branch")
	cmd.Flags().StringVar(&opts.prURL, "pr-url", "", "pull request url")
	cmd.Flags().StringVar(&opts.specFile, "spec-file", "", "spec document path")
	cmd.Flags().StringVar(&opts.designFile, "design-file", "", "design document path")
	cmd.Flags().StringArrayVarP(&opts.criteria, "criterion", "c", nil, "acceptance criterion (repeatable)")
	cmd.Flags().StringVarP(&opts.filePath, "file", "f", "", "markdown task document")
}
