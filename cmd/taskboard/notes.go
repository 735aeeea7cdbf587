package main

import (
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/config"
)

func newCommentCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Add a comment to a task",
		Args:  requireAtLeastArgs(2, "task id and comment text are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.AddComment(cmd.Context(), args[0], api.CommentRequest{Body: strings.Join(args[1:], " ")})
				if err != nil {
					return err
				}
				return writeCommentResult(resp, *jsonOutput)
			})
		},
	}
}

func newReviewCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		issues string
		body   string
	)

	cmd := &cobra.Command{
		Use:   "review <id> <verdict>",
		Short: "Submit a review verdict (approve or reject)",
		Args:  requireExactlyArgs(2, "task id and verdict are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.SubmitReview(cmd.Context(), args[0], api.ReviewRequest{
					Verdict: args[1],
					Issues:  splitCommaList(issues),
					Body:    body,
				})
				if err != nil {
					return err
				}
				return writeCommentResult(resp, *jsonOutput)
			})
		},
	}

	cmd.Flags().StringVar(&issues, "issues", "", "issue categories (comma separated)")
	cmd.Flags().StringVarP(&body, "message", "m", "", "review notes")
	return cmd
}

func writeCommentResult(resp api.CommentResponse, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(resp)
	}
	if ok, err := checkOutcome(resp.Outcome); !ok {
		return err
	}
	return writePlain("%s\n", resp.Comment.ID)
}

func newCriteriaCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	criteriaCmd := &cobra.Command{
		Use:   "criteria",
		Short: "Manage a task's acceptance criteria",
	}

	setCmd := &cobra.Command{
		Use:   "set <id> <item> [<item>...]",
		Short: "Replace the checklist; every item starts unchecked",
		Args:  requireAtLeastArgs(1, "task id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.SetCriteria(cmd.Context(), args[0], api.CriteriaSetRequest{Items: args[1:]})
				if err != nil {
					return err
				}
				return writeCriteriaResult(resp, *jsonOutput)
			})
		},
	}

	var uncheck bool
	checkCmd := &cobra.Command{
		Use:   "check <id> <criterion-id>",
		Short: "Mark one checklist item done (or not done with --uncheck)",
		Args:  requireExactlyArgs(2, "task id and criterion id are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			checked := !uncheck
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.CheckCriterion(cmd.Context(), args[0], args[1], api.CriterionCheckRequest{Checked: &checked})
				if err != nil {
					return err
				}
				return writeCriteriaResult(resp, *jsonOutput)
			})
		},
	}
	checkCmd.Flags().BoolVar(&uncheck, "uncheck", false, "clear the item instead")

	criteriaCmd.AddCommand(setCmd, checkCmd)
	return criteriaCmd
}

func writeCriteriaResult(resp api.CriteriaResponse, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(resp)
	}
	if ok, err := checkOutcome(resp.Outcome); !ok {
		return err
	}
	if len(resp.Criteria) == 0 {
		return writePlain("%s: no acceptance criteria\n", resp.TaskID)
	}
	return writePlain("%s\n", strings.Join(criteriaLines(resp.Criteria), "\n"))
}
