package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/config"
)

func newInitiativeCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initiative",
		Short: "Group tasks across projects under a shared goal",
	}

	cmd.AddCommand(
		newInitiativeCreateCmd(cfg, jsonOutput),
		newInitiativeListCmd(cfg, jsonOutput),
		newInitiativeShowCmd(cfg, jsonOutput),
		newInitiativeUpdateCmd(cfg, jsonOutput),
		newInitiativeLinkCmd(cfg, jsonOutput),
		newInitiativeNoteCmd(cfg, jsonOutput),
	)
	return cmd
}

type initiativeFieldOptions struct {
	description     string
	owner           string
	status          string
	progress        int
	targetDate      string
	participants    []string
	successCriteria []string
}

func bindInitiativeFlags(cmd *cobra.Command, opts *initiativeFieldOptions) {
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "description")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "owner")
	cmd.Flags().StringVar(&opts.status, "status", "", "active, paused, completed or archived")
	cmd.Flags().IntVar(&opts.progress, "progress", 0, "progress percentage 0-100")
	cmd.Flags().StringVar(&opts.targetDate, "target", "", "target date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&opts.participants, "participant", nil, "participant (repeatable)")
	cmd.Flags().StringArrayVar(&opts.successCriteria, "success", nil, "success criterion (repeatable)")
}

func newInitiativeCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &initiativeFieldOptions{}
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an initiative",
		Args:  requireAtLeastArgs(1, "title is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.InitiativeCreateRequest{
				Title:           strings.Join(args, " "),
				Description:     opts.description,
				Owner:           opts.owner,
				Status:          opts.status,
				Progress:        intFlag(cmd, "progress", opts.progress),
				TargetDate:      opts.targetDate,
				Participants:    opts.participants,
				SuccessCriteria: opts.successCriteria,
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.CreateInitiative(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeInitiativeResult(resp, *jsonOutput, true)
			})
		},
	}
	bindInitiativeFlags(cmd, opts)
	return cmd
}

func newInitiativeListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List initiatives, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ListInitiatives(cmd.Context(), status)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeInitiativeTable(resp.Initiatives)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func newInitiativeShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var notes int
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an initiative with its linked tasks and recent notes",
		Args:  requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInitiative(cmd.Context(), args[0], notes)
				if err != nil {
					return err
				}
				return writeInitiativeResult(resp, *jsonOutput, false)
			})
		},
	}
	cmd.Flags().IntVar(&notes, "notes", 0, "number of recent notes to show")
	return cmd
}

func newInitiativeUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &initiativeFieldOptions{}
	var (
		title   string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update initiative fields; --participant adds unless --replace-participants is set",
		Args:  requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.InitiativeUpdateRequest{
				Title:       stringFlag(cmd, "title", title),
				Description: stringFlag(cmd, "description", opts.description),
				Owner:       stringFlag(cmd, "owner", opts.owner),
				Status:      stringFlag(cmd, "status", opts.status),
				Progress:    intFlag(cmd, "progress", opts.progress),
				TargetDate:  stringFlag(cmd, "target", opts.targetDate),
			}
			if cmd.Flags().Changed("participant") {
				if replace {
					req.Participants = &opts.participants
				} else {
					req.AddParticipants = opts.participants
				}
			}
			if cmd.Flags().Changed("success") {
				req.SuccessCriteria = &opts.successCriteria
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.UpdateInitiative(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return writeInitiativeResult(resp, *jsonOutput, true)
			})
		},
	}
	bindInitiativeFlags(cmd, opts)
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().BoolVar(&replace, "replace-participants", false, "replace participants instead of adding")
	return cmd
}

func newInitiativeLinkCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "link <initiative-id> <task-id>",
		Short: "Link a task to an initiative",
		Args:  requireExactlyArgs(2, "initiative id and task id are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.LinkTask(cmd.Context(), args[0], api.LinkTaskRequest{TaskID: args[1], Role: role})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if ok, err := checkOutcome(resp.Outcome); !ok {
					return err
				}
				if !resp.Created {
					return writePlain("%s already linked to %s\n", args[1], args[0])
				}
				return writePlain("linked %s to %s\n", args[1], args[0])
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role of the task within the initiative")
	return cmd
}

func newInitiativeNoteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var progress int
	cmd := &cobra.Command{
		Use:   "note <id> <text>",
		Short: "Append a progress note, optionally updating progress",
		Args:  requireAtLeastArgs(2, "initiative id and note text are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.InitiativeNoteRequest{
				Note:     strings.Join(args[1:], " "),
				Progress: intFlag(cmd, "progress", progress),
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.AddInitiativeUpdate(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if ok, err := checkOutcome(resp.Outcome); !ok {
					return err
				}
				return writePlain("%s\n", resp.Update.ID)
			})
		},
	}
	cmd.Flags().IntVar(&progress, "progress", 0, "new progress percentage 0-100")
	return cmd
}

func writeInitiativeResult(resp api.InitiativeResponse, jsonOutput, idOnly bool) error {
	if jsonOutput {
		return writeJSON(resp)
	}
	if ok, err := checkOutcome(resp.Outcome); !ok {
		return err
	}
	if resp.Initiative == nil {
		return errors.New("initiative missing from response")
	}
	if idOnly {
		return writePlain("%s\n", resp.Initiative.ID)
	}
	return writeInitiativeDetail(resp)
}
