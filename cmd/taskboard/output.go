package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/api"
	"taskboard/internal/format"
	"taskboard/internal/models"
)

var (
	outputFormatter format.Formatter = format.JSONFormatter{Indent: "  "}
	stdout          io.Writer        = os.Stdout
)

func writeJSON(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

// checkOutcome turns not_found into a command error and prints noop messages.
// It reports whether the caller should go on to print the result.
func checkOutcome(outcome api.Outcome) (bool, error) {
	switch outcome.Status {
	case api.OutcomeNotFound:
		return false, errors.New(outcome.Message)
	case api.OutcomeNoop:
		return false, writePlain("noop: %s\n", outcome.Message)
	}
	return true, nil
}

func writeTaskTable(items []api.TaskListItem) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		subtasks := ""
		if item.Subtasks != nil && item.Subtasks.Total > 0 {
			subtasks = fmt.Sprintf("%d/%d", item.Subtasks.Done, item.Subtasks.Total)
		}
		rows = append(rows, []string{
			item.ID,
			"P" + strconv.Itoa(item.Priority),
			item.Status,
			item.Project,
			item.Assignee,
			subtasks,
			item.Title,
		})
	}
	return format.Table(stdout, []string{"ID", "PRI", "STATUS", "PROJECT", "ASSIGNEE", "SUBTASKS", "TITLE"}, rows)
}

func writeTaskDetail(resp api.TaskDetailResponse) error {
	task := resp.Task
	lines := []string{
		fmt.Sprintf("id: %s", task.ID),
		fmt.Sprintf("project: %s", task.Project),
		fmt.Sprintf("title: %s", task.Title),
		fmt.Sprintf("status: %s", task.Status),
		fmt.Sprintf("priority: %d", task.Priority),
		fmt.Sprintf("created_by: %s", task.CreatedBy),
		fmt.Sprintf("created_at: %s", formatTime(task.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(task.UpdatedAt)),
	}
	lines = appendField(lines, "assignee", task.Assignee)
	lines = appendField(lines, "due_date", task.DueDate)
	lines = appendField(lines, "branch", task.Branch)
	lines = appendField(lines, "pr_url", task.PRURL)
	lines = appendField(lines, "spec_file", task.SpecFile)
	lines = appendField(lines, "design_file", task.DesignFile)
	lines = appendField(lines, "description", task.Description)
	if len(task.CorruptFields) > 0 {
		lines = append(lines, fmt.Sprintf("corrupt_fields: %s", strings.Join(task.CorruptFields, ", ")))
	}

	if resp.Parent != nil {
		lines = append(lines, fmt.Sprintf("parent: %s", summaryLine(*resp.Parent)))
	}
	if len(task.AcceptanceCriteria) > 0 {
		lines = append(lines, "acceptance_criteria:")
		lines = append(lines, criteriaLines(task.AcceptanceCriteria)...)
	}
	lines = appendSummaries(lines, "subtasks", resp.Children)
	if resp.Subtasks != nil && resp.Subtasks.Total > 0 {
		lines = append(lines, fmt.Sprintf("subtasks_done: %d/%d", resp.Subtasks.Done, resp.Subtasks.Total))
	}
	lines = appendSummaries(lines, "blocked_by", resp.Blockers)
	lines = appendSummaries(lines, "blocks", resp.Blocked)

	if len(resp.Reviews) > 0 {
		lines = append(lines, "reviews:")
		for _, review := range resp.Reviews {
			line := fmt.Sprintf("  - %s %s by %s", formatTime(review.CreatedAt), review.Verdict, review.Author)
			if len(review.Issues) > 0 {
				line += " [" + strings.Join(review.Issues, ", ") + "]"
			}
			if review.Body != "" {
				line += ": " + review.Body
			}
			lines = append(lines, line)
		}
	}
	if len(resp.Comments) > 0 {
		lines = append(lines, "comments:")
		for _, comment := range resp.Comments {
			lines = append(lines, fmt.Sprintf("  - %s %s: %s", formatTime(comment.CreatedAt), comment.Author, comment.Body))
		}
	}
	if len(resp.History) > 0 {
		lines = append(lines, "history:")
		for _, entry := range resp.History {
			lines = append(lines, historyLine(entry))
		}
	}

	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeInitiativeTable(initiatives []models.Initiative) error {
	rows := make([][]string, 0, len(initiatives))
	for _, initiative := range initiatives {
		rows = append(rows, []string{
			initiative.ID,
			initiative.Status,
			strconv.Itoa(initiative.Progress) + "%",
			initiative.Owner,
			initiative.TargetDate,
			initiative.Title,
		})
	}
	return format.Table(stdout, []string{"ID", "STATUS", "PROGRESS", "OWNER", "TARGET", "TITLE"}, rows)
}

func writeInitiativeDetail(resp api.InitiativeResponse) error {
	initiative := resp.Initiative
	lines := []string{
		fmt.Sprintf("id: %s", initiative.ID),
		fmt.Sprintf("title: %s", initiative.Title),
		fmt.Sprintf("status: %s", initiative.Status),
		fmt.Sprintf("progress: %d%%", initiative.Progress),
		fmt.Sprintf("created_by: %s", initiative.CreatedBy),
		fmt.Sprintf("updated_at: %s", formatTime(initiative.UpdatedAt)),
	}
	lines = appendField(lines, "owner", initiative.Owner)
	lines = appendField(lines, "target_date", initiative.TargetDate)
	lines = appendField(lines, "description", initiative.Description)
	if len(initiative.Participants) > 0 {
		lines = append(lines, fmt.Sprintf("participants: %s", strings.Join(initiative.Participants, ", ")))
	}
	if len(initiative.SuccessCriteria) > 0 {
		lines = append(lines, "success_criteria:")
		for _, criterion := range initiative.SuccessCriteria {
			lines = append(lines, "  - "+criterion)
		}
	}
	if len(resp.Tasks) > 0 {
		lines = append(lines, "tasks:")
		for _, task := range resp.Tasks {
			line := fmt.Sprintf("  - %s (%s)", summaryLine(task.TaskSummary), task.Project)
			if task.Role != "" {
				line += " role=" + task.Role
			}
			lines = append(lines, line)
		}
	}
	if len(resp.Updates) > 0 {
		lines = append(lines, "updates:")
		for _, update := range resp.Updates {
			line := fmt.Sprintf("  - %s %s: %s", formatTime(update.CreatedAt), update.Author, update.Note)
			if update.Progress != nil {
				line += fmt.Sprintf(" (%d%%)", *update.Progress)
			}
			lines = append(lines, line)
		}
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func appendField(lines []string, name, value string) []string {
	if value == "" {
		return lines
	}
	return append(lines, fmt.Sprintf("%s: %s", name, value))
}

func appendSummaries(lines []string, name string, summaries []models.TaskSummary) []string {
	if len(summaries) == 0 {
		return lines
	}
	lines = append(lines, name+":")
	for _, summary := range summaries {
		lines = append(lines, "  - "+summaryLine(summary))
	}
	return lines
}

func criteriaLines(criteria []models.Criterion) []string {
	out := make([]string, 0, len(criteria))
	for _, criterion := range criteria {
		mark := " "
		if criterion.Checked {
			mark = "x"
		}
		line := fmt.Sprintf("  [%s] %s %s", mark, criterion.ID, criterion.Text)
		if criterion.CheckedBy != "" {
			line += " (" + criterion.CheckedBy + ")"
		}
		out = append(out, line)
	}
	return out
}

func summaryLine(summary models.TaskSummary) string {
	return fmt.Sprintf("%s [%s] %s", summary.ID, summary.Status, summary.Title)
}

func historyLine(entry models.HistoryEntry) string {
	from := entry.FromStatus
	if from == "" {
		from = "(new)"
	}
	line := fmt.Sprintf("  - %s %s -> %s by %s", formatTime(entry.ChangedAt), from, entry.ToStatus, entry.ChangedBy)
	if entry.DurationSeconds != nil {
		line += fmt.Sprintf(" after %s", time.Duration(*entry.DurationSeconds)*time.Second)
	}
	return line
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
