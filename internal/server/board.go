package server

import (
	"fmt"
	"sort"
	"strings"

	"taskboard/internal/api"
	"taskboard/internal/models"
)

// buildBoard groups tasks into pipeline columns. tasks must already be in
// priority then creation order. Statuses outside the pipeline get trailing
// columns so nothing stored is hidden.
func buildBoard(project string, pipeline *models.Pipeline, tasks []models.Task) api.BoardResponse {
	resp := api.BoardResponse{
		Outcome:  api.OK(""),
		Project:  project,
		Pipeline: pipeline.Name(),
		Total:    len(tasks),
	}

	index := map[string]int{}
	for _, status := range pipeline.Statuses() {
		index[string(status)] = len(resp.Columns)
		resp.Columns = append(resp.Columns, api.BoardColumn{Status: string(status), Tasks: []models.TaskSummary{}})
	}

	var strays []string
	for _, task := range tasks {
		if _, ok := index[task.Status]; !ok {
			index[task.Status] = -1
			strays = append(strays, task.Status)
		}
	}
	sort.Strings(strays)
	for _, status := range strays {
		index[status] = len(resp.Columns)
		resp.Columns = append(resp.Columns, api.BoardColumn{Status: status, Tasks: []models.TaskSummary{}})
	}

	for _, task := range tasks {
		column := &resp.Columns[index[task.Status]]
		column.Tasks = append(column.Tasks, task.Summary())
		column.Count++
	}

	resp.Text = renderBoard(resp)
	return resp
}

func renderBoard(board api.BoardResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s pipeline, %d tasks)\n", board.Project, board.Pipeline, board.Total)
	for _, column := range board.Columns {
		fmt.Fprintf(&b, "\n%s (%d)\n", strings.ToUpper(column.Status), column.Count)
		if column.Count == 0 {
			b.WriteString("  -\n")
			continue
		}
		for _, task := range column.Tasks {
			fmt.Fprintf(&b, "  %s [P%d] %s", task.ID, task.Priority, task.Title)
			if task.Assignee != "" {
				fmt.Fprintf(&b, " @%s", task.Assignee)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
