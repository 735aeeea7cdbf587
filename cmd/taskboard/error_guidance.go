package main

import (
	"context"
	"errors"
	"net"

	"taskboard/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "invalid_transition":
			lines = append(lines, "hint: run `taskboard info` to see each pipeline's status order.")
		case "dependency_cycle":
			lines = append(lines, "hint: remove one edge of the cycle with: taskboard dep remove <task> <depends-on>")
		case "corrupt_data":
			lines = append(lines, "hint: a stored field could not be parsed; replace it (for criteria: taskboard criteria set).")
		case "resource_exhausted":
			lines = append(lines, "hint: retry shortly or reduce concurrent search requests.")
		}
		if apiErr.ErrorCode == errCodeOpenSubtasks {
			lines = append(lines, "hint: finish or detach the open subtasks first (taskboard list --parent <id>).")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify TASKBOARD_API_URL points to a taskboard server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase TASKBOARD_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a taskboard server is running at TASKBOARD_API_URL.",
			"hint: start local server manually with: taskboard srv",
			"hint: you can increase TASKBOARD_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

// errCodeOpenSubtasks mirrors the server's numeric code for the done guard.
const errCodeOpenSubtasks = 2011

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
