package server

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"taskboard/internal/models"
)

var (
	taskIDRegex       = regexp.MustCompile(`^tk-[0-9a-z]{6}$`)
	initiativeIDRegex = regexp.MustCompile(`^in-[0-9a-z]{6}$`)
	criterionIDRegex  = regexp.MustCompile(`^ac-[0-9a-z]{4}$`)
	projectRegex      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
)

func validateTaskID(id string) bool {
	return taskIDRegex.MatchString(id)
}

func validateInitiativeID(id string) bool {
	return initiativeIDRegex.MatchString(id)
}

func validateCriterionID(id string) bool {
	return criterionIDRegex.MatchString(id)
}

func requireTaskID(id, field string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", badRequestCode(fmt.Errorf("%s is required", field), ErrCodeMissingRequired)
	}
	if !validateTaskID(id) {
		return "", badRequestCode(fmt.Errorf("invalid %s: %s", field, id), ErrCodeInvalidID)
	}
	return id, nil
}

func normalizeProject(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", badRequestCode(fmt.Errorf("project is required"), ErrCodeMissingRequired)
	}
	if !projectRegex.MatchString(value) {
		return "", badRequestCode(fmt.Errorf("invalid project name: %s", value), ErrCodeInvalidArgument)
	}
	return value, nil
}

func normalizeStatus(value string) (string, error) {
	status, err := models.ParseTaskStatus(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidStatus)
	}
	return string(status), nil
}

func validatePriority(value int) error {
	if !models.IsValidPriority(value) {
		return badRequestCode(fmt.Errorf("priority must be between %d and %d", models.PriorityMin, models.PriorityMax), ErrCodeInvalidPriority)
	}
	return nil
}

func validateProgress(value int) error {
	if !models.IsValidProgress(value) {
		return badRequestCode(fmt.Errorf("progress must be between %d and %d", models.ProgressMin, models.ProgressMax), ErrCodeInvalidProgress)
	}
	return nil
}

func normalizeDate(value, field string) (string, error) {
	date, err := models.ParseDueDate(value)
	if err != nil {
		return "", badRequestCode(fmt.Errorf("%s: %w", field, err), ErrCodeInvalidDate)
	}
	return date, nil
}

// normalizeIssue lowercases an issue category. Categories are single tokens.
func normalizeIssue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", badRequestCode(fmt.Errorf("issue category is required"), ErrCodeMissingRequired)
	}
	for _, r := range value {
		if r > unicode.MaxASCII || unicode.IsSpace(r) {
			return "", badRequestCode(fmt.Errorf("issue category must be ascii and non-space"), ErrCodeInvalidArgument)
		}
	}
	return strings.ToLower(value), nil
}

func normalizeIssues(values []string) ([]string, error) {
	issues := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		issue, err := normalizeIssue(value)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[issue]; ok {
			continue
		}
		seen[issue] = struct{}{}
		issues = append(issues, issue)
	}
	sort.Strings(issues)
	return issues, nil
}

// mergeNames trims, drops empties and keeps first occurrence order.
func mergeNames(lists ...[]string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, list := range lists {
		for _, value := range list {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}

func trimmedLines(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

func valueOrEmpty(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return strings.TrimSpace(*ptr)
}
