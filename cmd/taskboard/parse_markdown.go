package main

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"taskboard/internal/api"
)

var (
	listItemRegex = regexp.MustCompile(`^\s*[-*]\s+(?:\[[ xX]\]\s+)?(.*)$`)
	headingRegex  = regexp.MustCompile(`^#\s+(.*)$`)
)

// taskFrontMatter lists the task fields a document may set in its header.
type taskFrontMatter struct {
	Project    string `yaml:"project"`
	Parent     string `yaml:"parent"`
	Title      string `yaml:"title"`
	Priority   *int   `yaml:"priority"`
	Status     string `yaml:"status"`
	Assignee   string `yaml:"assignee"`
	DueDate    string `yaml:"due_date"`
	Branch     string `yaml:"branch"`
	PRURL      string `yaml:"pr_url"`
	SpecFile   string `yaml:"spec_file"`
	DesignFile string `yaml:"design_file"`
}

// parseMarkdown decodes the YAML front matter into frontMatter and splits the
// body into list items and the remaining prose.
func parseMarkdown(input string, frontMatter any) ([]string, []string, error) {
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	if len(lines) >= 2 && strings.TrimSpace(lines[0]) == "---" {
		end := -1
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "---" {
				end = i
				break
			}
		}
		if end == -1 {
			return nil, nil, fmt.Errorf("front matter not closed")
		}
		frontText := strings.Join(lines[1:end], "\n")
		if err := yaml.Unmarshal([]byte(frontText), frontMatter); err != nil {
			return nil, nil, fmt.Errorf("parse front matter: %w", err)
		}
		lines = lines[end+1:]
	}

	items := []string{}
	prose := []string{}
	for _, line := range lines {
		if match := listItemRegex.FindStringSubmatch(line); len(match) == 2 {
			if item := strings.TrimSpace(match[1]); item != "" {
				items = append(items, item)
			}
			continue
		}
		prose = append(prose, line)
	}

	return items, prose, nil
}

// parseTaskDocument builds a create request from a markdown document. A
// leading "# heading" supplies the title when the front matter has none.
func parseTaskDocument(input string) (api.TaskCreateRequest, error) {
	var fields taskFrontMatter
	items, prose, err := parseMarkdown(input, &fields)
	if err != nil {
		return api.TaskCreateRequest{}, err
	}

	title := strings.TrimSpace(fields.Title)
	var description []string
	for _, line := range prose {
		if match := headingRegex.FindStringSubmatch(strings.TrimSpace(line)); len(match) == 2 && title == "" {
			title = strings.TrimSpace(match[1])
			continue
		}
		description = append(description, line)
	}

	return api.TaskCreateRequest{
		Project:            fields.Project,
		ParentTaskID:       fields.Parent,
		Title:              title,
		Description:        strings.TrimSpace(strings.Join(description, "\n")),
		Priority:           fields.Priority,
		Status:             fields.Status,
		Assignee:           fields.Assignee,
		DueDate:            fields.DueDate,
		Branch:             fields.Branch,
		PRURL:              fields.PRURL,
		SpecFile:           fields.SpecFile,
		DesignFile:         fields.DesignFile,
		AcceptanceCriteria: items,
	}, nil
}
