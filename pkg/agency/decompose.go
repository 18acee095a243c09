package agency

import (
	"regexp"
	"strings"
)

// subTaskLine matches the informal numbered sub-task shape
// "N. Domain (Technology) - Description". Only the leading number is
// structural; the rest of the line becomes the task description.
var subTaskLine = regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`)

// Decompose splits a directive into sub-task descriptions. A directive
// without numbered lines is a single task.
func Decompose(directive string) []string {
	var tasks []string
	for _, line := range strings.Split(directive, "\n") {
		if m := subTaskLine.FindStringSubmatch(line); m != nil {
			if desc := strings.TrimSpace(m[1]); desc != "" {
				tasks = append(tasks, desc)
			}
		}
	}
	if len(tasks) == 0 {
		if trimmed := strings.TrimSpace(directive); trimmed != "" {
			tasks = append(tasks, trimmed)
		}
	}
	return tasks
}
