// Package normalizer maps raw remote task records into validated Tasks.
package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/models"
)

// StatusLabeler resolves a custom workflow status id to its display name.
type StatusLabeler interface {
	Label(customStatusID string) (string, bool)
}

// StatusMap is a StatusLabeler over a plain id->name map.
type StatusMap map[string]string

func (m StatusMap) Label(id string) (string, bool) {
	name, ok := m[id]
	return name, ok && name != ""
}

// Normalize converts a raw task. labels may be nil, in which case the raw
// status is used as the label.
func Normalize(raw models.RawTask, labels StatusLabeler) (models.Task, error) {
	if raw.ID == "" {
		return models.Task{}, fmt.Errorf("task without id: %q", raw.Title)
	}

	task := models.Task{
		ID:             raw.ID,
		Title:          raw.Title,
		Permalink:      raw.Permalink,
		Status:         raw.Status,
		StatusLabel:    ResolveStatusLabel(raw.Status, raw.CustomStatusID, labels),
		CustomStatusID: raw.CustomStatusID,
		Importance:     models.ParseImportance(raw.Importance),
	}

	if raw.Dates != nil {
		task.DueType = raw.Dates.Type
		due, err := optionalDate(raw.Dates.Due)
		if err != nil {
			return models.Task{}, fmt.Errorf("task %s due date: %w", raw.ID, err)
		}
		start, err := optionalDate(raw.Dates.Start)
		if err != nil {
			return models.Task{}, fmt.Errorf("task %s start date: %w", raw.ID, err)
		}
		task.Due, task.Start = due, start
	}

	if raw.EffortAllocation != nil && raw.EffortAllocation.TotalEffort > 0 {
		task.EffortMinutes = raw.EffortAllocation.TotalEffort
	}
	task.EffortHours = task.EffortMinutes / 60

	task.Description = SanitizeDescription(raw.Description)
	task.DescriptionPreview = Truncate(task.Description, constants.DescriptionPreviewLen)
	return task, nil
}

// ResolveStatusLabel prefers the custom status name and falls back to the
// raw status, then to "Unknown".
func ResolveStatusLabel(status, customStatusID string, labels StatusLabeler) string {
	if customStatusID != "" && labels != nil {
		if name, ok := labels.Label(customStatusID); ok {
			return name
		}
	}
	if status == "" {
		return "Unknown"
	}
	return status
}

func optionalDate(s string) (*dateutil.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := dateutil.ParsePrefix(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var (
	reBreak       = regexp.MustCompile(`(?i)<br\s*/?>`)
	reParaEnd     = regexp.MustCompile(`(?i)</p>`)
	reHeadingEnd  = regexp.MustCompile(`(?i)</h[1-6]>`)
	reListOpen    = regexp.MustCompile(`(?i)<li[^>]*>`)
	reListClose   = regexp.MustCompile(`(?i)</li>`)
	reTag         = regexp.MustCompile(`<[^>]+>`)
	reTrailingWS  = regexp.MustCompile(`[ \t]+\n`)
	reInlineSpace = regexp.MustCompile(`[ \t]{2,}`)
	reManyBreaks  = regexp.MustCompile(`\n{3,}`)
)

var entityReplacer = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?i)&nbsp;`), " "},
	{regexp.MustCompile(`(?i)&amp;`), "&"},
	{regexp.MustCompile(`(?i)&lt;`), "<"},
	{regexp.MustCompile(`(?i)&gt;`), ">"},
	{regexp.MustCompile(`(?i)&#39;`), "'"},
	{regexp.MustCompile(`(?i)&quot;`), `"`},
}

// SanitizeDescription turns rich-text markup into plain text: block tags
// become line breaks, remaining tags are dropped, the common entities are
// decoded and whitespace runs are collapsed.
func SanitizeDescription(raw string) string {
	text := reBreak.ReplaceAllString(raw, "\n")
	text = reParaEnd.ReplaceAllString(text, "\n\n")
	text = reHeadingEnd.ReplaceAllString(text, "\n")
	text = reListOpen.ReplaceAllString(text, "• ")
	text = reListClose.ReplaceAllString(text, "\n")
	text = reTag.ReplaceAllString(text, " ")
	for _, e := range entityReplacer {
		text = e.re.ReplaceAllString(text, e.with)
	}
	text = reTrailingWS.ReplaceAllString(text, "\n")
	text = reInlineSpace.ReplaceAllString(text, " ")
	text = reManyBreaks.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Truncate shortens text to at most maxLen runes, marking the cut with an
// ellipsis.
func Truncate(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxLen-1])) + "…"
}
