package patterns

import (
	"sort"

	"incidentops/src/contracts"
)

// Pattern is a group of alerts whose messages normalize to the same key.
type Pattern struct {
	Key     string `json:"key"`
	Count   int    `json:"count"`
	Example string `json:"example"`
	// Line number of the first occurrence.
	FirstLine int `json:"first_line"`
	// Levels seen in the group, in first-seen order.
	Levels []string `json:"levels"`
}

// Group collects alerts into recurrence patterns, most frequent first.
// Ties keep the order of first occurrence.
func Group(alerts []contracts.AlertRecord) []Pattern {
	index := make(map[string]int)
	var groups []Pattern

	for _, a := range alerts {
		key := Key(a.Message)
		i, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, Pattern{
				Key:       key,
				Example:   Normalize(a.Message, MaskPresentation),
				FirstLine: a.LineNumber,
			})
			i = len(groups) - 1
		}
		g := &groups[i]
		g.Count++
		if !contains(g.Levels, a.Level) {
			g.Levels = append(g.Levels, a.Level)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}

// Recurring returns only the patterns seen more than once.
func Recurring(alerts []contracts.AlertRecord) []Pattern {
	var out []Pattern
	for _, p := range Group(alerts) {
		if p.Count > 1 {
			out = append(out, p)
		}
	}
	return out
}

// Counts maps each grouping key to its number of occurrences.
func Counts(messages []string) map[string]int {
	counts := make(map[string]int, len(messages))
	for _, m := range messages {
		counts[Key(m)]++
	}
	return counts
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
