package application

import (
	"sort"
	"strings"
)

// KnownCommands is the command set offered in "did you mean" suggestions.
var KnownCommands = []string{"start", "new", "help"}

const (
	suggestionThreshold = 0.5
	maxSuggestions      = 3
)

// SuggestCommands returns the known commands most similar to input, best
// match first, at most maxSuggestions, keeping only matches whose similarity
// reaches suggestionThreshold.
func SuggestCommands(input string, known []string) []string {
	type match struct {
		name  string
		score float64
	}

	input = strings.ToLower(input)

	var matches []match
	for _, cmd := range known {
		if score := similarity(input, cmd); score >= suggestionThreshold {
			matches = append(matches, match{name: cmd, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.name)
	}
	return names
}

func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
