package synthesis

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// DiversityIndex is the share of distinct words across all texts:
// unique lowercase word tokens divided by total tokens, 0 when there are none.
func DiversityIndex(texts []string) float64 {
	total := 0
	unique := make(map[string]struct{})
	for _, text := range texts {
		for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			total++
			unique[word] = struct{}{}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(len(unique)) / float64(total)
}
