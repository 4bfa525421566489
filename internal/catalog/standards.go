package catalog

import (
	"strconv"
	"strings"

	"github.com/DepParmar/vyom/internal/models"
)

// ParseStandardRange parses a "<start>-<end>" standard range string.
// Either end that fails to parse as an integer defaults to 0, so a
// malformed range such as "abc-5" still admits standard 0 through 5.
func ParseStandardRange(s string) (start, end int) {
	parts := strings.SplitN(s, "-", 2)
	start, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		end, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return start, end
}

// SubjectsFor returns the subject names applicable to the given standard,
// preserving mapping order and dropping duplicate names.
func SubjectsFor(mappings []models.Subject, standard int) []string {
	seen := make(map[string]struct{}, len(mappings))
	var names []string
	for _, m := range mappings {
		start, end := ParseStandardRange(m.StandardRange)
		if standard < start || standard > end {
			continue
		}
		if _, ok := seen[m.Name]; ok {
			continue
		}
		seen[m.Name] = struct{}{}
		names = append(names, m.Name)
	}
	return names
}
