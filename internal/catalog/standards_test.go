package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DepParmar/vyom/internal/models"
)

func TestParseStandardRange(t *testing.T) {
	cases := []struct {
		in    string
		start int
		end   int
	}{
		{"1-5", 1, 5},
		{"abc-5", 0, 5},
		{"3-xyz", 3, 0},
		{"7", 7, 0},
		{"", 0, 0},
		{" 2 - 8 ", 2, 8},
	}
	for _, tc := range cases {
		start, end := ParseStandardRange(tc.in)
		assert.Equal(t, tc.start, start, "start of %q", tc.in)
		assert.Equal(t, tc.end, end, "end of %q", tc.in)
	}
}

func TestSubjectsForFiltersByRange(t *testing.T) {
	mappings := []models.Subject{
		{SchoolID: "s1", Name: "Math", StandardRange: "1-5"},
		{SchoolID: "s1", Name: "Science", StandardRange: "1-5"},
		{SchoolID: "s1", Name: "Sanskrit", StandardRange: "6-8"},
	}

	assert.Equal(t, []string{"Math", "Science"}, SubjectsFor(mappings, 3))
	assert.Equal(t, []string{"Sanskrit"}, SubjectsFor(mappings, 6))
	assert.Empty(t, SubjectsFor(mappings, 9))
}

func TestSubjectsForMalformedRange(t *testing.T) {
	mappings := []models.Subject{{SchoolID: "s1", Name: "Drawing", StandardRange: "abc-5"}}

	assert.Equal(t, []string{"Drawing"}, SubjectsFor(mappings, 0))
	assert.Empty(t, SubjectsFor(mappings, 6))
}

func TestSubjectsForDropsDuplicates(t *testing.T) {
	mappings := []models.Subject{
		{SchoolID: "s1", Name: "Math", StandardRange: "1-5"},
		{SchoolID: "s1", Name: "Math", StandardRange: "3-8"},
	}

	assert.Equal(t, []string{"Math"}, SubjectsFor(mappings, 4))
}
