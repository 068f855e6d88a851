package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "trims whitespace", input: []string{" /files/a.pdf ", "/files/b.pdf"}, expected: []string{"/files/a.pdf", "/files/b.pdf"}},
		{name: "drops blanks and duplicates", input: []string{"a", "", "  ", "a", "b"}, expected: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestAppendNote(t *testing.T) {
	assert.Equal(t, "Manual Approval: ok", AppendNote("", "Manual Approval: ", "ok"))
	assert.Equal(t, "first | Additional Info Requested: NPWP", AppendNote("first", "Additional Info Requested: ", " NPWP "))
	assert.Equal(t, "first", AppendNote("first", "Manual Approval: ", "   "))
}

func TestFirstNonBlank(t *testing.T) {
	assert.Equal(t, "b", FirstNonBlank("", "  ", " b ", "c"))
	assert.Equal(t, "", FirstNonBlank())
}
