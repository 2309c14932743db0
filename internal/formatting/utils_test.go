package formatting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"fits", "short", 10, "short"},
		{"cut", "abcdefghijklmnop", 10, "abcdefg..."},
		{"runes", "äöüäöüäöüäöü", 10, "äöüäöüä..."},
		{"multiline override", "Milestone operation\n- delete:  Remove", 40, "Milestone operation - delete: Remove"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.input, tt.max))
		})
	}
}
