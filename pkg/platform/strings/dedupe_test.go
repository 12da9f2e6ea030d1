package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"type", "year"}, DedupeAndTrim([]string{" type ", "year", "type", "", "  "}))
	assert.Empty(t, DedupeAndTrim([]string{" ", ""}))
	assert.Nil(t, DedupeAndTrim(nil))
}
