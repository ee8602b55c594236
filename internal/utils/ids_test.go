package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func TestGenerateID(t *testing.T) {
	for _, length := range []int{1, 4, 6, 24} {
		id := GenerateID(length)
		assert.Len(t, id, length)
		assert.Regexp(t, idPattern, id)
	}
}

func TestGenerateIDDefaultsLength(t *testing.T) {
	assert.Len(t, GenerateID(0), DefaultIDLength)
	assert.Len(t, GenerateID(-3), DefaultIDLength)
}

func TestNewIDs(t *testing.T) {
	assert.Len(t, NewID(), 6)
	assert.Len(t, NewVersionID(), 4)
}

func TestGenerateIDUsesWholeAlphabet(t *testing.T) {
	seen := map[rune]bool{}
	for i := 0; i < 2000; i++ {
		for _, r := range GenerateID(DefaultIDLength) {
			seen[r] = true
		}
	}
	assert.Len(t, seen, len(idAlphabet))
}
