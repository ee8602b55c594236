package utils

import (
	"math/rand/v2"
	"strings"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// DefaultIDLength is the length of record ids
	DefaultIDLength = 6
	// VersionIDLength is the length of the short id that labels a version
	VersionIDLength = 4
)

// GenerateID returns length characters drawn uniformly from [A-Za-z0-9].
// Ids are opaque resource names, not secrets, and uniqueness is left to the caller.
func GenerateID(length int) string {
	if length <= 0 {
		length = DefaultIDLength
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return b.String()
}

// NewID returns a record id of the default length
func NewID() string {
	return GenerateID(DefaultIDLength)
}

// NewVersionID returns a short version label
func NewVersionID() string {
	return GenerateID(VersionIDLength)
}
