package idgen

import (
	"github.com/google/uuid"
)

// ID prefixes for different identifiers
const (
	PrefixCall     = "call_"
	PrefixPlayback = "play_"
)

// NewCall generates a new call ID with call_ prefix
func NewCall() string {
	return PrefixCall + uuid.New().String()
}

// NewPlayback generates a new playback ID with play_ prefix
func NewPlayback() string {
	return PrefixPlayback + uuid.New().String()
}

// New generates a generic UUID without prefix (for request IDs)
func New() string {
	return uuid.New().String()
}
