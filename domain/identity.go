// Package domain contains core concepts of the board chat system.
// This file defines Identity entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxDisplayNameLength = 20
	DefaultDisplayName   = "Anonymous"
	FallbackAvatarTag    = "??"
)

// Identity is a registered display name plus its derived id.
// Immutable once created; it outlives any single connection.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarTag   string `json:"avatarTag"`
}

// NormalizeDisplayName trims and truncates a raw display name to
// MaxDisplayNameLength runes. The empty result falls back to
// DefaultDisplayName so registration never fails on whitespace input.
func NormalizeDisplayName(raw string) string {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		name = string([]rune(name)[:MaxDisplayNameLength])
	}
	if name == "" {
		return DefaultDisplayName
	}
	return name
}

// AvatarTag derives the two-letter tag shown next to a display name.
func AvatarTag(displayName string) string {
	runes := []rune(displayName)
	if len(runes) < 2 {
		return FallbackAvatarTag
	}
	return strings.ToUpper(string(runes[:2]))
}
