package model

import "regexp"

type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

var colorHexPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// IsValidColorHex reports whether s is #RRGGBB or #RRGGBBAA.
func IsValidColorHex(s string) bool {
	return colorHexPattern.MatchString(s)
}
