package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"peerlearn.app/server/internal/model"
)

const (
	usernameMin     = 3
	usernameMax     = 50
	personNameMax   = 100
	passwordMin     = 8
	passwordMax     = 72 // bcrypt ignores anything longer
	workspaceMinNew = 2
	workspaceMaxNew = 100
	workspaceMaxUpd = 128
	descriptionMax  = 1000
	titleMaxNew     = 256
	titleMaxUpd     = 128
	emailMax        = 255
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func lengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

func validateUsername(username string) error {
	if !lengthBetween(username, usernameMin, usernameMax) || !usernamePattern.MatchString(username) {
		return ErrInvalidUser.WithMessage(fmt.Sprintf(
			"username must be %d-%d characters of letters, digits, '.', '_' or '-'", usernameMin, usernameMax))
	}
	return nil
}

func validatePersonName(field, name string) error {
	if !lengthBetween(name, 1, personNameMax) {
		return ErrInvalidUser.WithMessage(fmt.Sprintf("%s must be 1-%d characters", field, personNameMax))
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > emailMax {
		return "", ErrInvalidUser.WithMessage("email address is invalid")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < passwordMin || len(password) > passwordMax {
		return ErrInvalidUser.WithMessage(fmt.Sprintf("password must be %d-%d characters", passwordMin, passwordMax))
	}
	return nil
}

func validateColor(base *Error, color *string) error {
	if color != nil && !model.IsValidColorHex(*color) {
		return base.WithMessage("color must be #RRGGBB or #RRGGBBAA")
	}
	return nil
}

func validateVisibility(base *Error, v *model.Visibility) error {
	if v != nil && !v.IsValid() {
		return base.WithMessage("visibility must be Public or Private")
	}
	return nil
}
