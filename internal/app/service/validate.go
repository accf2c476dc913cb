package service

import (
	"net/mail"

	"credtrack/internal/common"
)

const maxFieldLen = 255

// requireText validates a required free-text field against the shared length
// cap, collecting failures into ve.
func requireText(ve *common.ValidationError, field, value string) {
	if value == "" {
		ve.Add(field, "The "+field+" field is required.")
		return
	}
	if len(value) > maxFieldLen {
		ve.Add(field, "The "+field+" may not be greater than 255 characters.")
	}
}

func validEmail(address string) bool {
	if address == "" || len(address) > maxFieldLen {
		return false
	}
	_, err := mail.ParseAddress(address)
	return err == nil
}

// checkPassword enforces the minimum length and the confirmation match used
// by every password-accepting endpoint.
func checkPassword(ve *common.ValidationError, password, confirmation string) {
	if len(password) < 8 {
		ve.Add("password", "The password must be at least 8 characters.")
	}
	if password != confirmation {
		ve.Add("password", "The password confirmation does not match.")
	}
}
