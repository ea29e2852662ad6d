package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const maxIDLength = 128

// ValidateUserText validates typed user input.
func ValidateUserText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(text) > 100000 {
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID validates a conversation ID. IDs become NATS subject tokens, so
// only letters, digits, '-' and '_' are accepted.
func ValidateConversationID(id string) error {
	if err := validateToken(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}

// ValidateParticipantID validates the AI participant ID of a session.
func ValidateParticipantID(id string) error {
	if id == "" {
		return nil
	}
	if err := validateToken(id); err != nil {
		return errors.New("invalid participant ID format")
	}
	return nil
}

func validateToken(id string) error {
	if id == "" || len(id) > maxIDLength {
		return errors.New("invalid length")
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return errors.New("invalid character")
		}
	}
	return nil
}
