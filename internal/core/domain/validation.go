package domain

import (
	"fmt"
	"regexp"
)

// Constraints mirrored from §6 connect { player <= 20 chars }.
const (
	MaxPlayerNameLength = 20
)

var (
	// rePlayerName keeps player identities filesystem/log safe — they end
	// up in log file names and search results.
	rePlayerName = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)
)

// Validator defines the bridge for domain-level validation logic.
// This allows for future alternative implementations or mocked validations in tests.
type Validator interface {
	PlayerName(name string) error
	FlagFormat(pattern string) error
}

// DefaultValidator implements FAST's configuration validation rules.
type DefaultValidator struct{}

func (v DefaultValidator) PlayerName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: player name cannot be empty", ErrValidation)
	}
	if len(name) > MaxPlayerNameLength {
		return fmt.Errorf("%w: player name length %d exceeds max %d", ErrValidation, len(name), MaxPlayerNameLength)
	}
	if !rePlayerName.MatchString(name) {
		return fmt.Errorf("%w: player name contains prohibited characters", ErrValidation)
	}
	return nil
}

func (v DefaultValidator) FlagFormat(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("%w: flag_format cannot be empty", ErrValidation)
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%w: flag_format is not a valid regular expression: %v", ErrValidation, err)
	}
	return nil
}

// Internal singleton to handle domain validations.
var domainValidator Validator = DefaultValidator{}

// IsValidPlayerName checks if the string is an acceptable player identity.
func IsValidPlayerName(name string) bool {
	return domainValidator.PlayerName(name) == nil
}
