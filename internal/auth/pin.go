// Package auth gates supervisor and operator actions behind bcrypt-hashed PINs.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

var (
	ErrPINRequired  = errors.New("PIN is required")
	ErrPINTooShort  = fmt.Errorf("PIN must be at least %d digits", constants.MinPINLength)
	ErrPINTooLong   = fmt.Errorf("PIN must be at most %d digits", constants.MaxPINLength)
	ErrPINNotDigits = errors.New("PIN must contain digits only")
	ErrPINMismatch  = errors.New("PINs do not match")
	ErrInvalidPIN   = errors.New("invalid PIN")
	// ErrSupervisorPINUnset is returned until `opsboard supervisor pin` has been run.
	ErrSupervisorPINUnset = errors.New("supervisor PIN is not set")
)

// hashCost is lowered in tests.
var hashCost = bcrypt.DefaultCost

// ValidateNewPIN checks a PIN being set and its confirmation.
func ValidateNewPIN(pin, confirm string) error {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return ErrPINRequired
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrPINNotDigits
		}
	}
	if len(pin) < constants.MinPINLength {
		return ErrPINTooShort
	}
	if len(pin) > constants.MaxPINLength {
		return ErrPINTooLong
	}
	if pin != strings.TrimSpace(confirm) {
		return ErrPINMismatch
	}
	return nil
}

// HashPIN validates and hashes a new PIN.
func HashPIN(pin, confirm string) (string, error) {
	if err := ValidateNewPIN(pin, confirm); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(pin)), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}

// CheckPIN compares pin against hash.
func CheckPIN(hash, pin string) error {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return ErrPINRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPIN
		}
		return fmt.Errorf("failed to check PIN: %w", err)
	}
	return nil
}

// VerifySupervisor checks pin against the supervisor hash in settings.
func VerifySupervisor(settings models.Settings, pin string) error {
	if settings.SupervisorPINHash == "" {
		return ErrSupervisorPINUnset
	}
	return CheckPIN(settings.SupervisorPINHash, pin)
}

// VerifyOperator checks pin against the operator's own PIN. Operators
// without a PIN pass.
func VerifyOperator(p models.Profile, pin string) error {
	if !p.HasPIN() {
		return nil
	}
	return CheckPIN(p.PINHash, pin)
}
