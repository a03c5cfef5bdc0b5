// Package keyring keeps opsboard credentials in the OS keyring.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/opsboard/internal/constants"
)

// Entry names a stored credential.
type Entry string

const (
	// EntryDatabase is the Postgres connection string.
	EntryDatabase Entry = constants.DefaultKeyringUser
	// EntryRedis is the Redis password.
	EntryRedis Entry = "redis"
	// EntryWebhook is the notification webhook URL, which usually embeds a token.
	EntryWebhook Entry = "webhook"
)

var (
	// ErrNotFound is returned when no credential is stored under the entry.
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be reached.
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Get returns the credential stored under e.
func Get(e Entry) (string, error) {
	v, err := keyring.Get(constants.AppName, string(e))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

// Set stores value under e.
func Set(e Entry, value string) error {
	if value == "" {
		return fmt.Errorf("%s credential cannot be empty", e)
	}
	if err := keyring.Set(constants.AppName, string(e), value); err != nil {
		return fmt.Errorf("failed to store %s credential in keyring: %w", e, err)
	}
	return nil
}

// Delete removes the credential stored under e.
func Delete(e Entry) error {
	if err := keyring.Delete(constants.AppName, string(e)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s credential from keyring: %w", e, err)
	}
	return nil
}

// Lookup returns the flag value when set, else the keyring entry, else "".
// A missing or unreachable keyring is not an error here.
func Lookup(flagValue string, e Entry) string {
	if flagValue != "" {
		return flagValue
	}
	v, err := Get(e)
	if err != nil {
		return ""
	}
	return v
}

// IsAvailable reports whether the OS keyring answers at all.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
