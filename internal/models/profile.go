package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.]{0,31}$`)

// Profile is an operator identity. The supervisor is not a profile; it is gated by a shared PIN.
type Profile struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"` // single glyph
	Color     string    `json:"color,omitempty"`  // lipgloss color tag, e.g. "205" or "#ff5f87"
	PINHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPIN reports whether the operator must enter a PIN to act as themselves.
func (p Profile) HasPIN() bool {
	return p.PINHash != ""
}

// DisplayName falls back to the username when no name is set.
func (p Profile) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.Username
}

func (p *Profile) Validate() error {
	if !usernamePattern.MatchString(p.Username) {
		return fmt.Errorf("invalid username %q: use lowercase letters, digits, '_' or '.'", p.Username)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if len([]rune(p.Avatar)) > 2 {
		return fmt.Errorf("avatar must be a single glyph")
	}
	return nil
}
