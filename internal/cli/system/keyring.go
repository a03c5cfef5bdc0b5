package system

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/keyring"
	"github.com/julianstephens/opsboard/internal/storage/postgres"
)

// KeyringSetCmd stores a credential in the OS keyring.
type KeyringSetCmd struct {
	Entry string `arg:"" enum:"database,redis,webhook" help:"Credential to store (database, redis, webhook)."`
	Value string `arg:"" help:"Connection string, password or URL to store."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	entry := keyring.Entry(cmd.Entry)
	if cmd.Entry == "database" {
		entry = keyring.EntryDatabase
		if !postgres.IsConnString(cmd.Value) {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if _, err := postgres.ValidateConnString(cmd.Value); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			fmt.Fprintln(out, "⚠️  Warning: Connection string contains embedded credentials.")
			fmt.Fprintln(out, "   It will be stored as-is in the encrypted OS keyring.")
		}
	}
	if cmd.Entry == "webhook" {
		if u, err := url.Parse(cmd.Value); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New("webhook must be an http(s) URL")
		}
	}

	if err := keyring.Set(entry, cmd.Value); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ %s credential stored successfully in OS keyring\n", cmd.Entry)
	return nil
}

// KeyringGetCmd prints a stored credential with secrets masked.
type KeyringGetCmd struct {
	Entry string `arg:"" enum:"database,redis,webhook" help:"Credential to show."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	v, err := keyring.Get(entryFor(cmd.Entry))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s credential found in keyring. Use 'opsboard keyring set %s' to store one", cmd.Entry, cmd.Entry)
		}
		return err
	}
	out := ctx.Stdout()
	fmt.Fprintf(out, "%s credential retrieved from keyring:\n", cmd.Entry)
	switch cmd.Entry {
	case "redis":
		fmt.Fprintln(out, "****")
	case "webhook":
		fmt.Fprintln(out, maskURL(v))
	default:
		fmt.Fprintln(out, maskPassword(v))
	}
	return nil
}

// KeyringDeleteCmd removes a stored credential.
type KeyringDeleteCmd struct {
	Entry string `arg:"" enum:"database,redis,webhook" help:"Credential to delete."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.Delete(entryFor(cmd.Entry)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s credential found in keyring", cmd.Entry)
		}
		return err
	}
	fmt.Fprintf(ctx.Stdout(), "✓ %s credential deleted from OS keyring\n", cmd.Entry)
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring.
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	if !keyring.IsAvailable() {
		fmt.Fprintln(out, "❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	fmt.Fprintln(out, "✓ OS keyring is available")
	for _, name := range []string{"database", "redis", "webhook"} {
		if _, err := keyring.Get(entryFor(name)); err == nil {
			fmt.Fprintf(out, "✓ %s credential is stored\n", name)
		} else {
			fmt.Fprintf(out, "ℹ No %s credential stored\n", name)
		}
	}
	return nil
}

func entryFor(name string) keyring.Entry {
	switch name {
	case "database":
		return keyring.EntryDatabase
	case "redis":
		return keyring.EntryRedis
	default:
		return keyring.EntryWebhook
	}
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}

	return connStr
}

// maskURL keeps scheme and host and hides the path, which usually carries the token.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "****"
	}
	if u.Path == "" || u.Path == "/" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/****"
}
