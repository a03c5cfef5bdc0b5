package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/keyring"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone             *string `help:"IANA timezone that fixes the scheduling day and hour."`
	HeartbeatIntervalSec *int    `name:"heartbeat-interval" help:"Seconds between presence beats and recomputes."`
	PresenceTTLSec       *int    `name:"presence-ttl" help:"Heartbeat age in seconds at which an operator drops offline."`
	NotificationsEnabled *bool   `name:"notifications" help:"Enable or disable late notifications."`
	WebhookURL           *string `name:"webhook" help:"Webhook URL for notifications; empty clears it."`
	SnapshotPreserveDays *int    `name:"preserve-days" help:"Prior days frozen before a schedule edit."`
	ActivityLogLimit     *int    `name:"log-limit" help:"Activity entries shown by default."`

	SupervisorPIN string `name:"supervisor-pin" help:"Supervisor PIN, required to change settings." env:"OPSBOARD_SUPERVISOR_PIN"`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := ctx.Stdout()
	if c.List || !c.changes() {
		fmt.Fprintln(out, "Current Settings:")
		fmt.Fprintf(out, "  Timezone:              %s\n", settings.Timezone)
		fmt.Fprintf(out, "  Heartbeat Interval:    %ds\n", settings.HeartbeatIntervalSec)
		fmt.Fprintf(out, "  Presence TTL:          %ds\n", settings.PresenceTTLSec)
		fmt.Fprintf(out, "  Snapshot Preserve:     %d day(s)\n", settings.SnapshotPreserveDays)
		fmt.Fprintf(out, "  Activity Log Limit:    %d\n", settings.ActivityLogLimit)
		fmt.Fprintln(out, "\nNotification Settings:")
		fmt.Fprintf(out, "  Notifications Enabled: %v\n", settings.NotificationsEnabled)
		fmt.Fprintf(out, "  Webhook:               %s\n", webhookSource(settings))
		fmt.Fprintf(out, "  Supervisor PIN:        %s\n", setOrUnset(settings.SupervisorPINHash != ""))
		if !c.List {
			fmt.Fprintln(out, "\nNo changes specified. Use flags to update settings.")
		}
		return nil
	}

	if err := ctx.RequireSupervisor(c.SupervisorPIN); err != nil {
		return err
	}

	var changed []string
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		changed = append(changed, constants.SettingTimezone)
	}
	if c.HeartbeatIntervalSec != nil {
		settings.HeartbeatIntervalSec = *c.HeartbeatIntervalSec
		changed = append(changed, constants.SettingHeartbeatIntervalSec)
	}
	if c.PresenceTTLSec != nil {
		settings.PresenceTTLSec = *c.PresenceTTLSec
		changed = append(changed, constants.SettingPresenceTTLSec)
	}
	if c.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *c.NotificationsEnabled
		changed = append(changed, constants.SettingNotificationsEnabled)
	}
	if c.WebhookURL != nil {
		if *c.WebhookURL != "" {
			if u, err := url.Parse(*c.WebhookURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return errors.New("webhook must be an http(s) URL")
			}
		}
		settings.WebhookURL = *c.WebhookURL
		changed = append(changed, constants.SettingWebhookURL)
	}
	if c.SnapshotPreserveDays != nil {
		settings.SnapshotPreserveDays = *c.SnapshotPreserveDays
		changed = append(changed, constants.SettingSnapshotPreserveDays)
	}
	if c.ActivityLogLimit != nil {
		settings.ActivityLogLimit = *c.ActivityLogLimit
		changed = append(changed, constants.SettingActivityLogLimit)
	}

	if err := validate(settings); err != nil {
		return err
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Recorder().Record(ctx.Context(), cli.SupervisorActor, constants.ActionSettingsUpdated, strings.Join(changed, ", "))
	fmt.Fprintf(out, "✓ Settings updated: %s\n", strings.Join(changed, ", "))
	return nil
}

func (c *SettingsCmd) changes() bool {
	return c.Timezone != nil || c.HeartbeatIntervalSec != nil || c.PresenceTTLSec != nil ||
		c.NotificationsEnabled != nil || c.WebhookURL != nil || c.SnapshotPreserveDays != nil ||
		c.ActivityLogLimit != nil
}

func validate(s models.Settings) error {
	switch {
	case s.HeartbeatIntervalSec <= 0:
		return errors.New("heartbeat interval must be positive")
	case s.PresenceTTLSec < s.HeartbeatIntervalSec:
		return fmt.Errorf("presence TTL (%ds) must be at least the heartbeat interval (%ds)", s.PresenceTTLSec, s.HeartbeatIntervalSec)
	case s.SnapshotPreserveDays < 0:
		return errors.New("preserve days cannot be negative")
	case s.ActivityLogLimit <= 0:
		return errors.New("activity log limit must be positive")
	}
	return nil
}

func webhookSource(s models.Settings) string {
	if s.WebhookURL != "" {
		return "settings"
	}
	if v, err := keyring.Get(keyring.EntryWebhook); err == nil && v != "" {
		return "OS keyring"
	}
	return "none"
}

func setOrUnset(ok bool) string {
	if ok {
		return "set"
	}
	return "not set"
}
