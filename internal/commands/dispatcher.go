// Package commands executes elevated moderation commands against the store.
// It is the dispatch target for the commands API endpoint and renders results
// as user-facing text.
package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tangled.org/briar.gg/briar/internal/metrics"
	"tangled.org/briar.gg/briar/internal/punishment"
	"tangled.org/briar.gg/briar/internal/webhook"
)

// ConsoleIssuer is recorded as the issuer for commands dispatched over the
// API, which runs with elevated privilege and no player identity.
const ConsoleIssuer = "Console"

// Dispatcher parses and executes command lines against the store.
type Dispatcher struct {
	store    punishment.Store
	notifier *webhook.Notifier

	now func() time.Time
}

// NewDispatcher creates a Dispatcher. notifier may be nil when webhook
// delivery is not configured.
func NewDispatcher(store punishment.Store, notifier *webhook.Notifier) *Dispatcher {
	return &Dispatcher{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Dispatch executes a single command line and returns user-facing result
// text. Unknown commands and malformed arguments are errors.
func (d *Dispatcher) Dispatch(ctx context.Context, command string) (string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty command")
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	metrics.CommandsDispatchedTotal.WithLabelValues(name).Inc()

	switch name {
	case "mute":
		return d.mute(ctx, args)
	case "unmute":
		return d.unmute(ctx, args)
	case "rollback":
		return d.rollback(ctx, args)
	default:
		return "", fmt.Errorf("unknown command %q", name)
	}
}

// mute <player-uuid> [duration] [reason...]
func (d *Dispatcher) mute(ctx context.Context, args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("usage: mute <player> [duration] [reason]")
	}

	playerID, err := uuid.Parse(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid player uuid %q", args[0])
	}

	duration := punishment.Permanent
	reasonArgs := args[1:]
	if len(args) >= 2 {
		if _, _, err := punishment.ParseDuration(args[1]); err == nil {
			duration = args[1]
			reasonArgs = args[2:]
		}
	}
	reason := strings.Join(reasonArgs, " ")

	now := d.now()
	expiration, err := punishment.ExpirationFrom(now, duration)
	if err != nil {
		return "", err
	}

	// Check-then-insert: a concurrent mute for the same player can slip
	// between these two calls. Accepted; the loser's mute simply coexists
	// until removed.
	existing, err := d.store.GetActivePunishment(ctx, playerID, punishment.TypeMute)
	if err != nil {
		return "", fmt.Errorf("check existing mute: %w", err)
	}
	if existing != nil {
		return fmt.Sprintf("%s is already muted (ID: %d). Use unmute first if you want to change the mute.", playerID, existing.ID), nil
	}

	p := punishment.Punishment{
		PlayerID:   playerID,
		Type:       punishment.TypeMute,
		Reason:     reason,
		Expiration: expiration,
		Issuer:     ConsoleIssuer,
		IssuedAt:   now.UnixMilli(),
	}
	id, err := d.store.AddPunishment(ctx, p)
	if err != nil {
		return "", fmt.Errorf("add punishment: %w", err)
	}
	p.ID = id
	metrics.PunishmentsIssuedTotal.WithLabelValues(string(punishment.TypeMute)).Inc()

	d.audit(ctx, "MUTE", playerID.String(), punishment.AuditDetails{
		PunishmentID: id,
		Reason:       reason,
		Duration:     punishment.DescribeExpiration(now, expiration),
	})
	if d.notifier != nil {
		d.notifier.SendPunishment(ctx, p)
	}

	return fmt.Sprintf("You have muted %s %s (ID: %d)", playerID, punishment.DescribeExpiration(now, expiration), id), nil
}

// unmute <player-uuid>
func (d *Dispatcher) unmute(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: unmute <player>")
	}

	playerID, err := uuid.Parse(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid player uuid %q", args[0])
	}

	removed, err := d.store.RemovePunishment(ctx, playerID, punishment.TypeMute)
	if err != nil {
		return "", fmt.Errorf("remove punishment: %w", err)
	}
	if !removed {
		return fmt.Sprintf("%s is not muted.", playerID), nil
	}
	metrics.PunishmentsRemovedTotal.WithLabelValues(string(punishment.TypeMute)).Inc()

	d.audit(ctx, "UNMUTE", playerID.String(), punishment.AuditDetails{})

	return fmt.Sprintf("You have unmuted %s.", playerID), nil
}

// rollback <moderator> <period> [MUTE|BAN|KICK|ALL]
func (d *Dispatcher) rollback(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: rollback <moderator> <period> [type]")
	}

	moderator := args[0]
	window, permanent, err := punishment.ParseDuration(args[1])
	if err != nil || permanent {
		return "", fmt.Errorf("invalid rollback period %q", args[1])
	}

	var typeFilter *punishment.Type
	if len(args) >= 3 && !strings.EqualFold(args[2], "ALL") {
		t, err := punishment.ParseType(args[2])
		if err != nil {
			return "", fmt.Errorf("invalid punishment type %q, use MUTE, BAN, KICK, or ALL", args[2])
		}
		typeFilter = &t
	}

	since := d.now().Add(-window).UnixMilli()
	rolledBack, err := d.store.RollbackPunishments(ctx, moderator, since, typeFilter)
	if err != nil {
		return "", fmt.Errorf("rollback punishments: %w", err)
	}
	if len(rolledBack) == 0 {
		return "No punishments found to rollback.", nil
	}
	metrics.PunishmentsRolledBackTotal.Add(float64(len(rolledBack)))

	d.audit(ctx, "ROLLBACK", moderator, punishment.AuditDetails{
		Reason: fmt.Sprintf("Rolled back %d punishments", len(rolledBack)),
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Rolled back %d punishments:", len(rolledBack))
	for _, p := range rolledBack {
		fmt.Fprintf(&b, "\n- %s for %s issued at %s", p.Type, p.PlayerID, time.UnixMilli(p.IssuedAt).UTC().Format(time.RFC3339))
	}
	return b.String(), nil
}

// audit records an audit entry. Audit failure never fails the command that
// already succeeded.
func (d *Dispatcher) audit(ctx context.Context, action, target string, details punishment.AuditDetails) {
	entry := punishment.AuditEntry{
		Action:    action,
		Moderator: ConsoleIssuer,
		Target:    target,
		Details:   details,
		Timestamp: d.now().UnixMilli(),
	}
	if _, err := d.store.AddAuditEntry(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", action).Msg("commands: write audit entry")
	}
}
