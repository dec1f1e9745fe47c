package punishment

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Type is the kind of moderation action taken against a player.
type Type string

const (
	TypeMute Type = "MUTE"
	TypeBan  Type = "BAN"
	TypeKick Type = "KICK"
)

// AllTypes returns every valid punishment type.
func AllTypes() []Type {
	return []Type{TypeMute, TypeBan, TypeKick}
}

// ParseType parses a punishment type from its wire representation.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeMute, TypeBan, TypeKick:
		return Type(s), nil
	}
	return "", fmt.Errorf("invalid punishment type: %q", s)
}

// Punishment is a moderation action against a player. Expiration is an
// epoch-millisecond instant; nil means the punishment is permanent. Backends
// that store "no expiration" differently (sentinel vs NULL) normalize to nil
// before a Punishment leaves the store.
type Punishment struct {
	ID         int64     `json:"id" db:"id"`
	PlayerID   uuid.UUID `json:"playerId" db:"player_id"`
	Type       Type      `json:"type" db:"type"`
	Reason     string    `json:"reason,omitempty" db:"reason"`
	Expiration *int64    `json:"expiration,omitempty" db:"expiration"`
	Issuer     string    `json:"issuer" db:"issuer"`
	IssuedAt   int64     `json:"issuedAt" db:"issued_at"`
}

// Active reports whether the punishment is in force at the given instant.
func (p *Punishment) Active(now time.Time) bool {
	return p.Expiration == nil || *p.Expiration > now.UnixMilli()
}

// Expired reports whether the punishment has a set expiration in the past.
func (p *Punishment) Expired(now time.Time) bool {
	return p.Expiration != nil && *p.Expiration <= now.UnixMilli()
}

// AuditDetails carries the structured sub-facts of an audit entry. The
// legacy storage format was a single formatted string; the sub-facts are now
// first-class fields, with Render preserving the old text byte-for-byte for
// external reports that still pattern-match it.
type AuditDetails struct {
	PunishmentID int64  `json:"punishmentId" bson:"punishment_id"`
	Reason       string `json:"reason" bson:"reason"`
	Duration     string `json:"duration" bson:"duration"`
}

// Render produces the legacy single-line details text.
func (d AuditDetails) Render() string {
	reason := d.Reason
	if reason == "" {
		reason = "None"
	}
	return fmt.Sprintf("ID: %d, Reason: %s, Duration: %s", d.PunishmentID, reason, d.Duration)
}

var detailsPattern = regexp.MustCompile(`^ID: (\d+), Reason: (.*), Duration: (.*)$`)

// ParseAuditDetails recovers the structured sub-facts from legacy details
// text. Unparseable text lands in Reason so nothing is dropped on read.
func ParseAuditDetails(s string) AuditDetails {
	m := detailsPattern.FindStringSubmatch(s)
	if m == nil {
		return AuditDetails{Reason: s}
	}
	id, _ := strconv.ParseInt(m[1], 10, 64)
	reason := m[2]
	if reason == "None" {
		reason = ""
	}
	return AuditDetails{PunishmentID: id, Reason: reason, Duration: m[3]}
}

// AuditEntry is an append-only record of a moderation action. It outlives
// the punishment it describes.
type AuditEntry struct {
	ID        int64        `json:"id"`
	Action    string       `json:"action"`
	Moderator string       `json:"moderator"`
	Target    string       `json:"target"`
	Details   AuditDetails `json:"details"`
	Timestamp int64        `json:"timestamp"`
}

// Evidence is a free-text attachment linked to a punishment by id. Evidence
// is never updated after creation and is not cascaded when its punishment is
// removed.
type Evidence struct {
	ID           int64  `json:"id"`
	PunishmentID int64  `json:"punishmentId"`
	Content      string `json:"evidence"`
}
