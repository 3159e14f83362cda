package db

import (
	"time"
)

// Decision is one side's explicit tri-state answer on a match.
// Pending means "not yet responded" and is never encoded as a nullable bool.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionDeclined Decision = "declined"
)

// Responded reports whether this side has answered at all.
func (d Decision) Responded() bool { return d == DecisionAccepted || d == DecisionDeclined }

// MatchStatus is the derived lifecycle state of a match. It is always
// recomputed from the two Decision fields (see matching.ResolveStatus);
// Converted is the sole exception, set by the project-created transition.
type MatchStatus string

const (
	MatchSuggested MatchStatus = "suggested"
	MatchAccepted  MatchStatus = "accepted"
	MatchRejected  MatchStatus = "rejected"
	MatchConverted MatchStatus = "converted"
)

// Partner capacity tiers.
const (
	CapacityAvailable = "available"
	CapacityLimited   = "limited"
	CapacityFull      = "full"
)

// Brief lifecycle states.
const (
	BriefDraft     = "draft"
	BriefActive    = "active"
	BriefMatching  = "matching"
	BriefCompleted = "completed"
	BriefArchived  = "archived"
)

// User roles.
const (
	RoleClient  = "client"
	RolePartner = "partner"
)

// User table. Clients state their industry at signup; the scoring engine
// compares it against partner industries.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:16;not null"`
	Industry     string `gorm:"size:64"`
	Active       bool   `gorm:"default:true"`
	LastLoginAt  time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Partner is a service-provider capability profile. Long-lived and
// independent of any single match; mutated only via profile edits.
type Partner struct {
	ID             uint64   `gorm:"primaryKey;autoIncrement"`
	UserID         uint64   `gorm:"uniqueIndex;not null"`
	Company        string   `gorm:"size:128;not null"`
	Industry       string   `gorm:"size:64"`
	Services       []string `gorm:"serializer:json"`
	RateMin        uint     `gorm:"not null"`
	RateMax        uint     `gorm:"not null"`
	Capacity       string   `gorm:"size:16;not null;default:available"`
	Rating         float64  `gorm:"not null;default:0"`
	ReviewCount    int      `gorm:"not null;default:0"`
	Verified       bool     `gorm:"default:false"`
	Certifications []string `gorm:"serializer:json"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// AvgRate is the midpoint of the partner's declared hourly rate band.
func (p *Partner) AvgRate() float64 {
	return float64(p.RateMin+p.RateMax) / 2
}

// Brief is a client's stated project request. Immutable once matches have
// been generated, except for externally driven status transitions.
type Brief struct {
	ID            uint64   `gorm:"primaryKey;autoIncrement"`
	ClientID      uint64   `gorm:"index;not null"`
	Title         string   `gorm:"size:160;not null"`
	Description   string   `gorm:"type:text"`
	Modules       []string `gorm:"serializer:json"`
	BudgetMin     uint
	BudgetMax     uint
	TimelineWeeks int
	Priority      string    `gorm:"size:16;default:medium"`
	Status        string    `gorm:"size:16;not null;default:draft"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// Match links exactly one client(+brief) to one partner.
//
// Unique index: (ClientID, PartnerID)
//   - One row per pair; decision recording is find-or-create on this key.
//
// Index: idx_partner_decisions(partner_id, client_decision, partner_decision)
//   - Optimizes the partner-side pending-request queue.
//
// Concurrency: Version guards a compare-and-swap update so the client and
// partner can record decisions on the same row concurrently without a lost
// update. Status is derived from the two Decision fields and never written
// outside the state-transition paths.
type Match struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement"`
	ClientID  uint64  `gorm:"not null;uniqueIndex:idx_client_partner,priority:1"`
	PartnerID uint64  `gorm:"not null;uniqueIndex:idx_client_partner,priority:2;index:idx_partner_decisions,priority:1"`
	BriefID   *uint64 `gorm:"index"`

	Score     int            `gorm:"not null"`
	Breakdown map[string]int `gorm:"serializer:json"`
	Reasons   []string       `gorm:"serializer:json"`

	ClientDecision  Decision    `gorm:"size:16;not null;default:pending;index:idx_partner_decisions,priority:2"`
	PartnerDecision Decision    `gorm:"size:16;not null;default:pending;index:idx_partner_decisions,priority:3"`
	Status          MatchStatus `gorm:"size:16;not null;default:suggested"`

	// Pipeline fields, populated after the match is mutually confirmed.
	ExpectedRevenue     uint64
	ExpectedClosingDate *time.Time
	PartnerNotes        string `gorm:"type:text"`

	Version     uint `gorm:"not null;default:0"`
	RespondedAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// IsParty reports whether the given actor id is one of the two sides of
// this match (the client's user id or the partner profile id).
func (m *Match) IsParty(actorID uint64) bool {
	return m.ClientID == actorID || m.PartnerID == actorID
}

// MutuallyConfirmed reports whether both sides have accepted.
func (m *Match) MutuallyConfirmed() bool {
	return m.ClientDecision == DecisionAccepted && m.PartnerDecision == DecisionAccepted
}
