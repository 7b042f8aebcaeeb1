package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Player represents a roster entry with its current rating
type Player struct {
	PlayerID   int            `json:"player_id" db:"player_id"`
	Name       string         `json:"name" db:"name"`
	Team       sql.NullString `json:"team" db:"team"`
	Rating     int            `json:"rating" db:"rating"`
	Badges     int            `json:"badges" db:"badges"`
	ExternalID sql.NullString `json:"external_id" db:"external_id"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// TeamAlias is an admin-maintained alternate spelling for a canonical team
type TeamAlias struct {
	ID            int            `json:"id" db:"id"`
	Alias         string         `json:"alias" db:"alias"`
	CanonicalName string         `json:"canonical_name" db:"canonical_name"`
	CreatedBy     sql.NullString `json:"created_by" db:"created_by"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// PlayerAlias is a learned or curated alternate spelling for a player
type PlayerAlias struct {
	Alias         string    `json:"alias" db:"alias"`
	CanonicalName string    `json:"canonical_name" db:"canonical_name"`
	UseCount      int       `json:"use_count" db:"use_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	LastUsedAt    time.Time `json:"last_used_at" db:"last_used_at"`
}

// ProcessedEvent marks an external message id as handled
type ProcessedEvent struct {
	ExternalID  string    `json:"external_id" db:"external_id"`
	ProcessedAt time.Time `json:"processed_at" db:"processed_at"`
}

// TradeRecord is the append-only ledger row for an applied trade
type TradeRecord struct {
	MessageID  string          `json:"message_id" db:"message_id"`
	RawText    string          `json:"raw_text" db:"raw_text"`
	Parsed     json.RawMessage `json:"parsed" db:"parsed"`
	Teams      []string        `json:"teams" db:"teams"`
	IsValid    bool            `json:"is_valid" db:"is_valid"`
	ErrorCount int             `json:"error_count" db:"error_count"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Lease is a time-bounded ownership record for a singleton role
type Lease struct {
	Name       string    `json:"name" db:"name"`
	Owner      string    `json:"owner" db:"owner"`
	AcquiredAt time.Time `json:"acquired_at" db:"acquired_at"`
	RenewedAt  time.Time `json:"renewed_at" db:"renewed_at"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
}
