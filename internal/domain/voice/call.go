package voice

import (
	"time"

	"github.com/google/uuid"
)

type CallStatus string

const (
	CallInitiating CallStatus = "initiating"
	CallRinging    CallStatus = "ringing"
	CallInProgress CallStatus = "in-progress"
	CallEnded      CallStatus = "ended"
	CallFailed     CallStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s CallStatus) Terminal() bool { return s == CallEnded || s == CallFailed }

func (s CallStatus) rank() int {
	switch s {
	case CallInitiating:
		return 0
	case CallRinging:
		return 1
	case CallInProgress:
		return 2
	case CallEnded, CallFailed:
		return 3
	}
	return -1
}

// CanAdvanceTo reports whether moving from s to next keeps the lifecycle forward-only.
func (s CallStatus) CanAdvanceTo(next CallStatus) bool {
	if next.rank() < 0 || s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

type VapiCall struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProviderCallID string     `gorm:"column:provider_call_id;index" json:"providerCallId,omitempty"`
	PlayerID       string     `gorm:"column:player_id;index" json:"playerId"`
	CharacterID    uuid.UUID  `gorm:"type:uuid;column:character_id;index" json:"characterId"`
	Status         CallStatus `gorm:"not null;column:status" json:"status"`
	PhoneNumber    string     `gorm:"column:phone_number" json:"-"`
	StartedAt      *time.Time `gorm:"column:started_at" json:"startedAt,omitempty"`
	EndedAt        *time.Time `gorm:"column:ended_at" json:"endedAt,omitempty"`
	EndedReason    string     `gorm:"column:ended_reason" json:"endedReason,omitempty"`
	Transcript     string     `gorm:"type:text;column:transcript" json:"transcript,omitempty"`
	Summary        string     `gorm:"type:text;column:summary" json:"summary,omitempty"`
	Cost           float64    `gorm:"column:cost" json:"cost,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (VapiCall) TableName() string { return "vapi_call" }
