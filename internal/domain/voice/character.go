package voice

import (
	"time"

	"github.com/google/uuid"
)

type AICharacter struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" yaml:"-"`
	Name          string    `gorm:"not null;uniqueIndex;column:name" json:"name" yaml:"name"`
	Personality   string    `gorm:"type:text;column:personality" json:"personality" yaml:"personality"`
	SystemPrompt  string    `gorm:"type:text;column:system_prompt" json:"systemPrompt" yaml:"systemPrompt"`
	FirstMessage  string    `gorm:"type:text;column:first_message" json:"firstMessage" yaml:"firstMessage"`
	VoiceProvider string    `gorm:"column:voice_provider" json:"voiceProvider" yaml:"voiceProvider"`
	VoiceID       string    `gorm:"column:voice_id" json:"voiceId" yaml:"voiceId"`
	Model         string    `gorm:"column:model" json:"model" yaml:"model"`
	Color         string    `gorm:"column:color" json:"color" yaml:"color"`
	X             float64   `gorm:"column:x" json:"x" yaml:"x"`
	Y             float64   `gorm:"column:y" json:"y" yaml:"y"`
	IsActive      bool      `gorm:"not null;column:is_active" json:"isActive" yaml:"isActive"`
	CreatedAt     time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt     time.Time `json:"updatedAt" yaml:"-"`
}

func (AICharacter) TableName() string { return "ai_character" }
