package teacher

import (
	"time"

	"github.com/google/uuid"
)

// SeparationRadius is the minimum distance between two teacher centers.
const SeparationRadius = 100.0

type Teacher struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Topic        string    `gorm:"not null;column:topic" json:"topic"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	SystemPrompt string    `gorm:"type:text;column:system_prompt" json:"systemPrompt"`
	Personality  string    `gorm:"type:text;column:personality" json:"personality"`
	X            float64   `gorm:"not null;column:x" json:"x"`
	Y            float64   `gorm:"not null;column:y" json:"y"`
	Color        string    `gorm:"column:color" json:"color"`
	CreatedBy    string    `gorm:"column:created_by;index" json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Teacher) TableName() string { return "teacher" }

// Persona is the generated character behind a teacher.
type Persona struct {
	Name         string `json:"name"`
	SystemPrompt string `json:"systemPrompt"`
	Personality  string `json:"personality"`
}
