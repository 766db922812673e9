package game

import "time"

// Player is created on first contact; ID is chosen by the client.
type Player struct {
	ID                  string  `gorm:"primaryKey;column:id" json:"id"`
	Name                string  `gorm:"not null;column:name" json:"name"`
	Color               string  `gorm:"column:color" json:"color"`
	X                   float64 `gorm:"not null;default:0;column:x" json:"x"`
	Y                   float64 `gorm:"not null;default:0;column:y" json:"y"`
	Score               int64   `gorm:"not null;default:0;column:score" json:"score"`
	Bio                 string  `gorm:"column:bio" json:"bio,omitempty"`
	Interests           string  `gorm:"column:interests" json:"interests,omitempty"`
	Level               int     `gorm:"not null;default:1;column:level" json:"level"`
	WalletAddress       string  `gorm:"column:wallet_address;index" json:"walletAddress,omitempty"`
	EncryptedPrivateKey string  `gorm:"column:encrypted_private_key" json:"-"`

	LastActive time.Time `gorm:"column:last_active;index" json:"lastActive"`

	// IsActive is derived from LastActive at read time.
	IsActive bool `gorm:"-" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Player) TableName() string { return "player" }

// MarkActivity sets IsActive when LastActive falls within window of now.
func (p *Player) MarkActivity(now time.Time, window time.Duration) {
	if p == nil {
		return
	}
	p.IsActive = !p.LastActive.IsZero() && now.Sub(p.LastActive) <= window
}
