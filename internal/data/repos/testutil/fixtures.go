package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"gorm.io/gorm"
)

func SeedPlayer(tb testing.TB, ctx context.Context, tx *gorm.DB, id string, score int64) *types.Player {
	tb.Helper()
	p := &types.Player{
		ID:         id,
		Name:       "player-" + id,
		Color:      "#ff0000",
		X:          100,
		Y:          100,
		Score:      score,
		Level:      1,
		LastActive: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed player: %v", err)
	}
	return p
}

func SeedTeacher(tb testing.TB, ctx context.Context, tx *gorm.DB, topic string, x, y float64) *types.Teacher {
	tb.Helper()
	t := &types.Teacher{
		ID:    uuid.New(),
		Topic: topic,
		Name:  topic + " Master",
		X:     x,
		Y:     y,
		Color: "#00ff00",
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed teacher: %v", err)
	}
	return t
}
