package game

import (
	"context"
	"errors"

	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorldRepo interface {
	Get(ctx context.Context, tx *gorm.DB, name string) (*types.World, error)
	Save(ctx context.Context, tx *gorm.DB, world *types.World) error
}

type worldRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorldRepo(db *gorm.DB, baseLog *logger.Logger) WorldRepo {
	repoLog := baseLog.With("repo", "WorldRepo")
	return &worldRepo{db: db, log: repoLog}
}

func (wr *worldRepo) Get(ctx context.Context, tx *gorm.DB, name string) (*types.World, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	var w types.World
	if err := transaction.WithContext(ctx).
		Where("name = ?", name).
		First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (wr *worldRepo) Save(ctx context.Context, tx *gorm.DB, world *types.World) error {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"width", "height", "obstacles", "updated_at"}),
		}).
		Create(world).Error
}
