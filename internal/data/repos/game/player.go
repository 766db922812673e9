package game

import (
	"context"
	"errors"
	"time"

	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileUpdate struct {
	Name      *string
	Color     *string
	Bio       *string
	Interests *string
	Level     *int
}

type PlayerRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, playerID string) (*types.Player, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Player, error)
	Upsert(ctx context.Context, tx *gorm.DB, player *types.Player) (*types.Player, error)
	UpdateProfile(ctx context.Context, tx *gorm.DB, playerID string, upd ProfileUpdate) error
	AddScore(ctx context.Context, tx *gorm.DB, playerID string, delta int64) (int64, bool, error)
	SetWallet(ctx context.Context, tx *gorm.DB, playerID, address, sealedKey string) error
	Delete(ctx context.Context, tx *gorm.DB, playerID string) (bool, error)
}

type playerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlayerRepo(db *gorm.DB, baseLog *logger.Logger) PlayerRepo {
	repoLog := baseLog.With("repo", "PlayerRepo")
	return &playerRepo{db: db, log: repoLog}
}

func (pr *playerRepo) GetByID(ctx context.Context, tx *gorm.DB, playerID string) (*types.Player, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var p types.Player
	if err := transaction.WithContext(ctx).
		Where("id = ?", playerID).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (pr *playerRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Player, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Player
	if err := transaction.WithContext(ctx).
		Order("last_active DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Upsert creates the player on first contact; afterwards it refreshes name, color,
// position and last_active. Score, profile and wallet fields are left alone.
func (pr *playerRepo) Upsert(ctx context.Context, tx *gorm.DB, player *types.Player) (*types.Player, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if player.LastActive.IsZero() {
		player.LastActive = time.Now().UTC()
	}
	if player.Level == 0 {
		player.Level = 1
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "color", "x", "y", "last_active", "updated_at"}),
		}).
		Create(player).Error; err != nil {
		return nil, err
	}
	return pr.GetByID(ctx, transaction, player.ID)
}

func (pr *playerRepo) UpdateProfile(ctx context.Context, tx *gorm.DB, playerID string, upd ProfileUpdate) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	updates := map[string]any{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Color != nil {
		updates["color"] = *upd.Color
	}
	if upd.Bio != nil {
		updates["bio"] = *upd.Bio
	}
	if upd.Interests != nil {
		updates["interests"] = *upd.Interests
	}
	if upd.Level != nil {
		updates["level"] = *upd.Level
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.Player{}).
		Where("id = ?", playerID).
		Updates(updates).Error
}

// AddScore increments the score and returns the new value. The row is locked
// for the read and the increment, so new minus delta is always the prior score.
// found is false when no such player exists.
func (pr *playerRepo) AddScore(ctx context.Context, tx *gorm.DB, playerID string, delta int64) (int64, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var (
		score int64
		found bool
	)
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var rows []types.Player
		if err := txx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "score").
			Where("id = ?", playerID).
			Limit(1).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := txx.Model(&types.Player{}).
			Where("id = ?", playerID).
			Updates(map[string]any{
				"score":       gorm.Expr("score + ?", delta),
				"last_active": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}
		score = rows[0].Score + delta
		found = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return score, found, nil
}

func (pr *playerRepo) SetWallet(ctx context.Context, tx *gorm.DB, playerID, address, sealedKey string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Player{}).
		Where("id = ?", playerID).
		Updates(map[string]any{
			"wallet_address":        address,
			"encrypted_private_key": sealedKey,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (pr *playerRepo) Delete(ctx context.Context, tx *gorm.DB, playerID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	res := transaction.WithContext(ctx).
		Where("id = ?", playerID).
		Delete(&types.Player{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
