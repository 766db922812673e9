package teacher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"gorm.io/gorm"
)

var (
	ErrConflict = errors.New("conflict")

	ErrTopicTaken       = fmt.Errorf("%w: a teacher for this topic already exists", ErrConflict)
	ErrPositionOccupied = fmt.Errorf("%w: another teacher is too close", ErrConflict)
)

// Nearby is a teacher with its distance from a query point.
type Nearby struct {
	Teacher  *types.Teacher
	Distance float64
}

type TeacherRepo interface {
	Create(ctx context.Context, tx *gorm.DB, t *types.Teacher) (*types.Teacher, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Teacher, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Teacher, error)
	FindByTopic(ctx context.Context, tx *gorm.DB, topic string) (*types.Teacher, error)
	FindNearest(ctx context.Context, tx *gorm.DB, x, y, radius float64) (*Nearby, error)
	CreateIfClear(ctx context.Context, tx *gorm.DB, t *types.Teacher, radius float64) (*types.Teacher, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type teacherRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeacherRepo(db *gorm.DB, baseLog *logger.Logger) TeacherRepo {
	repoLog := baseLog.With("repo", "TeacherRepo")
	return &teacherRepo{db: db, log: repoLog}
}

func (tr *teacherRepo) Create(ctx context.Context, tx *gorm.DB, t *types.Teacher) (*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	prepare(t)
	if err := transaction.WithContext(ctx).Create(t).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTopicTaken
		}
		return nil, err
	}
	return t, nil
}

func (tr *teacherRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var t types.Teacher
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (tr *teacherRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Teacher
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FindByTopic matches the topic exactly, ignoring case. Bound parameters keep
// regex and LIKE metacharacters in the topic literal.
func (tr *teacherRepo) FindByTopic(ctx context.Context, tx *gorm.DB, topic string) (*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, nil
	}
	var results []*types.Teacher
	if err := transaction.WithContext(ctx).
		Where("lower(topic) = lower(?)", topic).
		Order("created_at ASC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// FindNearest returns the closest teacher strictly within radius of (x, y), or nil.
func (tr *teacherRepo) FindNearest(ctx context.Context, tx *gorm.DB, x, y, radius float64) (*Nearby, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var candidates []*types.Teacher
	if err := transaction.WithContext(ctx).
		Where("x > ? AND x < ? AND y > ? AND y < ?", x-radius, x+radius, y-radius, y+radius).
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	var best *Nearby
	for _, c := range candidates {
		d := math.Hypot(c.X-x, c.Y-y)
		if d >= radius {
			continue
		}
		if best == nil || d < best.Distance {
			best = &Nearby{Teacher: c, Distance: d}
		}
	}
	return best, nil
}

// CreateIfClear inserts t only if its topic is free and no teacher lies within radius.
// Check and insert share one transaction; on postgres the table is locked first so
// concurrent placements serialize.
func (tr *teacherRepo) CreateIfClear(ctx context.Context, tx *gorm.DB, t *types.Teacher, radius float64) (*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	prepare(t)
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if txx.Dialector.Name() == "postgres" {
			if err := txx.Exec("LOCK TABLE teacher IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return fmt.Errorf("lock teacher table: %w", err)
			}
		}
		existing, err := tr.FindByTopic(ctx, txx, t.Topic)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrTopicTaken
		}
		near, err := tr.FindNearest(ctx, txx, t.X, t.Y, radius)
		if err != nil {
			return err
		}
		if near != nil {
			return ErrPositionOccupied
		}
		if err := txx.Create(t).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrTopicTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (tr *teacherRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	res := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Teacher{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func prepare(t *types.Teacher) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Topic = strings.TrimSpace(t.Topic)
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
