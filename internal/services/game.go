package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

// ActiveWindow is how recently a player must have been seen to count as active.
const ActiveWindow = 5 * time.Minute

var defaultObstacles = []types.Obstacle{
	{X: 300, Y: 300, Width: 120, Height: 80},
	{X: 800, Y: 200, Width: 200, Height: 60},
	{X: 1400, Y: 500, Width: 100, Height: 180},
	{X: 500, Y: 1200, Width: 160, Height: 160},
	{X: 1200, Y: 1500, Width: 240, Height: 70},
	{X: 1700, Y: 1100, Width: 90, Height: 220},
}

type PlayerInput struct {
	ID    string
	Name  string
	Color string
	X     float64
	Y     float64
}

type GameService interface {
	GetWorld(ctx context.Context) (*types.World, error)
	InitWorld(ctx context.Context) (*types.World, error)
	ListPlayers(ctx context.Context) ([]*types.Player, error)
	GetPlayer(ctx context.Context, id string) (*types.Player, error)
	UpsertPlayer(ctx context.Context, in PlayerInput) (*types.Player, error)
	UpdateProfile(ctx context.Context, id string, upd repos.ProfileUpdate) (*types.Player, error)
	DeletePlayer(ctx context.Context, id string) error
}

type gameService struct {
	db      *gorm.DB
	log     *logger.Logger
	players repos.PlayerRepo
	worlds  repos.WorldRepo
	now     func() time.Time
}

func NewGameService(db *gorm.DB, baseLog *logger.Logger, playerRepo repos.PlayerRepo, worldRepo repos.WorldRepo) GameService {
	return &gameService{
		db:      db,
		log:     baseLog.With("service", "GameService"),
		players: playerRepo,
		worlds:  worldRepo,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *gameService) GetWorld(ctx context.Context) (*types.World, error) {
	w, err := s.worlds.Get(ctx, s.db, types.DefaultWorldName)
	if err != nil {
		return nil, err
	}
	if w != nil {
		return w, nil
	}
	return s.InitWorld(ctx)
}

func (s *gameService) InitWorld(ctx context.Context) (*types.World, error) {
	w := &types.World{
		Name:   types.DefaultWorldName,
		Width:  types.DefaultWorldWidth,
		Height: types.DefaultWorldHeight,
	}
	if err := w.SetObstacles(defaultObstacles); err != nil {
		return nil, err
	}
	if err := s.worlds.Save(ctx, s.db, w); err != nil {
		return nil, err
	}
	s.log.Info("world initialized", "name", w.Name, "width", w.Width, "height", w.Height)
	return w, nil
}

func (s *gameService) ListPlayers(ctx context.Context) ([]*types.Player, error) {
	players, err := s.players.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, p := range players {
		p.MarkActivity(now, ActiveWindow)
	}
	return players, nil
}

func (s *gameService) GetPlayer(ctx context.Context, id string) (*types.Player, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apierr.BadRequest("missing_player_id", "player id is required")
	}
	p, err := s.players.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("player_not_found", "player not found")
	}
	p.MarkActivity(s.now(), ActiveWindow)
	return p, nil
}

func (s *gameService) UpsertPlayer(ctx context.Context, in PlayerInput) (*types.Player, error) {
	id := strings.TrimSpace(in.ID)
	name := strings.TrimSpace(in.Name)
	if id == "" || name == "" {
		return nil, apierr.BadRequest("invalid_player", "id and name are required")
	}
	now := s.now()
	p, err := s.players.Upsert(ctx, s.db, &types.Player{
		ID:         id,
		Name:       name,
		Color:      strings.TrimSpace(in.Color),
		X:          in.X,
		Y:          in.Y,
		Level:      1,
		LastActive: now,
	})
	if err != nil {
		return nil, err
	}
	p.MarkActivity(now, ActiveWindow)
	return p, nil
}

func (s *gameService) UpdateProfile(ctx context.Context, id string, upd repos.ProfileUpdate) (*types.Player, error) {
	if _, err := s.GetPlayer(ctx, id); err != nil {
		return nil, err
	}
	if err := s.players.UpdateProfile(ctx, s.db, strings.TrimSpace(id), upd); err != nil {
		return nil, err
	}
	return s.GetPlayer(ctx, id)
}

func (s *gameService) DeletePlayer(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apierr.BadRequest("missing_player_id", "player id is required")
	}
	ok, err := s.players.Delete(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("player_not_found", "player not found")
	}
	return nil
}
