package services

import (
	"context"
	"testing"
	"time"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	"github.com/kon-rad/juego-sub000/internal/data/repos/testutil"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

func newGameFixture(t *testing.T) (*gameService, repos.PlayerRepo) {
	t.Helper()
	tx := testTx(t)
	log := logger.Nop()
	players := repos.NewPlayerRepo(tx, log)
	svc := NewGameService(tx, log, players, repos.NewWorldRepo(tx, log)).(*gameService)
	return svc, players
}

func TestGetWorldInitializesDefault(t *testing.T) {
	svc, _ := newGameFixture(t)
	ctx := context.Background()

	w, err := svc.GetWorld(ctx)
	if err != nil {
		t.Fatalf("GetWorld: %v", err)
	}
	if w.Name != types.DefaultWorldName || w.Width != types.DefaultWorldWidth || w.Height != types.DefaultWorldHeight {
		t.Fatalf("world=%+v", w)
	}
	obs, err := w.ObstacleList()
	if err != nil || len(obs) != len(defaultObstacles) {
		t.Fatalf("obstacles=%v err=%v", obs, err)
	}
	if _, err := svc.InitWorld(ctx); err != nil {
		t.Fatalf("InitWorld twice: %v", err)
	}
}

func TestUpsertPlayerKeepsScore(t *testing.T) {
	svc, players := newGameFixture(t)
	ctx := context.Background()

	if _, err := svc.UpsertPlayer(ctx, PlayerInput{ID: "p1", Name: "Ada", Color: "#fff", X: 10, Y: 20}); err != nil {
		t.Fatalf("UpsertPlayer: %v", err)
	}
	if _, _, err := players.AddScore(ctx, svc.db, "p1", 7); err != nil {
		t.Fatalf("AddScore: %v", err)
	}
	p, err := svc.UpsertPlayer(ctx, PlayerInput{ID: "p1", Name: "Ada L", X: 30, Y: 40})
	if err != nil {
		t.Fatalf("UpsertPlayer again: %v", err)
	}
	if p.Name != "Ada L" || p.X != 30 || p.Score != 7 || !p.IsActive {
		t.Fatalf("player=%+v", p)
	}
	if _, err := svc.UpsertPlayer(ctx, PlayerInput{ID: "p2"}); apierr.StatusOf(err) != 400 {
		t.Fatalf("UpsertPlayer without name=%v, want 400", err)
	}
}

func TestListPlayersMarksActivity(t *testing.T) {
	svc, _ := newGameFixture(t)
	ctx := context.Background()
	stale := testutil.SeedPlayer(t, ctx, svc.db, "old", 0)
	testutil.SeedPlayer(t, ctx, svc.db, "new", 0)

	svc.now = func() time.Time { return stale.LastActive.Add(ActiveWindow + time.Minute) }
	if err := svc.db.Model(&types.Player{}).Where("id = ?", "new").Update("last_active", svc.now()).Error; err != nil {
		t.Fatalf("touch: %v", err)
	}

	list, err := svc.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	active := map[string]bool{}
	for _, p := range list {
		active[p.ID] = p.IsActive
	}
	if active["old"] || !active["new"] {
		t.Fatalf("activity=%v, want only new active", active)
	}
}

func TestUpdateProfileAndDelete(t *testing.T) {
	svc, _ := newGameFixture(t)
	ctx := context.Background()
	testutil.SeedPlayer(t, ctx, svc.db, "p1", 0)

	bio := "likes maps"
	level := 3
	p, err := svc.UpdateProfile(ctx, "p1", repos.ProfileUpdate{Bio: &bio, Level: &level})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.Bio != bio || p.Level != 3 {
		t.Fatalf("player=%+v", p)
	}
	if _, err := svc.UpdateProfile(ctx, "ghost", repos.ProfileUpdate{Bio: &bio}); apierr.StatusOf(err) != 404 {
		t.Fatalf("UpdateProfile(ghost)=%v, want 404", err)
	}
	if err := svc.DeletePlayer(ctx, "p1"); err != nil {
		t.Fatalf("DeletePlayer: %v", err)
	}
	if _, err := svc.GetPlayer(ctx, "p1"); apierr.StatusOf(err) != 404 {
		t.Fatalf("GetPlayer after delete=%v, want 404", err)
	}
}
