package services

import (
	"testing"

	types "github.com/kon-rad/juego-sub000/internal/domain"
)

func TestCandidatesOrderAndClamp(t *testing.T) {
	p := NewPlacer(1)
	b := DefaultBounds()

	got := p.Candidates(types.Point{X: 500, Y: 500}, b)
	if len(got) != 13 {
		t.Fatalf("len(candidates)=%d, want 13", len(got))
	}
	want := []types.Point{{X: 580, Y: 500}, {X: 420, Y: 500}, {X: 500, Y: 580}, {X: 500, Y: 420}, {X: 580, Y: 580}, {X: 420, Y: 420}, {X: 580, Y: 420}, {X: 420, Y: 580}}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("candidate[%d]=%+v, want %+v", i, got[i], w)
		}
	}
	for i, c := range got {
		if c.X < WorldMargin || c.X > b.Width-WorldMargin || c.Y < WorldMargin || c.Y > b.Height-WorldMargin {
			t.Fatalf("candidate[%d]=%+v outside clamped world", i, c)
		}
	}
}

func TestCandidatesClampNearEdge(t *testing.T) {
	got := NewPlacer(1).Candidates(types.Point{X: 0, Y: 1990}, DefaultBounds())
	if got[0] != (types.Point{X: 80, Y: 1960}) {
		t.Fatalf("candidate[0]=%+v, want {80 1960}", got[0])
	}
	if got[1] != (types.Point{X: 40, Y: 1960}) {
		t.Fatalf("candidate[1]=%+v, want {40 1960}", got[1])
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(types.Point{X: 0, Y: 0}, types.Point{X: 3, Y: 4}); d != 5 {
		t.Fatalf("Distance=%v, want 5", d)
	}
}
