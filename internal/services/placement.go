package services

import (
	"math"
	"math/rand"
	"sync"

	types "github.com/kon-rad/juego-sub000/internal/domain"
)

const (
	// SummonOffset is the distance from the player at which a teacher is placed.
	SummonOffset = 80.0
	// WorldMargin keeps summoned teachers away from the world edge.
	WorldMargin     = 40.0
	randomPlacement = 5
)

var summonOffsets = []types.Point{
	{X: SummonOffset, Y: 0},
	{X: -SummonOffset, Y: 0},
	{X: 0, Y: SummonOffset},
	{X: 0, Y: -SummonOffset},
	{X: SummonOffset, Y: SummonOffset},
	{X: -SummonOffset, Y: -SummonOffset},
	{X: SummonOffset, Y: -SummonOffset},
	{X: -SummonOffset, Y: SummonOffset},
}

// Bounds is the playable rectangle [0,Width]x[0,Height].
type Bounds struct {
	Width  float64
	Height float64
}

func DefaultBounds() Bounds {
	return Bounds{Width: types.DefaultWorldWidth, Height: types.DefaultWorldHeight}
}

// Clamp pulls p inside the bounds minus WorldMargin on every side.
func (b Bounds) Clamp(p types.Point) types.Point {
	return types.Point{
		X: clampFloat(p.X, WorldMargin, b.Width-WorldMargin),
		Y: clampFloat(p.Y, WorldMargin, b.Height-WorldMargin),
	}
}

// Placer yields candidate positions around a player.
type Placer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPlacer(seed int64) *Placer {
	return &Placer{rnd: rand.New(rand.NewSource(seed))}
}

// Candidates returns the fixed ring of offsets around origin followed by
// a handful of random positions, all clamped to the world.
func (p *Placer) Candidates(origin types.Point, bounds Bounds) []types.Point {
	out := make([]types.Point, 0, len(summonOffsets)+randomPlacement)
	for _, off := range summonOffsets {
		out = append(out, bounds.Clamp(types.Point{X: origin.X + off.X, Y: origin.Y + off.Y}))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < randomPlacement; i++ {
		out = append(out, types.Point{
			X: WorldMargin + p.rnd.Float64()*math.Max(0, bounds.Width-2*WorldMargin),
			Y: WorldMargin + p.rnd.Float64()*math.Max(0, bounds.Height-2*WorldMargin),
		})
	}
	return out
}

// Distance is the euclidean distance between two points.
func Distance(a, b types.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func clampFloat(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
