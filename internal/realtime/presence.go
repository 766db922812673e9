package realtime

import (
	"sort"
	"sync"
)

// PlayerState is the last position a client reported for a player.
type PlayerState struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Color         string  `json:"color,omitempty"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Direction     string  `json:"direction,omitempty"`
	IsMoving      bool    `json:"isMoving,omitempty"`
	Score         int64   `json:"score,omitempty"`
	WalletAddress string  `json:"walletAddress,omitempty"`
}

// Presence is the in-memory roster of players seen by this process. It is a
// best-effort cache: entries survive disconnects and vanish on restart.
type Presence struct {
	mu      sync.RWMutex
	players map[string]PlayerState
}

func NewPresence() *Presence {
	return &Presence{players: make(map[string]PlayerState)}
}

// Set stores s and reports whether the player was new.
func (p *Presence) Set(s PlayerState) bool {
	if s.ID == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, existed := p.players[s.ID]
	p.players[s.ID] = s
	return !existed
}

func (p *Presence) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.players[id]
	delete(p.players, id)
	return ok
}

func (p *Presence) Get(id string) (PlayerState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.players[id]
	return s, ok
}

// Snapshot returns every entry except the given ids, ordered by id.
func (p *Presence) Snapshot(except ...string) []PlayerState {
	skip := make(map[string]struct{}, len(except))
	for _, id := range except {
		skip[id] = struct{}{}
	}
	p.mu.RLock()
	out := make([]PlayerState, 0, len(p.players))
	for id, s := range p.players {
		if _, ok := skip[id]; ok {
			continue
		}
		out = append(out, s)
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.players)
}
