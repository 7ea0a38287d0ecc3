// Package character holds the aggregate record for one played character:
// identity, the room graph, recent movements, remembered paths, and free-text
// memories. The record is mutated only by the coordinator goroutine and
// persisted through the Store interface after every mutation.
package character

import (
	"context"
	"errors"
	"time"

	"mudmind/internal/world"
)

const (
	// MaxMovements bounds the movement ring; oldest entries are evicted.
	MaxMovements = 50
	// MaxPaths bounds the remembered path list.
	MaxPaths = 20
	// MaxMemories bounds the free-text memory list.
	MaxMemories = 20
)

// MoveResult records whether a movement attempt worked.
type MoveResult string

const (
	MoveSuccess MoveResult = "success"
	MoveFailed  MoveResult = "failed"
)

// Movement is one attempted move, kept in a bounded ring of the most recent
// MaxMovements entries.
type Movement struct {
	Dir    world.Direction `json:"dir"`
	Result MoveResult      `json:"result"`
	At     time.Time       `json:"at"`
}

// Path is a remembered route between two named places. Conceptually keyed by
// (From, To): recording again for the same pair replaces the directions.
type Path struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Directions []world.Direction `json:"directions"`
}

// Memory is one free-text note the agent chose to keep.
type Memory struct {
	Summary string    `json:"summary"`
	Type    string    `json:"type,omitempty"`
	At      time.Time `json:"at"`
}

// Record is the aggregate root for a character. Created on the first
// new-character directive and never deleted by this core.
type Record struct {
	Name     string `json:"name"`
	Class    string `json:"class,omitempty"`
	Race     string `json:"race,omitempty"`
	Password string `json:"password,omitempty"`
	Level    int    `json:"level,omitempty"`
	Location string `json:"location,omitempty"`

	Graph     *world.Graph `json:"graph"`
	Movements []Movement   `json:"movements,omitempty"`
	Paths     []Path       `json:"paths,omitempty"`
	Memories  []Memory     `json:"memories,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a fresh record with an empty graph.
func New(name string) *Record {
	now := time.Now().UTC()
	return &Record{
		Name:      name,
		Graph:     world.NewGraph(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordMovement appends to the movement ring, evicting the oldest entry
// beyond MaxMovements.
func (r *Record) RecordMovement(dir world.Direction, result MoveResult) {
	r.Movements = append(r.Movements, Movement{Dir: dir, Result: result, At: time.Now().UTC()})
	if len(r.Movements) > MaxMovements {
		r.Movements = r.Movements[len(r.Movements)-MaxMovements:]
	}
	r.touch()
}

// LastMovement returns the most recent movement, or nil.
func (r *Record) LastMovement() *Movement {
	if len(r.Movements) == 0 {
		return nil
	}
	return &r.Movements[len(r.Movements)-1]
}

// AddPath records a route. An existing (from, to) entry is replaced in place,
// keeping its insertion-order position; a genuinely new pair may evict the
// oldest entry.
func (r *Record) AddPath(from, to string, directions []world.Direction) {
	dirs := make([]world.Direction, len(directions))
	copy(dirs, directions)
	for i := range r.Paths {
		if r.Paths[i].From == from && r.Paths[i].To == to {
			r.Paths[i].Directions = dirs
			r.touch()
			return
		}
	}
	r.Paths = append(r.Paths, Path{From: from, To: to, Directions: dirs})
	if len(r.Paths) > MaxPaths {
		r.Paths = r.Paths[len(r.Paths)-MaxPaths:]
	}
	r.touch()
}

// AddMemory appends a free-text memory, evicting the oldest beyond
// MaxMemories.
func (r *Record) AddMemory(summary, memType string) {
	r.Memories = append(r.Memories, Memory{Summary: summary, Type: memType, At: time.Now().UTC()})
	if len(r.Memories) > MaxMemories {
		r.Memories = r.Memories[len(r.Memories)-MaxMemories:]
	}
	r.touch()
}

func (r *Record) touch() {
	r.UpdatedAt = time.Now().UTC()
}

// ErrNotFound is returned by Store.Load when no record exists for the name.
var ErrNotFound = errors.New("character not found")

// Store persists character records. Implementations must be durable before
// returning nil from Save: the coordinator will not acknowledge success to
// the agent otherwise.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, name string) (*Record, error)
}
