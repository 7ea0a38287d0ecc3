package world

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// Room is a graph vertex for one distinct location. The id is content-derived
// (normalized name + open-exit signature), so re-encountering the same
// textual description resolves to the same vertex.
type Room struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Exits       []Exit               `json:"exits,omitempty"`
	Connections map[Direction]string `json:"connections,omitempty"`
	VisitCount  int                  `json:"visit_count"`
}

// Graph is the shared mapping from room id to room, owned by the character
// record. A single coordinator goroutine mutates it; no locking here.
type Graph struct {
	Rooms         map[string]*Room `json:"rooms"`
	CurrentRoomID string           `json:"current_room_id,omitempty"`
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{Rooms: make(map[string]*Room)}
}

// conns returns the room's connection map, allocating it when needed. Rooms
// with no learned edges round-trip through JSON with a nil map, so every
// write site goes through here.
func (r *Room) conns() map[Direction]string {
	if r.Connections == nil {
		r.Connections = make(map[Direction]string)
	}
	return r.Connections
}

// Move is the movement context the builder needs for edge learning and the
// correction pass: the direction just attempted and whether it succeeded.
type Move struct {
	Dir     Direction
	Success bool
}

// RoomID derives the deterministic id for a room. Closed exits are excluded
// from the signature: a door seen open and closed is still the same room.
func RoomID(name string, exits []Exit) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	letters := make([]string, 0, len(exits))
	for _, e := range exits {
		if !e.Closed {
			letters = append(letters, string(e.Dir))
		}
	}
	sort.Strings(letters)
	sum := sha1.Sum([]byte(normalized + "|" + strings.Join(letters, "")))
	return hex.EncodeToString(sum[:])[:12]
}

// Observe updates the graph from a raw session fragment. lastMove, when
// non-nil, is the movement that caused this fragment and drives both edge
// learning and stale-node correction. Returns the resolved room id, or
// ok=false when the fragment did not parse as a room (graph untouched).
func (g *Graph) Observe(fragment string, lastMove *Move) (string, bool) {
	obs := ParseFragment(fragment)
	if obs.Name == "" {
		return "", false
	}

	prevID := g.CurrentRoomID
	id := RoomID(obs.Name, obs.Exits)

	room, exists := g.Rooms[id]
	if !exists {
		room = &Room{
			ID:          id,
			Name:        obs.Name,
			Connections: make(map[Direction]string),
		}
		g.Rooms[id] = room
	}
	room.VisitCount++
	if len(obs.Exits) > 0 {
		room.Exits = obs.Exits
	}

	for _, link := range obs.Links {
		if link.Dark {
			// The direction stays in Exits but we never fabricate a node
			// or a connection for the sentinel.
			continue
		}
		destID := RoomID(link.Destination, nil)
		dest, ok := g.Rooms[destID]
		if !ok {
			dest = &Room{
				ID:          destID,
				Name:        link.Destination,
				Connections: make(map[Direction]string),
				VisitCount:  1,
			}
			g.Rooms[destID] = dest
		}
		room.conns()[link.Dir] = destID
		if _, ok := dest.Connections[link.Dir.Opposite()]; !ok {
			dest.conns()[link.Dir.Opposite()] = id
		}
	}

	if lastMove != nil && lastMove.Success && prevID != "" && prevID != id {
		g.correct(prevID, lastMove.Dir, id)
	}

	g.CurrentRoomID = id
	return id, true
}

// correct rewrites the edge prev --dir--> X after a successful move landed on
// observed instead of the predicted X. The stale prediction is removed when
// nothing else references it: the usual cause is an earlier name-only
// observation that guessed a wrong signature before the exits were known.
func (g *Graph) correct(prevID string, dir Direction, observedID string) {
	prev, ok := g.Rooms[prevID]
	if !ok {
		return
	}
	predicted := prev.Connections[dir]
	if predicted != "" && predicted != observedID {
		if stale, ok := g.Rooms[predicted]; ok && g.unreferenced(stale, prevID) {
			delete(g.Rooms, predicted)
		}
	}
	prev.conns()[dir] = observedID
	if observed, ok := g.Rooms[observedID]; ok {
		if _, taken := observed.Connections[dir.Opposite()]; !taken {
			observed.conns()[dir.Opposite()] = prevID
		}
	}
}

// unreferenced reports whether no room other than exempt links to the node
// and the node itself links nowhere that matters (only back-edges to exempt).
func (g *Graph) unreferenced(node *Room, exemptID string) bool {
	for _, to := range node.Connections {
		if to != exemptID {
			return false
		}
	}
	for _, r := range g.Rooms {
		if r.ID == node.ID || r.ID == exemptID {
			continue
		}
		for _, to := range r.Connections {
			if to == node.ID {
				return false
			}
		}
	}
	return true
}

// Room returns the room for id, or nil.
func (g *Graph) Room(id string) *Room {
	return g.Rooms[id]
}

// Current returns the room the character is believed to be in, or nil.
func (g *Graph) Current() *Room {
	if g.CurrentRoomID == "" {
		return nil
	}
	return g.Rooms[g.CurrentRoomID]
}
