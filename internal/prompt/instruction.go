// Package prompt composes the fixed instruction prefix that occupies message
// zero of the transcript. It is recomposed before every agent call so the
// character's identity, remembered paths, and memories stay current.
package prompt

import (
	"fmt"
	"strings"

	"mudmind/internal/character"
)

const briefing = `You are playing a character in a multi-user text adventure (MUD) over a live
connection. Text from the game arrives as-is; you reply with exactly one game
command per turn.

Rules:
- Put the one command you want sent to the game inside a <command> block, on a
  single line. Example:
  <command>
  north
  </command>
- To press enter at a pagination or login prompt, use the word "return" or
  "enter" as the command.
- Movement uses the six cardinal commands: north, south, east, west, up, down.
- To create your character, emit a <new_character> block with a JSON object:
  {"name": "...", "class": "...", "race": "...", "password": "...",
   "level": 1, "location": "..."}. Only "name" is required.
- To remember something important, emit a <memory> block with a JSON object:
  {"summary": "...", "type": "..."} where type is one of: level_up, social,
  combat, exploration, quest, pathfinding. A pathfinding memory also saves the
  route you walked since the last one.

The game prompt line looks like:
  <hp/maxhp mv/maxmv exp pct% gold ticks EXITS>
where EXITS are the single letters of the obvious exits (N S E W U D).`

// Compose builds the instruction content for the given character record. A
// nil record yields the bare briefing (used before the first new_character
// directive).
func Compose(rec *character.Record) string {
	var sb strings.Builder
	sb.WriteString(briefing)
	if rec == nil {
		sb.WriteString("\n\nYou have no character yet. Create one with a <new_character> block when the game asks.")
		return sb.String()
	}

	sb.WriteString("\n\nYour character:\n")
	fmt.Fprintf(&sb, "  name: %s\n", rec.Name)
	if rec.Class != "" {
		fmt.Fprintf(&sb, "  class: %s\n", rec.Class)
	}
	if rec.Race != "" {
		fmt.Fprintf(&sb, "  race: %s\n", rec.Race)
	}
	if rec.Level > 0 {
		fmt.Fprintf(&sb, "  level: %d\n", rec.Level)
	}
	if rec.Location != "" {
		fmt.Fprintf(&sb, "  last known location: %s\n", rec.Location)
	}
	if rec.Password != "" {
		fmt.Fprintf(&sb, "  password: %s\n", rec.Password)
	}

	if cur := rec.Graph.Current(); cur != nil {
		fmt.Fprintf(&sb, "\nYou believe you are in: %s (visited %d times)\n", cur.Name, cur.VisitCount)
	}

	if len(rec.Paths) > 0 {
		sb.WriteString("\nKnown paths:\n")
		for _, p := range rec.Paths {
			letters := make([]string, len(p.Directions))
			for i, d := range p.Directions {
				letters[i] = string(d)
			}
			fmt.Fprintf(&sb, "  %s -> %s: %s\n", p.From, p.To, strings.Join(letters, " "))
		}
	}

	if len(rec.Memories) > 0 {
		sb.WriteString("\nYour memories:\n")
		for _, m := range rec.Memories {
			if m.Type != "" {
				fmt.Fprintf(&sb, "  [%s] %s\n", m.Type, m.Summary)
			} else {
				fmt.Fprintf(&sb, "  %s\n", m.Summary)
			}
		}
	}

	return sb.String()
}
