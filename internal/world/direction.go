// Package world builds a navigable room graph out of the session's narrative
// text. There is no grammar for MUD output, so parsing is an ordered set of
// heuristic pattern rules, each producing a typed partial result that the
// graph builder composes.
package world

import (
	"fmt"
	"strings"
)

// Direction is one of the six addressable movement directions. Diagonal and
// exotic directions are rejected at this boundary.
type Direction string

const (
	North Direction = "N"
	South Direction = "S"
	East  Direction = "E"
	West  Direction = "W"
	Up    Direction = "U"
	Down  Direction = "D"
)

var directionWords = map[string]Direction{
	"n": North, "north": North,
	"s": South, "south": South,
	"e": East, "east": East,
	"w": West, "west": West,
	"u": Up, "up": Up,
	"d": Down, "down": Down,
}

var directionNames = map[Direction]string{
	North: "north", South: "south", East: "east",
	West: "west", Up: "up", Down: "down",
}

// ParseDirection maps a command word or letter to a Direction. Anything
// outside the six-direction model (northeast, out, ...) is an error.
func ParseDirection(s string) (Direction, error) {
	d, ok := directionWords[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("not a cardinal direction: %q", s)
	}
	return d, nil
}

// Opposite returns the reverse direction, used for back-edge inference.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	case Down:
		return Up
	}
	return d
}

// Word returns the lowercase full word for the direction.
func (d Direction) Word() string {
	return directionNames[d]
}
