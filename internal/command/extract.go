// Package command pulls structured directives out of the agent's free-form
// reply text. The agent is told to wrap the one command it wants sent to the
// session in a <command> block, and may additionally emit <new_character> and
// <memory> blocks carrying JSON payloads.
package command

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	commandBlockRe   = regexp.MustCompile(`(?s)<command>(.*?)</command>`)
	characterBlockRe = regexp.MustCompile(`(?s)<new_character>(.*?)</new_character>`)
	memoryBlockRe    = regexp.MustCompile(`(?s)<memory>(.*?)</memory>`)
)

// ErrMultiLine is returned when a command block contains more than one
// non-blank line. Ambiguous multi-line output is never partially executed.
var ErrMultiLine = fmt.Errorf("command block contains more than one line")

// Extract returns the single directive found inside a <command> block, or
// ok=false when no block is present. A block spanning more than one non-blank
// line is rejected with ErrMultiLine. The literal aliases "return" and
// "enter" map to a bare newline: the session's pagination prompts expect an
// empty keystroke, not the word.
func Extract(text string) (directive string, ok bool, err error) {
	m := commandBlockRe.FindStringSubmatch(text)
	if m == nil {
		return "", false, nil
	}

	var lines []string
	for _, line := range strings.Split(m[1], "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	switch len(lines) {
	case 0:
		return "", false, nil
	case 1:
	default:
		return "", false, ErrMultiLine
	}

	cmd := lines[0]
	switch strings.ToLower(cmd) {
	case "return", "enter":
		return "\n", true, nil
	}
	return cmd, true, nil
}

// CharacterSheet is the payload of a <new_character> block.
type CharacterSheet struct {
	Name     string `json:"name"`
	Class    string `json:"class,omitempty"`
	Race     string `json:"race,omitempty"`
	Password string `json:"password,omitempty"`
	Level    int    `json:"level,omitempty"`
	Location string `json:"location,omitempty"`
}

// MemoryNote is the payload of a <memory> block.
type MemoryNote struct {
	Summary string `json:"summary"`
	Type    string `json:"type,omitempty"`
}

// MemoryTypes is the closed set of accepted memory categories.
var MemoryTypes = []string{"level_up", "social", "combat", "exploration", "quest", "pathfinding"}

// ExtractCharacter parses a <new_character> block. ok is false when no block
// exists; a present but malformed or name-less payload returns an error so
// the caller can echo it back to the agent.
func ExtractCharacter(text string) (CharacterSheet, bool, error) {
	m := characterBlockRe.FindStringSubmatch(text)
	if m == nil {
		return CharacterSheet{}, false, nil
	}
	var sheet CharacterSheet
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &sheet); err != nil {
		return CharacterSheet{}, true, fmt.Errorf("invalid new_character JSON: %w", err)
	}
	if strings.TrimSpace(sheet.Name) == "" {
		return CharacterSheet{}, true, fmt.Errorf("new_character requires a non-empty name")
	}
	return sheet, true, nil
}

// ExtractMemory parses a <memory> block. The optional type must be one of
// MemoryTypes; anything else is an error naming the allowed set.
func ExtractMemory(text string) (MemoryNote, bool, error) {
	m := memoryBlockRe.FindStringSubmatch(text)
	if m == nil {
		return MemoryNote{}, false, nil
	}
	var note MemoryNote
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &note); err != nil {
		return MemoryNote{}, true, fmt.Errorf("invalid memory JSON: %w", err)
	}
	if strings.TrimSpace(note.Summary) == "" {
		return MemoryNote{}, true, fmt.Errorf("memory requires a non-empty summary")
	}
	if note.Type != "" && !validMemoryType(note.Type) {
		return MemoryNote{}, true, fmt.Errorf("invalid memory type %q, allowed: %s",
			note.Type, strings.Join(MemoryTypes, ", "))
	}
	return note, true, nil
}

func validMemoryType(t string) bool {
	for _, v := range MemoryTypes {
		if t == v {
			return true
		}
	}
	return false
}
