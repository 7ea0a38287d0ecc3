package world

import (
	"regexp"
	"strings"
)

// MatchKind tags the partial result a single rule produced.
type MatchKind int

const (
	MatchUnmatched MatchKind = iota
	MatchRoomHeading
	MatchExitList
	MatchVerboseExits
	MatchStatusLine
)

// Exit is one leaving direction of a room. Closed marks a parenthesized exit
// letter (a closed door): shown to the agent but excluded from the room's
// identifying signature.
type Exit struct {
	Dir    Direction `json:"dir"`
	Closed bool      `json:"closed,omitempty"`
}

// ExitLink is one line of a verbose exits block: a direction and the name of
// what lies that way. Dark marks the sentinel for destinations that cannot be
// determined due to darkness.
type ExitLink struct {
	Dir         Direction
	Destination string
	Dark        bool
}

// Match is the typed partial result of one rule.
type Match struct {
	Kind    MatchKind
	Heading string
	Exits   []Exit
	Links   []ExitLink
}

// darkSentinel is the destination phrase MUDs print when the far side of an
// exit cannot be seen. It never produces a connection or a node.
const darkSentinel = "too dark to tell"

var (
	// A proper-noun heading: short line of capitalized words (connectives
	// allowed), no trailing punctuation.
	headingRe = regexp.MustCompile(`^[A-Z][A-Za-z'-]*(?:\s+(?:of|the|in|at|on|a|an|and|to|[A-Z][A-Za-z'-]*))*$`)

	// Inline exit token: "Exits:NE(W)D" or "Exits: N E (W)".
	exitListRe = regexp.MustCompile(`(?i)^\s*exits?:\s*([NSEWUD()\s,]+?)\s*$`)

	// Verbose block header plus "North - Temple Square" lines.
	verboseHeaderRe = regexp.MustCompile(`(?i)^\s*obvious exits\s*:?\s*$`)
	verboseLineRe   = regexp.MustCompile(`(?i)^\s*(north|south|east|west|up|down)\s*-\s*(.+?)\s*$`)

	// Prompt/status line, e.g. "<20/20hp 100/100mv 12xp 40% 3g 5t NE>"; only
	// the trailing exit letters are reused here.
	statusLineRe = regexp.MustCompile(`^<.*?\b([NSEWUD]{1,6})>\s*$`)

	blockedRe = regexp.MustCompile(`(?i)you can't go that way|alas, you cannot go|there is no exit|the (?:door|gate) is closed|you cannot go that way`)
)

// rule inspects the fragment's lines starting at index i and reports a typed
// match plus how many lines it consumed (0 when unmatched).
type rule func(lines []string, i int) (Match, int)

// rules are tried in order; the first match at a line wins. Verbose blocks
// are checked before the inline token so the header line is not eaten as an
// unmatched heading candidate.
var rules = []rule{matchVerboseExits, matchExitList, matchStatusLine, matchRoomHeading}

func matchRoomHeading(lines []string, i int) (Match, int) {
	line := strings.TrimSpace(lines[i])
	if line == "" || len(line) > 60 {
		return Match{}, 0
	}
	if !headingRe.MatchString(line) {
		return Match{}, 0
	}
	return Match{Kind: MatchRoomHeading, Heading: line}, 1
}

func matchExitList(lines []string, i int) (Match, int) {
	m := exitListRe.FindStringSubmatch(lines[i])
	if m == nil {
		return Match{}, 0
	}
	exits := parseExitLetters(m[1])
	if len(exits) == 0 {
		return Match{}, 0
	}
	return Match{Kind: MatchExitList, Exits: exits}, 1
}

func matchStatusLine(lines []string, i int) (Match, int) {
	m := statusLineRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
	if m == nil {
		return Match{}, 0
	}
	exits := parseExitLetters(m[1])
	if len(exits) == 0 {
		return Match{}, 0
	}
	return Match{Kind: MatchStatusLine, Exits: exits}, 1
}

func matchVerboseExits(lines []string, i int) (Match, int) {
	if !verboseHeaderRe.MatchString(lines[i]) {
		return Match{}, 0
	}
	match := Match{Kind: MatchVerboseExits}
	consumed := 1
	for j := i + 1; j < len(lines); j++ {
		lm := verboseLineRe.FindStringSubmatch(lines[j])
		if lm == nil {
			break
		}
		dir, err := ParseDirection(lm[1])
		if err != nil {
			break
		}
		dest := strings.TrimSpace(lm[2])
		link := ExitLink{
			Dir:         dir,
			Destination: dest,
			Dark:        strings.EqualFold(dest, darkSentinel),
		}
		match.Links = append(match.Links, link)
		match.Exits = append(match.Exits, Exit{Dir: dir})
		consumed++
	}
	if len(match.Links) == 0 {
		return Match{}, 0
	}
	return match, consumed
}

// parseExitLetters reads a compact letter list, honoring parentheses as the
// closed-door marker.
func parseExitLetters(s string) []Exit {
	var exits []Exit
	seen := map[Direction]bool{}
	closed := false
	for _, r := range strings.ToUpper(s) {
		switch r {
		case '(':
			closed = true
		case ')':
			closed = false
		case 'N', 'S', 'E', 'W', 'U', 'D':
			d := Direction(r)
			if !seen[d] {
				seen[d] = true
				exits = append(exits, Exit{Dir: d, Closed: closed})
			}
		}
	}
	return exits
}

// Observation is the composed result of running all rules over a fragment.
type Observation struct {
	Name  string
	Exits []Exit
	Links []ExitLink
}

// ParseFragment runs the rule set line by line and composes the typed partial
// results. The first heading wins; a verbose block's exits override a compact
// list; status-line letters are only a fallback when nothing else named the
// exits.
func ParseFragment(text string) Observation {
	var obs Observation
	var statusExits []Exit
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); {
		advanced := false
		for _, r := range rules {
			m, consumed := r(lines, i)
			if consumed == 0 {
				continue
			}
			switch m.Kind {
			case MatchRoomHeading:
				if obs.Name == "" {
					obs.Name = m.Heading
				}
			case MatchExitList:
				if obs.Links == nil {
					obs.Exits = m.Exits
				}
			case MatchVerboseExits:
				obs.Exits = m.Exits
				obs.Links = m.Links
			case MatchStatusLine:
				statusExits = m.Exits
			}
			i += consumed
			advanced = true
			break
		}
		if !advanced {
			i++
		}
	}
	if len(obs.Exits) == 0 && len(statusExits) > 0 {
		obs.Exits = statusExits
	}
	return obs
}

// MovementBlocked reports whether the fragment reads as a refused move.
func MovementBlocked(text string) bool {
	return blockedRe.MatchString(text)
}
