// Package transcript maintains the bounded, ordered conversation log that is
// replayed to the language model on every turn. Message 0 is always the
// instruction prefix and survives every compaction.
package transcript

import "strings"

// Role identifies who produced a message.
type Role string

const (
	RoleInstruction Role = "instruction"
	RoleSessionText Role = "session"
	RoleAgentText   Role = "agent"
)

// Message is one entry in the conversation log. Insertion order is the causal
// order of the conversation and is never rearranged.
type Message struct {
	Role    Role
	Content string
}

// CostFunc estimates the token cost of a message. The default counts
// whitespace-delimited words; a real tokenizer can be substituted without
// touching the compaction logic.
type CostFunc func(Message) int

// WordCount is the default cost estimate.
func WordCount(m Message) int {
	return len(strings.Fields(m.Content))
}

// compactionHeadroom keeps compaction from re-triggering on the very next
// turn: we trim down to 90% of budget, not 100%.
const compactionHeadroom = 0.9

// Transcript owns an ordered sequence of messages with a token budget.
type Transcript struct {
	messages []Message
	budget   int
	cost     CostFunc
}

// New creates a transcript seeded with the instruction prefix.
func New(instruction string, budget int) *Transcript {
	return &Transcript{
		messages: []Message{{Role: RoleInstruction, Content: instruction}},
		budget:   budget,
		cost:     WordCount,
	}
}

// SetCostFunc swaps the token cost estimator. A nil fn restores the default.
func (t *Transcript) SetCostFunc(fn CostFunc) {
	if fn == nil {
		fn = WordCount
	}
	t.cost = fn
}

// SetInstruction replaces the content of message 0 in place. The instruction
// prefix is recomposed from the character record before each agent call, so
// its position must stay stable while its content changes.
func (t *Transcript) SetInstruction(content string) {
	t.messages[0].Content = content
}

// Append adds a message to the end of the log.
func (t *Transcript) Append(role Role, content string) {
	t.messages = append(t.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the current log.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages, including the instruction.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// TotalCost returns the estimated token cost of the whole log.
func (t *Transcript) TotalCost() int {
	total := 0
	for _, m := range t.messages {
		total += t.cost(m)
	}
	return total
}

// Compact trims the oldest non-instruction messages until the total estimated
// cost fits under 90% of the budget, or only the instruction remains. It is a
// no-op while the log is within budget. Returns the number of messages
// dropped.
func (t *Transcript) Compact() int {
	if t.budget <= 0 || t.TotalCost() <= t.budget {
		return 0
	}
	target := int(float64(t.budget) * compactionHeadroom)
	dropped := 0
	for len(t.messages) > 1 && t.TotalCost() > target {
		// Message 0 is the instruction and is never evicted.
		t.messages = append(t.messages[:1], t.messages[2:]...)
		dropped++
	}
	return dropped
}
