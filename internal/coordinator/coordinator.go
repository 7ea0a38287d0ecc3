// Package coordinator sequences turns between the remote session and the
// agent: exactly one agent call in flight at a time, inbound session text
// never dropped or reordered relative to the action that caused it.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mudmind/internal/character"
	"mudmind/internal/command"
	"mudmind/internal/llm"
	"mudmind/internal/prompt"
	"mudmind/internal/transcript"
	"mudmind/internal/world"
)

// State is the coordinator's explicit turn state. The three values make the
// illegal flag combinations of an ad hoc boolean pair unrepresentable.
type State int

const (
	// StateIdle: no agent call outstanding, nothing awaited from the session.
	StateIdle State = iota
	// StateRequestInFlight: an agent call is outstanding; inbound text queues.
	StateRequestInFlight
	// StateAwaitingEcho: a directive went out and its effect has not arrived.
	StateAwaitingEcho
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestInFlight:
		return "request-in-flight"
	case StateAwaitingEcho:
		return "awaiting-echo"
	}
	return "unknown"
}

// SessionPort sends one directive line to the remote session.
type SessionPort interface {
	Send(ctx context.Context, text string) error
}

// Approver gates outbound directives behind a human. Approve blocks until
// the human answers; inbound session text queues meanwhile.
type Approver interface {
	Approve(ctx context.Context, directive string) (bool, error)
}

// Renderer displays a labeled text panel. Nil disables rendering.
type Renderer interface {
	Panel(title, body string)
}

// fallbackDirective is issued when the agent call fails outright: cheap,
// always legal, and it re-describes the room so the next turn has input.
const fallbackDirective = "look"

// Options tunes a Coordinator.
type Options struct {
	// TokenBudget bounds the transcript; <= 0 disables compaction.
	TokenBudget int
	// Approver, when set, must confirm every non-blank directive.
	Approver Approver
	// Renderer, when set, is shown session and agent text.
	Renderer Renderer
}

// Coordinator drives the turn loop for a single character session. All state
// lives behind one mutex; the agent call runs on its own goroutine and
// re-acquires the mutex to deliver its result.
type Coordinator struct {
	mu    sync.Mutex
	state State
	queue []string

	tr      *transcript.Transcript
	client  llm.Client
	session SessionPort
	store   character.Store
	rec     *character.Record

	approver Approver
	render   Renderer
	log      *zap.Logger

	pendingMove *world.Direction
	trailStart  string
	trailDirs   []world.Direction

	wg sync.WaitGroup
}

// New builds a coordinator. rec may be nil until the agent creates a
// character.
func New(client llm.Client, session SessionPort, store character.Store, rec *character.Record, logger *zap.Logger, opts Options) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		state:    StateIdle,
		tr:       transcript.New(prompt.Compose(rec), opts.TokenBudget),
		client:   client,
		session:  session,
		store:    store,
		rec:      rec,
		approver: opts.Approver,
		render:   opts.Renderer,
		log:      logger,
	}
}

// State returns the current turn state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until any in-flight agent turn has fully completed. Used for
// shutdown and tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// HandleSessionText is the single entry point for inbound session text.
// Depending on the state it starts a turn, folds into the next turn, or
// queues; no chunk is ever discarded.
func (c *Coordinator) HandleSessionText(ctx context.Context, chunk string) {
	if c.render != nil {
		c.render.Panel("session", chunk)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRequestInFlight:
		c.queue = append(c.queue, chunk)
		c.log.Debug("queued session text during agent call", zap.Int("queued", len(c.queue)))
	case StateAwaitingEcho:
		input := chunk
		if len(c.queue) > 0 {
			input = strings.Join(append(c.queue, chunk), "\n")
			c.queue = nil
		}
		c.beginTurnLocked(ctx, input)
	case StateIdle:
		c.beginTurnLocked(ctx, chunk)
	}
}

// beginTurnLocked starts an agent turn with the given input. Caller holds the
// mutex.
func (c *Coordinator) beginTurnLocked(ctx context.Context, input string) {
	c.observeLocked(ctx, input)

	c.state = StateRequestInFlight
	c.tr.SetInstruction(prompt.Compose(c.rec))
	c.tr.Append(transcript.RoleSessionText, input)
	if dropped := c.tr.Compact(); dropped > 0 {
		c.log.Debug("compacted transcript", zap.Int("dropped", dropped))
	}
	msgs := c.tr.Messages()

	c.wg.Add(1)
	go c.completeTurn(ctx, msgs)
}

// observeLocked resolves the pending movement against the inbound fragment
// and feeds the fragment to the room graph.
func (c *Coordinator) observeLocked(ctx context.Context, fragment string) {
	var mv *world.Move
	if c.pendingMove != nil {
		dir := *c.pendingMove
		c.pendingMove = nil
		success := !world.MovementBlocked(fragment)
		mv = &world.Move{Dir: dir, Success: success}
		if c.rec != nil {
			result := character.MoveSuccess
			if !success {
				result = character.MoveFailed
			}
			c.rec.RecordMovement(dir, result)
			if success {
				if c.trailStart == "" {
					if cur := c.rec.Graph.Current(); cur != nil {
						c.trailStart = cur.Name
					}
				}
				c.trailDirs = append(c.trailDirs, dir)
			}
		}
	}

	if c.rec == nil {
		return
	}
	if id, ok := c.rec.Graph.Observe(fragment, mv); ok {
		if room := c.rec.Graph.Room(id); room != nil {
			c.rec.Location = room.Name
		}
		c.persistLocked(ctx)
	}
}

// persistLocked saves the record, logging rather than failing: the in-memory
// mutation is kept either way.
func (c *Coordinator) persistLocked(ctx context.Context) error {
	if c.rec == nil || c.store == nil {
		return nil
	}
	if err := c.store.Save(ctx, c.rec); err != nil {
		c.log.Warn("character persistence failed, continuing in memory",
			zap.String("character", c.rec.Name), zap.Error(err))
		return err
	}
	return nil
}

// completeTurn runs the agent call and handles its outcome. Runs on its own
// goroutine; takes the mutex to apply results.
func (c *Coordinator) completeTurn(ctx context.Context, msgs []transcript.Message) {
	defer c.wg.Done()

	reply, err := c.client.Complete(ctx, msgs)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// No retry: issue the fixed fallback so the session keeps talking.
		c.log.Warn("agent call failed, issuing fallback directive", zap.Error(err))
		c.sendLocked(ctx, fallbackDirective)
		return
	}

	c.tr.Append(transcript.RoleAgentText, reply)
	if c.render != nil {
		c.render.Panel("agent", reply)
	}

	c.applyCharacterDirectiveLocked(ctx, reply)
	c.applyMemoryDirectiveLocked(ctx, reply)

	directive, ok, extractErr := command.Extract(reply)
	if extractErr != nil {
		c.log.Warn("rejected ambiguous multi-line command", zap.Error(extractErr))
	}
	if !ok {
		// Keep the session from stalling on a silent agent.
		if extractErr == nil {
			c.log.Warn("no directive in agent reply, sending blank line")
		}
		c.sendLocked(ctx, "\n")
		return
	}

	if c.approver != nil && directive != "\n" {
		// The approval gate is a suspension point: drop the lock so inbound
		// text queues instead of blocking. State stays RequestInFlight.
		c.mu.Unlock()
		approved, aerr := c.approver.Approve(ctx, directive)
		c.mu.Lock()
		if aerr != nil || !approved {
			c.log.Warn("directive not approved, sending blank line",
				zap.String("directive", directive), zap.Error(aerr))
			c.sendLocked(ctx, "\n")
			return
		}
	}

	c.sendLocked(ctx, directive)
}

// sendLocked relays a directive to the session and enters AwaitingEcho.
// Sending closes the turn from the coordinator's perspective even though the
// session's reply has not yet arrived.
func (c *Coordinator) sendLocked(ctx context.Context, directive string) {
	if err := c.session.Send(ctx, directive); err != nil {
		c.log.Error("session send failed", zap.String("directive", directive), zap.Error(err))
	}
	if d, err := world.ParseDirection(directive); err == nil {
		c.pendingMove = &d
	}
	c.state = StateAwaitingEcho
}

// applyCharacterDirectiveLocked handles a <new_character> block, injecting
// the acknowledgment into the transcript as session-role content so the agent
// sees it next turn.
func (c *Coordinator) applyCharacterDirectiveLocked(ctx context.Context, reply string) {
	sheet, ok, err := command.ExtractCharacter(reply)
	if !ok {
		return
	}
	if err != nil {
		c.ackLocked(fmt.Sprintf("ERROR: %v", err))
		return
	}

	rec := character.New(sheet.Name)
	rec.Class = sheet.Class
	rec.Race = sheet.Race
	rec.Password = sheet.Password
	rec.Level = sheet.Level
	rec.Location = sheet.Location
	c.rec = rec
	c.log.Info("character created", zap.String("name", rec.Name))

	if perr := c.persistLocked(ctx); perr != nil {
		c.ackLocked(fmt.Sprintf("ERROR: character %s created but could not be saved: %v", rec.Name, perr))
		return
	}
	c.ackLocked(fmt.Sprintf("OK: character %s created", rec.Name))
}

// applyMemoryDirectiveLocked handles a <memory> block. A pathfinding memory
// also snapshots the trail of successful moves into the path list.
func (c *Coordinator) applyMemoryDirectiveLocked(ctx context.Context, reply string) {
	note, ok, err := command.ExtractMemory(reply)
	if !ok {
		return
	}
	if err != nil {
		c.ackLocked(fmt.Sprintf("ERROR: %v", err))
		return
	}
	if c.rec == nil {
		c.ackLocked("ERROR: no character exists yet, create one with a new_character block first")
		return
	}

	c.rec.AddMemory(note.Summary, note.Type)
	if note.Type == "pathfinding" {
		c.snapshotTrailLocked()
	}

	if perr := c.persistLocked(ctx); perr != nil {
		c.ackLocked(fmt.Sprintf("ERROR: memory recorded but could not be saved: %v", perr))
		return
	}
	c.ackLocked("OK: memory recorded")
}

// snapshotTrailLocked turns the successful moves walked since the last
// snapshot into a named path and resets the trail at the current room.
func (c *Coordinator) snapshotTrailLocked() {
	cur := c.rec.Graph.Current()
	if cur == nil || c.trailStart == "" || len(c.trailDirs) == 0 {
		return
	}
	if c.trailStart != cur.Name {
		c.rec.AddPath(c.trailStart, cur.Name, c.trailDirs)
	}
	c.trailStart = cur.Name
	c.trailDirs = nil
}

// ackLocked injects an acknowledgment into the transcript as session text.
func (c *Coordinator) ackLocked(text string) {
	c.tr.Append(transcript.RoleSessionText, text)
}
