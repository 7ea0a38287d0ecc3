// Package mud is the line-oriented transport to the remote game. It owns the
// TCP connection, strips telnet negotiation and ANSI color so the agent sees
// plain text, and delivers inbound chunks on a channel in arrival order.
package mud

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Telnet command bytes.
const (
	iacByte  = 255
	sbByte   = 250
	seByte   = 240
	willByte = 251
	wontByte = 252
	doByte   = 253
	dontByte = 254
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// Transport is one live connection to the game.
type Transport struct {
	conn   net.Conn
	log    *zap.Logger
	chunks chan string
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once

	// telnet parser state survives reads that split a sequence.
	tnState  int
	tnSkip   int
	inSubNeg bool
}

const (
	tnText = iota
	tnIAC
	tnOption
)

// Dial connects to the game and starts the reader.
func Dial(ctx context.Context, addr string, logger *zap.Logger) (*Transport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	t := &Transport{
		conn:   conn,
		log:    logger,
		chunks: make(chan string, 16),
		done:   make(chan struct{}),
	}
	go t.readLoop()
	logger.Info("connected to game", zap.String("addr", addr))
	return t, nil
}

// Chunks delivers sanitized inbound text in arrival order. The channel closes
// when the connection drops.
func (t *Transport) Chunks() <-chan string {
	return t.chunks
}

// Send writes one directive line. A bare "\n" directive presses enter; any
// other text goes out with a trailing CRLF.
func (t *Transport) Send(ctx context.Context, text string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		t.conn.SetWriteDeadline(deadline)
	} else {
		t.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	}

	line := "\r\n"
	if text != "\n" {
		line = text + "\r\n"
	}
	if _, err := t.conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("write to game: %w", err)
	}
	return nil
}

// Close shuts the connection down; the reader exits and Chunks closes even
// when no consumer is draining it.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

func (t *Transport) readLoop() {
	defer close(t.chunks)
	buf := make([]byte, 4096)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			text := t.sanitize(buf[:n])
			if strings.TrimSpace(text) != "" {
				select {
				case t.chunks <- text:
				case <-t.done:
					// Closed with the buffer full; don't strand the reader.
					return
				}
			}
		}
		if err != nil {
			t.log.Debug("game connection closed", zap.Error(err))
			return
		}
	}
}

// sanitize strips telnet negotiation and ANSI escapes from a raw read. The
// parser state carries over between reads, so a sequence split across two
// reads is still dropped cleanly.
func (t *Transport) sanitize(raw []byte) string {
	var sb strings.Builder
	for _, b := range raw {
		switch t.tnState {
		case tnText:
			if b == iacByte {
				t.tnState = tnIAC
				continue
			}
			if t.inSubNeg {
				continue
			}
			if b != '\r' {
				sb.WriteByte(b)
			}
		case tnIAC:
			switch b {
			case iacByte:
				// Escaped literal 255.
				if !t.inSubNeg {
					sb.WriteByte(b)
				}
				t.tnState = tnText
			case willByte, wontByte, doByte, dontByte:
				t.tnState = tnOption
			case sbByte:
				t.inSubNeg = true
				t.tnState = tnText
			case seByte:
				t.inSubNeg = false
				t.tnState = tnText
			default:
				t.tnState = tnText
			}
		case tnOption:
			// The option byte itself; negotiation is ignored, not answered.
			t.tnState = tnText
		}
	}
	return ansiRe.ReplaceAllString(sb.String(), "")
}
