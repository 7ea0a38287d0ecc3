package mud

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPipeTransport(t *testing.T) (*Transport, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	tr := &Transport{
		conn:   client,
		log:    zap.NewNop(),
		chunks: make(chan string, 16),
		done:   make(chan struct{}),
	}
	go tr.readLoop()
	t.Cleanup(func() {
		tr.Close()
		server.Close()
	})
	return tr, server
}

func TestSanitizeStripsTelnetNegotiation(t *testing.T) {
	tr := &Transport{}
	raw := []byte{iacByte, doByte, 1, 'h', 'i', iacByte, willByte, 3}
	assert.Equal(t, "hi", tr.sanitize(raw))
}

func TestSanitizeSequenceSplitAcrossReads(t *testing.T) {
	tr := &Transport{}
	assert.Equal(t, "a", tr.sanitize([]byte{'a', iacByte}))
	assert.Equal(t, "b", tr.sanitize([]byte{doByte, 24, 'b'}))
}

func TestSanitizeSubnegotiation(t *testing.T) {
	tr := &Transport{}
	raw := []byte{iacByte, sbByte, 24, 'x', 'y', iacByte, seByte, 'o', 'k'}
	assert.Equal(t, "ok", tr.sanitize(raw))
}

func TestSanitizeStripsANSIAndCR(t *testing.T) {
	tr := &Transport{}
	assert.Equal(t, "red text\n", tr.sanitize([]byte("\x1b[31mred text\x1b[0m\r\n")))
}

func TestReadLoopDeliversChunks(t *testing.T) {
	tr, server := newPipeTransport(t)

	go server.Write([]byte("The Temple Square\r\nExits:NS\r\n"))

	select {
	case chunk := <-tr.Chunks():
		assert.Equal(t, "The Temple Square\nExits:NS\n", chunk)
	case <-time.After(2 * time.Second):
		t.Fatal("no chunk delivered")
	}
}

func TestChunksCloseOnDisconnect(t *testing.T) {
	tr, server := newPipeTransport(t)
	server.Close()

	select {
	case _, open := <-tr.Chunks():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("chunks channel did not close")
	}
}

func TestCloseUnblocksReaderWithFullBuffer(t *testing.T) {
	client, server := net.Pipe()
	tr := &Transport{
		conn:   client,
		log:    zap.NewNop(),
		chunks: make(chan string, 1),
		done:   make(chan struct{}),
	}
	go tr.readLoop()
	defer server.Close()

	// Fill the buffer, then leave the reader blocked on a second chunk with
	// nobody draining.
	go server.Write([]byte("first\r\n"))
	go server.Write([]byte("second\r\n"))

	require.Eventually(t, func() bool {
		return len(tr.chunks) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, tr.Close())

	// The reader must exit, which closes chunks after the buffered item.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-tr.chunks:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("reader did not exit after Close")
		}
	}
}

func TestSendAppendsCRLF(t *testing.T) {
	tr, server := newPipeTransport(t)

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		got <- buf[:n]
	}()

	require.NoError(t, tr.Send(context.Background(), "north"))
	assert.Equal(t, "north\r\n", string(<-got))
}

func TestSendBareNewline(t *testing.T) {
	tr, server := newPipeTransport(t)

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		got <- buf[:n]
	}()

	require.NoError(t, tr.Send(context.Background(), "\n"))
	assert.Equal(t, "\r\n", string(<-got))
}
