package tak

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigtak/bridge/internal/queue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSender(t *testing.T) {
	q := queue.New[[]byte]()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "udp", url: "udp://127.0.0.1:4243"},
		{name: "tcp", url: "tcp://takserver:8087"},
		{name: "http rejected", url: "http://example.com:80", wantErr: true},
		{name: "no scheme", url: "127.0.0.1:4243", wantErr: true},
		{name: "no port", url: "udp://127.0.0.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSender(tt.url, q, testLogger())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSender_UDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	q := queue.New[[]byte]()
	s, err := NewSender(fmt.Sprintf("udp://%s", pc.LocalAddr()), q, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	q.Push([]byte("<event/>"))

	buf := make([]byte, 1024)
	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "<event/>", string(buf[:n]))
}

func TestSender_TCPPreservesOrder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	q := queue.New[[]byte]()
	q.Push([]byte("first|"), []byte("second|"), []byte("third|"))

	s, err := NewSender(fmt.Sprintf("tcp://%s", ln.Addr()), q, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return q.Empty() }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	select {
	case data := <-received:
		assert.Equal(t, "first|second|third|", string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("listener never saw the payloads")
	}
}

func TestSender_ReconnectsAndRetransmits(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	// First connection is dropped immediately to force a write failure.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	q := queue.New[[]byte]()
	s, err := NewSender("tcp://"+addr, q, testLogger(), WithRetryDelay(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Feed enough copies that at least one write lands on the dead
	// connection before the OS notices the close.
	for i := 0; i < 10; i++ {
		q.Push([]byte("<event/>"))
	}

	received := make(chan struct{})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			buf := make([]byte, 64)
			if n, _ := conn.Read(buf); n > 0 {
				close(received)
				conn.Close()
				return
			}
			conn.Close()
		}
	}()
	defer ln.Close()

	select {
	case <-received:
	case <-time.After(3 * time.Second):
		t.Fatal("sender never retransmitted after reconnect")
	}
}
