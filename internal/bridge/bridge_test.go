package bridge

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigtak/bridge/internal/handlers"
	"github.com/sigtak/bridge/internal/parser"
	"github.com/sigtak/bridge/internal/queue"
	"github.com/sigtak/bridge/internal/signal"
	"github.com/sigtak/bridge/internal/tak"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingTransmitter simulates an unrecoverable transmit-path failure.
type failingTransmitter struct{}

func (failingTransmitter) Run(ctx context.Context) error {
	return errors.New("transmitter blew up")
}

// TestRun_EndToEnd feeds one daemon notification through the whole
// pipeline and verifies the CoT datagram that comes out the far side.
func TestRun_EndToEnd(t *testing.T) {
	// Fake signal-cli daemon socket.
	daemonLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer daemonLn.Close()
	go func() {
		conn, err := daemonLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte(`{"method":"receive","params":{"account":"+100","envelope":{"sourceNumber":"+200","dataMessage":{"message":"48.5 39.8 tank"}}}}` + "\n"))
		// Hold the connection open until the test finishes.
		buf := make([]byte, 1)
		conn.Read(buf)
	}()

	// Fake TAK UDP endpoint.
	takPC, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer takPC.Close()

	daemonAddr := daemonLn.Addr().(*net.TCPAddr)
	client, err := signal.NewClient(daemonAddr.IP.String(), daemonAddr.Port, testLogger(),
		signal.WithRetryDelay(10*time.Millisecond))
	require.NoError(t, err)

	q := queue.New[[]byte]()
	handler, err := handlers.NewService(handlers.Dependencies{
		Parser: parser.New(nil),
		Queue:  q,
		Logger: testLogger(),
	})
	require.NoError(t, err)

	sender, err := tak.NewSender(fmt.Sprintf("udp://%s", takPC.LocalAddr()), q, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Dependencies{
			DaemonCommand: "sleep 60",
			Client:        client,
			Handler:       handler,
			Sender:        sender,
			Logger:        testLogger(),
		})
	}()

	buf := make([]byte, 64*1024)
	takPC.SetReadDeadline(time.Now().Add(3 * time.Second))
	n, _, err := takPC.ReadFrom(buf)
	require.NoError(t, err, "no CoT datagram arrived")

	var decoded struct {
		Type  string `xml:"type,attr"`
		UID   string `xml:"uid,attr"`
		Point struct {
			Lat float64 `xml:"lat,attr"`
			Lon float64 `xml:"lon,attr"`
		} `xml:"point"`
	}
	require.NoError(t, xml.Unmarshal(buf[:n], &decoded))
	assert.InDelta(t, 48.5, decoded.Point.Lat, 1e-9)
	assert.InDelta(t, 39.8, decoded.Point.Lon, 1e-9)
	assert.Equal(t, "a-u-G-U-C-F-M", decoded.Type)
	assert.NotEmpty(t, decoded.UID)

	// Exactly one marker for one message.
	assert.Equal(t, uint64(1), handler.Stats().MarkersProduced)

	// Shutdown: the daemon subprocess must be gone before Run returns.
	start := time.Now()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), 5*time.Second)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// TestRun_SenderFailureIsFatal verifies fail-fast group semantics: a fatal
// condition in the transmit path takes down the receive path too.
func TestRun_SenderFailureIsFatal(t *testing.T) {
	daemonLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer daemonLn.Close()
	go func() {
		for {
			conn, err := daemonLn.Accept()
			if err != nil {
				return
			}
			go func() {
				buf := make([]byte, 1)
				conn.Read(buf)
				conn.Close()
			}()
		}
	}()

	daemonAddr := daemonLn.Addr().(*net.TCPAddr)
	client, err := signal.NewClient(daemonAddr.IP.String(), daemonAddr.Port, testLogger(),
		signal.WithRetryDelay(10*time.Millisecond))
	require.NoError(t, err)

	q := queue.New[[]byte]()
	handler, err := handlers.NewService(handlers.Dependencies{
		Parser: parser.New(nil),
		Queue:  q,
		Logger: testLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Dependencies{
			Client:  client,
			Handler: handler,
			Sender:  failingTransmitter{},
			Logger:  testLogger(),
		})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorContains(t, err, "transmitter blew up")
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not fail fast on sender failure")
	}
}
