package broker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"

	"github.com/nvhoang/shopfeed/internal/credential"
)

// STOMPDialer connects to the broker's websocket endpoint and runs the
// STOMP handshake over it, presenting the bearer token as a connect
// header. Heartbeats are requested in both directions so a half-open
// socket is detected well before TCP would notice.
type STOMPDialer struct {
	URL       string
	Creds     credential.Source
	Heartbeat time.Duration
}

// Dial opens the websocket and performs the STOMP CONNECT exchange.
func (d *STOMPDialer) Dial(ctx context.Context) (Conn, error) {
	token, err := d.Creds.Token()
	if err != nil {
		return nil, fmt.Errorf("resolving bearer token: %w", err)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", d.URL, err)
	}

	hb := d.Heartbeat
	if hb <= 0 {
		hb = 4 * time.Second
	}

	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.HeartBeat(hb, hb),
	}
	if token != "" {
		opts = append(opts, stomp.ConnOpt.Header("Authorization", "Bearer "+token))
	}

	sc, err := stomp.Connect(newWSStream(ws), opts...)
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("stomp handshake: %w", err)
	}

	return &stompConn{conn: sc, ws: ws}, nil
}

// stompConn adapts a go-stomp connection to the Conn interface.
type stompConn struct {
	conn *stomp.Conn
	ws   *websocket.Conn
}

// Subscribe declares a STOMP subscription and pumps its messages into a
// Message channel. The channel closes when the subscription's stream
// ends, which happens whenever the transport dies.
func (c *stompConn) Subscribe(destination string) (Subscription, error) {
	sub, err := c.conn.Subscribe(destination, stomp.AckAuto)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", destination, err)
	}

	out := make(chan Message, 16)
	go func() {
		defer close(out)
		for msg := range sub.C {
			if msg.Err != nil {
				out <- Message{Err: msg.Err}
				return
			}
			out <- Message{Body: msg.Body}
		}
	}()

	return &stompSubscription{sub: sub, ch: out}, nil
}

// Close sends the STOMP DISCONNECT frame and closes the websocket. The
// websocket is closed even when the disconnect frame cannot be written.
func (c *stompConn) Close() error {
	err := c.conn.Disconnect()
	if wsErr := c.ws.Close(); err == nil {
		err = wsErr
	}
	return err
}

type stompSubscription struct {
	sub *stomp.Subscription
	ch  chan Message
}

func (s *stompSubscription) C() <-chan Message { return s.ch }

func (s *stompSubscription) Unsubscribe() error { return s.sub.Unsubscribe() }

// wsStream adapts a websocket connection to the io.ReadWriteCloser the
// STOMP client expects: each write becomes one websocket text message,
// reads drain inbound messages sequentially.
type wsStream struct {
	ws     *websocket.Conn
	reader io.Reader
}

func newWSStream(ws *websocket.Conn) *wsStream {
	return &wsStream{ws: ws}
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.reader == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				return 0, err
			}
			s.reader = r
		}

		n, err := s.reader.Read(p)
		if err == io.EOF {
			s.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	return s.ws.Close()
}
