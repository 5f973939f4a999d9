package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Handler processes one decoded message for a topic (e.g. a depth or trade
// stream name).
type Handler func(topic string, payload []byte)

// TokenFetcher obtains a short-lived stream token via REST before dialing,
// per spec §4.1.
type TokenFetcher func(ctx context.Context) (string, error)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Stream is a reconnecting WebSocket client over the venue's combined
// stream endpoint: it fetches a fresh REST token before each dial, replays
// every active subscription after a reconnect, sends a periodic keepalive
// ping, and demultiplexes incoming frames to per-topic handlers by a
// substring match. Grounded on the teacher's PredatorWorker.Run
// dial-retry loop (generalized from its fixed 5s retry into exponential
// backoff with a cap) and hub.go's ping/pong-deadline pattern
// (writeWait/pongWait/pingPeriod, WriteControl(PingMessage, ...)).
type Stream struct {
	urlFunc     func(topics []string, token string) string
	fetchToken  TokenFetcher
	maxBackoff  time.Duration
	maxAttempts int

	mu     sync.Mutex
	topics map[string]Handler
	conn   *websocket.Conn
}

// NewStream builds a Stream whose dial URL is derived from the currently
// subscribed topic set and a freshly fetched stream token by urlFunc
// (venues vary in how multi-stream URLs are composed, so the caller
// supplies the composition rule and the token source).
func NewStream(urlFunc func(topics []string, token string) string, fetchToken TokenFetcher) *Stream {
	return &Stream{
		urlFunc:     urlFunc,
		fetchToken:  fetchToken,
		topics:      make(map[string]Handler),
		maxBackoff:  30 * time.Second,
		maxAttempts: 10,
	}
}

// Subscribe registers a handler for a topic and triggers a reconnect with
// the updated topic set if the stream is already running.
func (s *Stream) Subscribe(topic string, h Handler) {
	s.mu.Lock()
	s.topics[topic] = h
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		// Closing the live connection ends the read loop; Run then redials
		// with the updated topic set.
		conn.Close()
	}
}

// Run dials and reads until ctx is cancelled, reconnecting with
// exponential backoff (capped at maxBackoff) on any read or dial error,
// replaying the full subscription set and fetching a fresh token on every
// reconnect. It gives up and returns an error once maxAttempts consecutive
// dial failures have been reached, per spec §4.1's bounded-reconnect
// requirement.
func (s *Stream) Run(ctx context.Context) error {
	backoff := time.Second
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		s.mu.Lock()
		topics := make([]string, 0, len(s.topics))
		for t := range s.topics {
			topics = append(topics, t)
		}
		s.mu.Unlock()

		if len(topics) == 0 {
			time.Sleep(time.Second)
			continue
		}

		token, err := s.fetchToken(ctx)
		if err != nil {
			attempts++
			if attempts >= s.maxAttempts {
				return fmt.Errorf("gateway: stream token fetch failed %d times: %w", attempts, err)
			}
			log.Printf("gateway: stream token fetch failed, retrying in %s: %v", backoff, err)
			sleepOrDone(ctx, backoff)
			backoff = nextBackoff(backoff, s.maxBackoff)
			continue
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.urlFunc(topics, token), nil)
		if err != nil {
			attempts++
			if attempts >= s.maxAttempts {
				return fmt.Errorf("gateway: stream dial failed %d times: %w", attempts, err)
			}
			log.Printf("gateway: stream dial failed, retrying in %s: %v", backoff, err)
			sleepOrDone(ctx, backoff)
			backoff = nextBackoff(backoff, s.maxBackoff)
			continue
		}
		backoff = time.Second
		attempts = 0

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		s.runConn(ctx, conn)
		conn.Close()
	}
}

// runConn starts the keepalive pinger and reads until the connection fails
// or ctx is cancelled.
func (s *Stream) runConn(ctx context.Context, conn *websocket.Conn) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.pingLoop(connCtx, conn)
	s.readLoop(ctx, conn)
}

func (s *Stream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(message)
	}
}

// dispatch routes a raw frame to every handler whose topic is a prefix of
// (or contained within) the frame, since venues typically embed the stream
// name in the payload rather than framing per-topic.
func (s *Stream) dispatch(message []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, h := range s.topics {
		if strings.Contains(string(message), topic) {
			h(topic, message)
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
