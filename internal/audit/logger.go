// Package audit implements an append-only JSON-lines event log for every
// spec §6 event kind (signal_emitted, gate_blocked, order_submitted,
// order_filled, position_opened, position_closed, killswitch_triggered,
// circuit_opened, emergency_stop). Grounded on the teacher's
// notification_service.go flat-file persistence (loadChatID/saveChatID's
// os-file read/write pattern), generalized from a single persisted scalar
// into a single append-only stream shared by every component.
package audit

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Kind enumerates the audit event kinds named in spec §6.
type Kind string

const (
	SignalEmitted       Kind = "signal_emitted"
	GateBlocked         Kind = "gate_blocked"
	OrderSubmitted      Kind = "order_submitted"
	OrderFilled         Kind = "order_filled"
	PositionOpened      Kind = "position_opened"
	PositionClosed      Kind = "position_closed"
	KillswitchTriggered Kind = "killswitch_triggered"
	CircuitOpened       Kind = "circuit_opened"
	EmergencyStop       Kind = "emergency_stop"
)

// Event is one audit log line.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      Kind           `json:"kind"`
	Instrument string        `json:"instrument,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Logger appends Events to a JSON-lines file, one event per line, fsync'd
// on every write so a crash never loses the last recorded decision.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Logger{file: f, enc: json.NewEncoder(f)}, nil
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Record appends one event, stamping the current time.
func (l *Logger) Record(kind Kind, instrument string, detail map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev := Event{Timestamp: time.Now(), Kind: kind, Instrument: instrument, Detail: detail}
	if err := l.enc.Encode(ev); err != nil {
		return err
	}
	return l.file.Sync()
}
