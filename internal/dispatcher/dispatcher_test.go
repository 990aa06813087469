package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/OCAP2/gcs/pkg/core"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

// testPoster queues callbacks until run is called.
type testPoster struct {
	pending []func()
}

func (p *testPoster) Post(fn func()) { p.pending = append(p.pending, fn) }

func (p *testPoster) run() {
	for _, fn := range p.pending {
		fn()
	}
	p.pending = nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got core.ServerEvent
	d.Register("VehicleRemoved", func(e Event) error {
		got = e.Payload
		return nil
	})

	err := d.Dispatch(NewEvent(core.VehicleRemoved{VehicleID: "v1"}))

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got != (core.VehicleRemoved{VehicleID: "v1"}) {
		t.Errorf("handler got %v", got)
	}
}

func TestDispatcher_UnknownType(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.Dispatch(Event{Type: "LinkUpdated"})

	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "LinkUpdated") {
		t.Errorf("error should name the type: %v", err)
	}
}

func TestDispatcher_NilLogger(t *testing.T) {
	d, err := New(nil)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	d.Register("VehicleRemoved", func(e Event) error {
		return fmt.Errorf("test error")
	}, Logged())

	if err := d.Dispatch(NewEvent(core.VehicleRemoved{})); err == nil {
		t.Error("expected handler error")
	}
}

func TestDispatcher_RegisterReplaces(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var which string
	d.Register("FlightUpdated", func(e Event) error {
		which = "first"
		return nil
	})
	d.Register("FlightUpdated", func(e Event) error {
		which = "second"
		return nil
	})

	if err := d.Dispatch(Event{Type: "FlightUpdated"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if which != "second" {
		t.Errorf("expected the later registration to win, got %q", which)
	}
}

func TestDispatcher_OnLoopDefersHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)
	p := &testPoster{}

	calls := 0
	d.Register("MissionRemoved", func(e Event) error {
		calls++
		return nil
	}, OnLoop(p))

	for i := 0; i < 3; i++ {
		if err := d.Dispatch(NewEvent(core.MissionRemoved{MissionID: "m"})); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}

	if calls != 0 {
		t.Fatalf("handler ran before the loop, %d calls", calls)
	}
	p.run()
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDispatcher_OnLoopSwallowsHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)
	p := &testPoster{}

	d.Register("MissionRemoved", func(e Event) error {
		return fmt.Errorf("test error")
	}, OnLoop(p), Logged())

	if err := d.Dispatch(NewEvent(core.MissionRemoved{})); err != nil {
		t.Errorf("posting should not fail: %v", err)
	}
	p.run()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if !hasPrefix(logger.messages, "ERROR") {
		t.Error("expected the loop side to log the failure")
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("VehicleRemoved", func(e Event) error {
		return nil
	}, Logged())

	if err := d.Dispatch(NewEvent(core.VehicleRemoved{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) != 2 {
		t.Fatalf("expected applying and applied messages, got %v", logger.messages)
	}
	if !strings.HasPrefix(logger.messages[1], "DEBUG: event applied") {
		t.Errorf("unexpected final message %q", logger.messages[1])
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("VehicleRemoved", func(e Event) error {
		return fmt.Errorf("test error")
	}, Logged())

	if err := d.Dispatch(NewEvent(core.VehicleRemoved{})); err == nil {
		t.Error("expected handler error")
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if !hasPrefix(logger.messages, "ERROR") {
		t.Error("expected error log message")
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("FlightUpdated", func(e Event) error { return nil })

	if !d.HasHandler("FlightUpdated") {
		t.Error("expected handler to exist")
	}

	if d.HasHandler("NavigationUpdated") {
		t.Error("expected handler to not exist")
	}
}

func TestDispatcher_Types(t *testing.T) {
	d, _ := newTestDispatcher(t)

	for _, typ := range []string{"RouteUpdated", "FlightUpdated", "MissionRemoved"} {
		d.Register(typ, func(e Event) error { return nil })
	}

	got := strings.Join(d.Types(), ",")
	if got != "FlightUpdated,MissionRemoved,RouteUpdated" {
		t.Errorf("unexpected types %q", got)
	}
}

func hasPrefix(messages []string, prefix string) bool {
	for _, msg := range messages {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
