package session

import (
	"sync"

	"github.com/moodclient/tn5250/screen"
)

// Event is one of the notifications delivered to observers. Events are
// values and are never modified after they are published.
type Event interface {
	event()
}

// ScreenChangedEvent reports the smallest rectangle covering every cell a
// record or key wrote
type ScreenChangedEvent struct {
	Region  screen.Region
	Cleared bool
	Resized bool
}

type CursorMovedEvent struct {
	Row, Column int
}

// OIAChangedEvent carries the new operator information area and the
// levels that changed
type OIAChangedEvent struct {
	State  screen.OIAState
	Levels []screen.Level
}

type StateChangedEvent struct {
	Old, New State
}

// DecodeErrorEvent reports a host record that could not be decoded. When Err
// is a *datastream.ApplyError the rest of the record was applied, otherwise
// the record was discarded. The session stays connected either way.
type DecodeErrorEvent struct {
	Err    error
	Record []byte
}

type BellEvent struct{}

// KeyErrorEvent reports queued keystrokes the screen refused once the
// keyboard unlocked. Keystrokes refused during SendKeys are returned to the
// caller instead.
type KeyErrorEvent struct {
	Err error
}

func (ScreenChangedEvent) event() {}
func (CursorMovedEvent) event()   {}
func (OIAChangedEvent) event()    {}
func (StateChangedEvent) event()  {}
func (DecodeErrorEvent) event()   {}
func (BellEvent) event()          {}
func (KeyErrorEvent) event()      {}

// Observer receives session events. Observers run synchronously on the
// goroutine that caused the event, which for host records is the session's
// consumer, so an observer that blocks stalls the session.
type Observer func(Event)

type observerEntry struct {
	id       uint64
	observer Observer
}

type observers struct {
	lock    sync.Mutex
	nextID  uint64
	entries []observerEntry
}

func (o *observers) add(observer Observer) func() {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.nextID++
	id := o.nextID

	// a fresh slice keeps snapshots taken by publish intact
	entries := make([]observerEntry, 0, len(o.entries)+1)
	entries = append(entries, o.entries...)
	o.entries = append(entries, observerEntry{id: id, observer: observer})

	var once sync.Once
	return func() {
		once.Do(func() { o.remove(id) })
	}
}

func (o *observers) remove(id uint64) {
	o.lock.Lock()
	defer o.lock.Unlock()

	entries := make([]observerEntry, 0, len(o.entries))
	for _, entry := range o.entries {
		if entry.id != id {
			entries = append(entries, entry)
		}
	}
	o.entries = entries
}

func (o *observers) publish(event Event) {
	o.lock.Lock()
	entries := o.entries
	o.lock.Unlock()

	for _, entry := range entries {
		entry.observer(event)
	}
}
