// Package session runs a TN5250E display session: it dials the host,
// negotiates the telnet layer, applies host records to a screen buffer in
// the order they arrive and sends keystrokes back.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"pkt.systems/pslog"

	"github.com/moodclient/tn5250"
	"github.com/moodclient/tn5250/datastream"
	"github.com/moodclient/tn5250/ebcdic"
	"github.com/moodclient/tn5250/screen"
	"github.com/moodclient/tn5250/utils"
)

var (
	ErrNotConnected = errors.New("session: not connected")
	// ErrSessionUsed is returned by Connect on a session that has already
	// been connected or disconnected
	ErrSessionUsed = errors.New("session: session already used")
	// ErrKeyboardTimeout is returned when the keyboard did not unlock in time
	ErrKeyboardTimeout = errors.New("session: timed out waiting for the keyboard")
)

// lockCyclePoll is how often WaitForKeyboardLockCycle looks for the lock
// that starts a cycle
const lockCyclePoll = 10 * time.Millisecond

// Session is one display session with a host. A Session is used for a
// single connection: once it has disconnected, connect with a new one.
//
// Host records are applied by a consumer goroutine; the caller's goroutine
// reads the screen and types keys. The two meet only at the screen buffer,
// which has its own lock.
type Session struct {
	config Config
	codec  *datastream.Codec
	buffer *screen.Buffer
	log    pslog.Logger

	state       atomic.Int32
	running     atomic.Bool
	pendingRead atomic.Uint32

	observers observers

	ctx    context.Context
	cancel context.CancelFunc

	lock     sync.Mutex
	conn     net.Conn
	terminal *tn5250.Terminal
	group    *errgroup.Group

	keysLock sync.Mutex
	queued   []datastream.Token

	publishLock sync.Mutex
	lastCursor  int
	lastOIA     screen.OIAState

	releaseOnce sync.Once
	released    chan struct{}
	releaseErr  error
}

// New builds a session from config without connecting. It fails only when
// the configured code page cannot be found.
func New(config Config) (*Session, error) {
	config = config.withDefaults()

	page, err := config.codePage()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	ctx, cancel := context.WithCancel(pslog.ContextWithLogger(context.Background(), config.Logger))
	buffer := screen.New(screen.DefaultRows, screen.DefaultColumns)

	return &Session{
		config:   config,
		codec:    datastream.NewCodec(page, config.Wide),
		buffer:   buffer,
		log:      config.Logger,
		ctx:      ctx,
		cancel:   cancel,
		lastOIA:  buffer.OIA().State(),
		released: make(chan struct{}),
	}, nil
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// Screen returns the session's screen buffer. It is safe to read while the
// session runs.
func (s *Session) Screen() *screen.Buffer {
	return s.buffer
}

// ScreenText returns the screen as text, one line per row
func (s *Session) ScreenText() string {
	return s.buffer.Text()
}

func (s *Session) CodePage() *ebcdic.CodePage {
	return s.codec.CodePage()
}

// Terminal returns the telnet layer of a connected session, nil before
// Connect
func (s *Session) Terminal() *tn5250.Terminal {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.terminal
}

// Subscribe registers an observer and returns the function that removes it
func (s *Session) Subscribe(observer Observer) func() {
	return s.observers.add(observer)
}

func (s *Session) setState(from, to State) bool {
	if !s.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}

	s.log.Debug("session state", "old", from.String(), "new", to.String())
	s.observers.publish(StateChangedEvent{Old: from, New: to})
	return true
}

// Connect dials host:port and negotiates TN5250E. It returns once the
// session is connected, or with ErrEORRefused, ErrNegotiationTimeout,
// ErrConnectionClosed or the dial error. A failed session is disconnected
// and cannot be connected again. An empty host or zero port falls back to
// the configured one.
func (s *Session) Connect(ctx context.Context, host string, port int) error {
	if host == "" {
		host = s.config.Host
	}

	if port == 0 {
		port = s.config.Port
	}

	if !s.setState(StateNew, StateConnecting) {
		return ErrSessionUsed
	}
	s.running.Store(true)

	address := net.JoinHostPort(host, strconv.Itoa(port))
	log := s.log.With("addr", address)
	log.Info("session connecting")

	connectCtx, stop := context.WithCancel(ctx)
	defer stop()
	defer context.AfterFunc(s.ctx, stop)()

	conn, err := s.config.Dialer.DialContext(connectCtx, "tcp", address)
	if err != nil {
		return s.fail(fmt.Errorf("session: connect %s: %w", address, err))
	}

	terminal, err := s.attach(conn)
	if err != nil {
		return s.fail(err)
	}

	if err := terminal.WaitForNegotiation(connectCtx, s.config.NegotiationTimeout); err != nil {
		return s.fail(fmt.Errorf("session: negotiate with %s: %w", address, err))
	}

	if !s.setState(StateConnecting, StateConnected) {
		<-s.released
		return ErrNotConnected
	}

	log.Info("session connected", "terminal_type", s.config.TerminalType, "ccsid", s.codec.CodePage().CCSID())
	return nil
}

// attach starts the terminal and the consumer on a freshly dialed conn
func (s *Session) attach(conn net.Conn) (*tn5250.Terminal, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.State() != StateConnecting {
		_ = conn.Close()
		return nil, ErrNotConnected
	}
	s.conn = conn

	var hooks tn5250.EventHooks
	if s.config.DebugLog != nil {
		hooks = utils.NewDebugLog(s.log, *s.config.DebugLog).Hooks()
	}

	terminal, err := tn5250.NewTerminal(s.ctx, conn, tn5250.TerminalConfig{
		TelOpts:     s.config.telOpts(s.codec.CodePage()),
		EventHooks:  hooks,
		ReadTimeout: s.config.ReadTimeout,
		QueueSize:   s.config.QueueSize,
	})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.terminal = terminal

	group, groupCtx := errgroup.WithContext(s.ctx)
	group.Go(func() error {
		return s.consume(groupCtx, terminal)
	})
	group.Go(func() error {
		return s.watch(terminal)
	})
	s.group = group

	return terminal, nil
}

// fail disconnects a session whose Connect went wrong and returns err
func (s *Session) fail(err error) error {
	if !s.setState(StateConnecting, StateDisconnecting) {
		<-s.released
		return err
	}

	s.log.Warn("session connect failed", "err", err)
	s.running.Store(false)
	s.release()
	return err
}

// Disconnect stops the session and closes the connection. It may be called
// from any state and any number of times; the connection is closed once
// and every call returns the same result.
func (s *Session) Disconnect() error {
	for {
		old := s.State()
		switch old {
		case StateDisconnected:
			return s.releaseErr
		case StateDisconnecting:
			<-s.released
			return s.releaseErr
		}

		if s.setState(old, StateDisconnecting) {
			break
		}
	}

	s.running.Store(false)
	s.release()
	return s.releaseErr
}

// release is the single path that frees what Connect acquired. It runs
// once, after the session has entered StateDisconnecting.
func (s *Session) release() {
	s.releaseOnce.Do(func() {
		defer close(s.released)

		s.cancel()

		s.lock.Lock()
		conn, terminal, group := s.conn, s.terminal, s.group
		s.lock.Unlock()

		if terminal != nil {
			terminal.Close()
		}

		var result *multierror.Error

		if group != nil {
			done := make(chan error, 1)
			go func() {
				done <- group.Wait()
			}()

			timer := time.NewTimer(s.config.ShutdownTimeout)
			select {
			case err := <-done:
				if err != nil {
					result = multierror.Append(result, err)
				}
			case <-timer.C:
				s.log.Warn("session goroutines did not stop in time", "timeout", s.config.ShutdownTimeout.String())
			}
			timer.Stop()
		}

		if conn != nil {
			if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				result = multierror.Append(result, fmt.Errorf("session: close connection: %w", err))
			}
		}

		s.keysLock.Lock()
		s.queued = nil
		s.keysLock.Unlock()

		s.releaseErr = result.ErrorOrNil()
		s.setState(StateDisconnecting, StateDisconnected)
		s.log.Info("session disconnected")
	})
}

// watch reports why the terminal stopped. A host hanging up is not an error.
func (s *Session) watch(terminal *tn5250.Terminal) error {
	err := terminal.WaitForExit()
	if !s.running.Load() {
		return nil
	}

	if err == nil || errors.Is(err, io.EOF) {
		s.ended("host ended the session", nil)
		return nil
	}

	err = fmt.Errorf("session: connection lost: %w", err)
	s.ended("connection lost", err)
	return err
}

// consume applies host records in arrival order until the terminal stops
// or the session is cancelled
func (s *Session) consume(ctx context.Context, terminal *tn5250.Terminal) error {
	records := terminal.Records()

	for {
		select {
		case <-ctx.Done():
			s.ended("session stopped", context.Cause(ctx))
			return nil
		case record, open := <-records:
			if !open {
				// watch sees the terminal stop and says why
				return nil
			}

			s.apply(ctx, terminal, record)
		}
	}
}

// ended disconnects a session whose goroutines stopped without Disconnect
// being called. Only the first caller acts. Disconnect runs on its own
// goroutine because release waits for the caller to return.
func (s *Session) ended(reason string, err error) {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	if err != nil {
		s.log.Warn(reason, "err", err)
	} else {
		s.log.Info(reason)
	}

	go func() {
		_ = s.Disconnect()
	}()
}

func (s *Session) apply(ctx context.Context, terminal *tn5250.Terminal, record []byte) {
	result, err := s.codec.Decode(s.buffer, record)

	var applyErr *datastream.ApplyError
	switch {
	case errors.As(err, &applyErr):
		s.log.Warn("host record applied with errors", "err", err, "opcode", applyErr.Opcode.String())
		s.observers.publish(DecodeErrorEvent{Err: err, Record: record})

	case err != nil:
		fields := []any{"err", err, "len", len(record)}
		if header, headerErr := datastream.ParseHeader(record); headerErr == nil {
			fields = append(fields, "opcode", header.Opcode.String())
		}

		s.log.Warn("discarding host record", fields...)
		s.observers.publish(DecodeErrorEvent{Err: err, Record: record})
		return
	}

	if result.PendingRead != datastream.ReadNone {
		s.pendingRead.Store(uint32(result.PendingRead))
	}

	if result.SkippedFields > 0 || result.SkippedOrders > 0 {
		s.log.Debug("skipped parts of host record",
			"fields", result.SkippedFields, "orders", result.SkippedOrders, "opcode", result.Opcode.String())
	}

	s.publishChanges(result.Cleared, result.Resized)

	if result.Bell {
		s.observers.publish(BellEvent{})
	}

	for _, response := range result.Responses {
		if err := terminal.WriteRecord(ctx, response); err != nil {
			s.log.Warn("response not sent", "err", err, "opcode", result.Opcode.String())
			return
		}
	}

	if !s.buffer.OIA().KeyboardLocked() {
		s.flush(ctx)
	}
}

// publishChanges compares the screen with what observers last saw and
// publishes the difference
func (s *Session) publishChanges(cleared, resized bool) {
	var events []Event

	s.publishLock.Lock()

	if region, dirty := s.buffer.TakeDirty(); dirty || cleared || resized {
		events = append(events, ScreenChangedEvent{Region: region, Cleared: cleared, Resized: resized})
	}

	if cursor := s.buffer.Cursor(); cursor != s.lastCursor || resized {
		s.lastCursor = cursor
		row, col := s.buffer.CursorPosition()
		events = append(events, CursorMovedEvent{Row: row, Column: col})
	}

	state := s.buffer.OIA().State()
	if levels := state.Changes(s.lastOIA); len(levels) > 0 {
		events = append(events, OIAChangedEvent{State: state, Levels: levels})
	}
	s.lastOIA = state

	s.publishLock.Unlock()

	for _, event := range events {
		s.observers.publish(event)
	}
}
