package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moodclient/tn5250"
	"github.com/moodclient/tn5250/datastream"
	"github.com/moodclient/tn5250/screen"
)

// immediate keys act even while the keyboard is locked, ahead of keys that
// are waiting for it
func immediate(key datastream.Key) bool {
	switch key {
	case datastream.KeyReset, datastream.KeyAttention, datastream.KeySysReq:
		return true
	}

	return false
}

// SendKeys types text into the session. Text is literal characters mixed
// with bracketed mnemonics such as [enter], [tab] or [pf3]; see
// datastream.Tokenize.
//
// While the keyboard is locked keys are queued and sent in order once the
// host unlocks it. Typed text that the current field refuses returns an
// *datastream.InputError or *ebcdic.ConversionError and discards the keys
// after it; nothing is written for the refused run.
func (s *Session) SendKeys(ctx context.Context, text string) error {
	if !s.IsConnected() {
		return ErrNotConnected
	}

	tokens := datastream.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	s.keysLock.Lock()
	s.queued = append(s.queued, tokens...)
	writes, err := s.drain(ctx)
	s.keysLock.Unlock()

	if writeErr := s.awaitWrites(ctx, writes); err == nil {
		err = writeErr
	}

	s.publishChanges(false, false)
	return err
}

// QueuedKeys returns how many keys are waiting for the keyboard to unlock
func (s *Session) QueuedKeys() int {
	s.keysLock.Lock()
	defer s.keysLock.Unlock()

	return len(s.queued)
}

// flush sends keys queued while the keyboard was locked. Refusals have no
// caller to go to, so they are logged and published.
func (s *Session) flush(ctx context.Context) {
	s.keysLock.Lock()
	if len(s.queued) == 0 {
		s.keysLock.Unlock()
		return
	}

	writes, err := s.drain(ctx)
	s.keysLock.Unlock()

	if writeErr := s.awaitWrites(ctx, writes); err == nil {
		err = writeErr
	}

	s.publishChanges(false, false)

	if err != nil {
		s.log.Warn("queued keys refused", "err", err)
		s.observers.publish(KeyErrorEvent{Err: err})
	}
}

// pendingWrite is a key record handed to the terminal's writer that has not
// been confirmed yet
type pendingWrite struct {
	token  datastream.Token
	result <-chan error
}

// drain applies queued keys until the queue is empty or the keyboard
// locks. The caller holds keysLock. Records are queued on the terminal in
// key order; the caller waits for them with awaitWrites after releasing
// the lock.
func (s *Session) drain(ctx context.Context) ([]pendingWrite, error) {
	oia := s.buffer.OIA()
	terminal := s.Terminal()

	var writes []pendingWrite
	for len(s.queued) > 0 {
		if oia.KeyboardLocked() && !immediate(s.queued[0].Key) {
			oia.SetKeysBuffered(true)
			return s.drainImmediate(ctx, terminal, writes)
		}

		token := s.queued[0]
		s.queued = s.queued[1:]

		write, err := s.sendKey(ctx, terminal, token)

		var inputErr *datastream.InputError
		if errors.As(err, &inputErr) && inputErr.Reason == datastream.ReasonKeyboardLocked {
			// the host locked the keyboard after the check above
			oia.SetInputError("")
			s.queued = append([]datastream.Token{token}, s.queued...)
			continue
		}

		if err != nil {
			if dropped := len(s.queued); dropped > 0 {
				s.log.Debug("dropping keys after a refused key", "count", dropped)
			}

			s.queued = nil
			oia.SetKeysBuffered(false)
			return writes, err
		}

		if write.result != nil {
			writes = append(writes, write)
		}
	}

	oia.SetKeysBuffered(false)
	return writes, nil
}

// drainImmediate pulls the immediate keys out of a blocked queue and sends
// them, leaving the rest in order
func (s *Session) drainImmediate(ctx context.Context, terminal *tn5250.Terminal, writes []pendingWrite) ([]pendingWrite, error) {
	var waiting []datastream.Token
	var immediates []datastream.Token

	for _, token := range s.queued {
		if immediate(token.Key) {
			immediates = append(immediates, token)
		} else {
			waiting = append(waiting, token)
		}
	}

	s.queued = waiting
	for _, token := range immediates {
		write, err := s.sendKey(ctx, terminal, token)
		if err != nil {
			return writes, err
		}

		if write.result != nil {
			writes = append(writes, write)
		}
	}

	return writes, nil
}

// sendKey applies one key to the screen and queues the record it produces,
// if any
func (s *Session) sendKey(ctx context.Context, terminal *tn5250.Terminal, token datastream.Token) (pendingWrite, error) {
	var result datastream.KeyResult

	err := s.buffer.Update(func(w *screen.Writer) error {
		var err error
		result, err = s.codec.ApplyKey(w, token, datastream.ReadKind(s.pendingRead.Load()))
		return err
	})
	if err != nil {
		return pendingWrite{}, err
	}

	if result.AID != datastream.AIDNone {
		s.pendingRead.Store(uint32(datastream.ReadNone))
	}

	if result.Record == nil {
		return pendingWrite{}, nil
	}

	if terminal == nil {
		return pendingWrite{}, ErrNotConnected
	}

	written, err := terminal.QueueRecord(ctx, result.Record)
	if err != nil {
		return pendingWrite{}, fmt.Errorf("session: send %s: %w", token, err)
	}

	return pendingWrite{token: token, result: written}, nil
}

// awaitWrites waits for queued key records to reach the host and returns the
// first failure
func (s *Session) awaitWrites(ctx context.Context, writes []pendingWrite) error {
	if len(writes) == 0 {
		return nil
	}

	terminal := s.Terminal()
	if terminal == nil {
		return ErrNotConnected
	}

	var first error
	for _, write := range writes {
		err := terminal.AwaitRecord(ctx, write.result)
		if err != nil && first == nil {
			first = fmt.Errorf("session: send %s: %w", write.token, err)
		}
	}

	return first
}

// SendSystemRequest sends the System Request key with text as the request
// line. Text that the code page cannot encode returns an
// *ebcdic.ConversionError and nothing is sent.
func (s *Session) SendSystemRequest(ctx context.Context, text string) error {
	terminal := s.Terminal()
	if !s.IsConnected() || terminal == nil {
		return ErrNotConnected
	}

	record, err := s.codec.SystemRequestRecord(text)
	if err != nil {
		return err
	}

	if err := terminal.WriteRecord(ctx, record); err != nil {
		return fmt.Errorf("session: send system request: %w", err)
	}

	return nil
}

func timeoutChannel(timeout time.Duration) (<-chan time.Time, func()) {
	if timeout <= 0 {
		return nil, func() {}
	}

	timer := time.NewTimer(timeout)
	return timer.C, func() { timer.Stop() }
}

// WaitForKeyboardUnlock blocks until the keyboard is unlocked. It returns
// ErrKeyboardTimeout when timeout elapses first and ErrNotConnected if the
// session ends. A zero timeout waits until ctx is done.
//
// An unlock that queued keys lock again straight away is only seen if it
// happens after the call; use WaitForKeyboardUnlockSince to count unlocks
// from an earlier point.
func (s *Session) WaitForKeyboardUnlock(ctx context.Context, timeout time.Duration) error {
	return s.WaitForKeyboardUnlockSince(ctx, s.buffer.OIA().Generation(), timeout)
}

// WaitForKeyboardUnlockSince blocks until the keyboard is unlocked or has
// been unlocked at any point after the OIA was at lock generation since.
// Read since from Screen().OIA().Generation() before the action that should
// unlock the keyboard; an unlock that is followed at once by a new lock
// still counts.
func (s *Session) WaitForKeyboardUnlockSince(ctx context.Context, since uint64, timeout time.Duration) error {
	timeoutC, stop := timeoutChannel(timeout)
	defer stop()

	oia := s.buffer.OIA()
	for {
		if !s.IsConnected() {
			return ErrNotConnected
		}

		// the channel is fetched before the checks, so an unlock in
		// between hands back a closed channel
		unlocked := oia.Unlocked()
		if !oia.KeyboardLocked() || oia.Generation() > since {
			return nil
		}

		select {
		case <-unlocked:
		case <-s.ctx.Done():
			return ErrNotConnected
		case <-timeoutC:
			return ErrKeyboardTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitForKeyboardLockCycle blocks until the keyboard has been locked and
// unlocked again after the call, which is one full host round trip. A
// keyboard that is already locked completes the cycle when it unlocks.
func (s *Session) WaitForKeyboardLockCycle(ctx context.Context, timeout time.Duration) error {
	timeoutC, stop := timeoutChannel(timeout)
	defer stop()

	oia := s.buffer.OIA()
	start := oia.Generation()
	if oia.KeyboardLocked() {
		start--
	}

	ticker := time.NewTicker(lockCyclePoll)
	defer ticker.Stop()

	for {
		if !s.IsConnected() {
			return ErrNotConnected
		}

		unlocked := oia.Unlocked()
		locked := oia.KeyboardLocked()
		if oia.Generation() > start && !locked {
			return nil
		}

		var unlockC <-chan struct{}
		if locked {
			unlockC = unlocked
		}

		select {
		case <-unlockC:
		case <-ticker.C:
		case <-s.ctx.Done():
			return ErrNotConnected
		case <-timeoutC:
			return ErrKeyboardTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
