package tn5250

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// ErrKeyboardClosed is returned when a record is written after the keyboard
// has stopped
var ErrKeyboardClosed = errors.New("tn5250: keyboard is closed")

type keyboardTransport struct {
	command  Command
	record   []byte
	postSend func() error
	result   chan error
}

// TelnetKeyboard is a Terminal subsidiary that is in charge of sending outbound data
// to the host.
type TelnetKeyboard struct {
	outputStream io.Writer
	input        chan keyboardTransport
	complete     chan bool
	stopped      chan struct{}
	eventPump    *terminalEventPump
	lock         *keyboardLock
}

func newTelnetKeyboard(output io.Writer, eventPump *terminalEventPump) *TelnetKeyboard {
	return &TelnetKeyboard{
		outputStream: output,
		input:        make(chan keyboardTransport, 100),
		complete:     make(chan bool, 1),
		stopped:      make(chan struct{}),
		eventPump:    eventPump,
		lock:         newKeyboardLock(),
	}
}

// SetLock will hold back all record output until the provided lockName
// is cleared with ClearLock, or until the provided duration expires. Telopts
// use this while a request that changes the wire semantics, such as
// TRANSMIT-BINARY, is waiting for the host's answer.
func (k *TelnetKeyboard) SetLock(lockName string, duration time.Duration) {
	k.lock.SetLock(lockName, duration)
}

// ClearLock will clear a named lock in order to end buffering (assuming there are no
// other active locks) and immediately write buffered records.
func (k *TelnetKeyboard) ClearLock(lockName string) {
	k.lock.ClearLock(lockName)
}

// HasActiveLock will indicate whether a named lock is currently active on the keyboard
func (k *TelnetKeyboard) HasActiveLock(lockName string) bool {
	return k.lock.HasActiveLock(lockName)
}

func (k *TelnetKeyboard) writeOutput(b []byte) error {
	for {
		_, err := k.outputStream.Write(b)

		// Retry when the write timed out without the connection failing
		var netError net.Error
		if errors.As(err, &netError) && netError.Timeout() {
			continue
		}

		return err
	}
}

func (k *TelnetKeyboard) writeCommand(c Command) error {
	k.eventPump.OutboundCommand(c)

	return k.writeOutput(c.encode())
}

func (k *TelnetKeyboard) writeRecord(record []byte) error {
	k.eventPump.OutboundRecord(record)

	b := make([]byte, 0, len(record)+len(record)/16+2)
	b = appendEscaped(b, record)
	b = append(b, IAC, EOR)

	return k.writeOutput(b)
}

func (k *TelnetKeyboard) write(transport keyboardTransport) bool {
	var err error
	if transport.command.OpCode != 0 {
		err = k.writeCommand(transport.command)
	} else {
		err = k.writeRecord(transport.record)
	}

	if err == nil && transport.postSend != nil {
		err = transport.postSend()
	}

	if transport.result != nil {
		transport.result <- err
	}

	return k.handleError(err)
}

func (k *TelnetKeyboard) handleError(err error) bool {
	if err == nil {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return false
	}

	k.eventPump.EncounteredError(err)
	return true
}

func (k *TelnetKeyboard) keyboardLoop(ctx context.Context) {
	queuedWrites := newQueue[keyboardTransport](16)

	defer func() {
		// Anyone still waiting on a record learns it will never be sent
		for {
			transport, ok := queuedWrites.Dequeue()
			if !ok {
				break
			}

			if transport.result != nil {
				transport.result <- ErrKeyboardClosed
			}
		}

		close(k.stopped)
		k.complete <- true
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case input := <-k.input:
			if input.command.OpCode != 0 {
				if !k.write(input) {
					return
				}

				continue
			}

			if queuedWrites.Len() > 0 || k.lock.IsLocked() {
				// We may have unlocked but the unlock signal hasn't been
				// handled yet, so keep records in order behind the queue
				queuedWrites.Queue(input)
				continue
			}

			if !k.write(input) {
				return
			}

		case <-k.lock.C:
			// Make sure the lock hasn't unlocked & relocked in the time we've been away
			for !k.lock.IsLocked() {
				transport, ok := queuedWrites.Dequeue()
				if !ok {
					break
				}

				if !k.write(transport) {
					return
				}
			}
		}
	}
}

// WriteCommand will queue a command to be sent to the host. Commands are
// never held back by keyboard locks.
func (k *TelnetKeyboard) WriteCommand(c Command, postSend func() error) {
	select {
	case k.input <- keyboardTransport{command: c, postSend: postSend}:
	case <-k.stopped:
	}
}

// WriteRecord sends one 5250 record to the host, doubling IAC bytes and
// appending IAC EOR, and returns once it has been written. The record waits
// behind any active keyboard lock.
func (k *TelnetKeyboard) WriteRecord(ctx context.Context, record []byte) error {
	result, err := k.QueueRecord(ctx, record)
	if err != nil {
		return err
	}

	return k.AwaitRecord(ctx, result)
}

// QueueRecord hands a record to the keyboard loop without waiting for it to
// be written. Records go out in the order they were queued. Pass the
// returned channel to AwaitRecord for the write result.
func (k *TelnetKeyboard) QueueRecord(ctx context.Context, record []byte) (<-chan error, error) {
	result := make(chan error, 1)
	transport := keyboardTransport{record: record, result: result}

	select {
	case k.input <- transport:
		return result, nil
	case <-k.stopped:
		return nil, ErrKeyboardClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AwaitRecord blocks until a record queued with QueueRecord has been written
func (k *TelnetKeyboard) AwaitRecord(ctx context.Context, result <-chan error) error {
	select {
	case err := <-result:
		return err
	case <-k.stopped:
		// The loop fails every queued record on the way out
		select {
		case err := <-result:
			return err
		default:
			return ErrKeyboardClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// waitForExit will block until the keyboard has been disposed of
func (k *TelnetKeyboard) waitForExit() {
	<-k.complete
	k.complete <- true
}
