package tn5250

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// readDeadliner is implemented by net.Conn and by anything else that can
// time out a blocking read
type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// deadlineReader bounds each blocking read with the read timeout so the
// printer notices a cancelled context without waiting for the host
type deadlineReader struct {
	ctx     context.Context
	reader  io.Reader
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	deadliner, canDeadline := r.reader.(readDeadliner)

	for {
		if err := r.ctx.Err(); err != nil {
			return 0, err
		}

		if canDeadline && r.timeout > 0 {
			_ = deadliner.SetReadDeadline(time.Now().Add(r.timeout))
		}

		n, err := r.reader.Read(p)

		// Don't worry about temporary errors
		var netErr net.Error
		if n == 0 && errors.As(err, &netErr) && netErr.Timeout() {
			continue
		}

		return n, err
	}
}

// TelnetPrinter is a Terminal subsidiary that reads from the host. Telnet
// commands are handed to the terminal's telopts and complete records are
// pushed onto a bounded channel for the consumer.
type TelnetPrinter struct {
	scanner   *RecordScanner
	records   chan []byte
	complete  chan error
	stopped   chan struct{}
	eventPump *terminalEventPump
}

func newTelnetPrinter(ctx context.Context, inputStream io.Reader, readTimeout time.Duration, queueSize int, eventPump *terminalEventPump) *TelnetPrinter {
	reader := &deadlineReader{
		ctx:     ctx,
		reader:  inputStream,
		timeout: readTimeout,
	}

	return &TelnetPrinter{
		scanner:   NewRecordScanner(reader),
		records:   make(chan []byte, queueSize),
		complete:  make(chan error, 1),
		stopped:   make(chan struct{}),
		eventPump: eventPump,
	}
}

func (p *TelnetPrinter) printerLoop(ctx context.Context, terminal *Terminal) {
	defer close(p.records)

printerLoop:
	for ctx.Err() == nil && p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			p.eventPump.EncounteredError(err)
			continue
		}

		if record, isRecord := p.scanner.Record(); isRecord {
			p.eventPump.InboundRecord(record)

			select {
			case p.records <- record:
			case <-ctx.Done():
				break printerLoop
			}

			continue
		}

		command, isCommand := p.scanner.Command()
		if !isCommand || command.OpCode == NOP || command.OpCode == GA {
			continue
		}

		p.eventPump.InboundCommand(command)

		if err := terminal.processTelOptCommand(command); err != nil {
			p.eventPump.EncounteredError(err)
		}
	}

	err := p.scanner.Err()
	if err == nil && ctx.Err() == nil {
		err = io.EOF
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		err = nil
	}

	p.complete <- err
	close(p.stopped)
}

// Records returns the channel complete records arrive on. The channel is
// closed when the printer stops.
func (p *TelnetPrinter) Records() <-chan []byte {
	return p.records
}

// waitForExit will block until the printer is disposed of
func (p *TelnetPrinter) waitForExit() error {
	err := <-p.complete
	p.complete <- err
	return err
}
