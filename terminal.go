package tn5250

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// Terminal is a wrapper around a net.Conn that speaks the telnet layer of
// TN5250E. It negotiates the telopts a 5250 session needs and turns the
// connection into two streams of records: complete records from the host
// arrive on Records(), and records written with WriteRecord are escaped and
// terminated with IAC EOR.
//
// The terminal runs three goroutines: the printer, which reads from the
// host and answers telnet commands through the registered telopts, the
// keyboard, which serializes everything written to the host, and the
// terminal loop, which calls the error, command and record hooks. Telopt
// event hooks run on the goroutine that raised the event, usually the
// printer. Blocking inside any hook eventually blocks the printer.
//
// The printer stops reading while the record channel is full, so a consumer
// that stops draining Records() applies backpressure all the way to the host.
type Terminal struct {
	keyboard    *TelnetKeyboard
	printer     *TelnetPrinter
	options     map[TelOptCode]TelnetOption
	negotiation *negotiation
	cancel      context.CancelFunc
	pumpDone    chan struct{}

	encounteredErrorHooks *EventPublisher[error]
	inboundCommandHooks   *EventPublisher[Command]
	outboundCommandHooks  *EventPublisher[Command]
	inboundRecordHooks    *EventPublisher[[]byte]
	outboundRecordHooks   *EventPublisher[[]byte]
	telOptEventHooks      *EventPublisher[TelOptEvent]
}

// NewTerminal initializes a new terminal object and begins reading from
// the printer and writing to the keyboard. Telopt negotiation begins with the host
// immediately when this method is called.
//
// The terminal will continue until the passed context is cancelled, Close is
// called, or the connection is closed. The terminal never closes conn itself.
func NewTerminal(ctx context.Context, conn net.Conn, config TerminalConfig) (*Terminal, error) {
	return NewTerminalFromPipes(ctx, conn, conn, config)
}

// NewTerminalFromPipes is NewTerminal over a separate reader and writer. If
// reader can set read deadlines, config.ReadTimeout is applied to each read.
func NewTerminalFromPipes(ctx context.Context, reader io.Reader, writer io.Writer, config TerminalConfig) (*Terminal, error) {
	config = config.withDefaults()

	connCtx, connCancel := context.WithCancel(ctx)
	terminalCtx, terminalCancel := context.WithCancel(context.Background())

	pump := newEventPump(terminalCtx)

	terminal := &Terminal{
		keyboard:    newTelnetKeyboard(writer, pump),
		printer:     newTelnetPrinter(connCtx, reader, config.ReadTimeout, config.QueueSize, pump),
		options:     make(map[TelOptCode]TelnetOption),
		negotiation: newNegotiation(),
		cancel:      connCancel,
		pumpDone:    make(chan struct{}),

		encounteredErrorHooks: NewPublisher(config.EventHooks.EncounteredError),
		inboundCommandHooks:   NewPublisher(config.EventHooks.InboundCommand),
		outboundCommandHooks:  NewPublisher(config.EventHooks.OutboundCommand),
		inboundRecordHooks:    NewPublisher(config.EventHooks.InboundRecord),
		outboundRecordHooks:   NewPublisher(config.EventHooks.OutboundRecord),
		telOptEventHooks:      NewPublisher(config.EventHooks.TelOptEvent),
	}

	err := terminal.initTelopts(config.TelOpts)
	if err == nil {
		// Requests are queued on the keyboard before the printer starts, so
		// every telopt is in its requested state before the host can answer
		err = terminal.writeTelOptRequests()
	}
	if err != nil {
		connCancel()
		terminalCancel()
		return nil, err
	}

	go pump.TerminalLoop(terminal, terminal.pumpDone)
	go terminal.keyboard.keyboardLoop(connCtx)
	go terminal.printer.printerLoop(connCtx, terminal)

	go func() {
		defer terminalCancel()

		_ = terminal.printer.waitForExit()

		// If the printer closed because the conn died, the keyboard might not notice- cancel explicitly
		connCancel()
		terminal.keyboard.waitForExit()
	}()

	return terminal, nil
}

// Keyboard returns the object that is used for sending outbound communications
func (t *Terminal) Keyboard() *TelnetKeyboard {
	return t.keyboard
}

// Printer returns the object that is used for receiving inbound communications
func (t *Terminal) Printer() *TelnetPrinter {
	return t.printer
}

// Records returns the channel complete host records arrive on, in the order
// they were received. It is closed when the terminal stops.
func (t *Terminal) Records() <-chan []byte {
	return t.printer.Records()
}

// WriteRecord sends one 5250 record to the host. See TelnetKeyboard.WriteRecord.
func (t *Terminal) WriteRecord(ctx context.Context, record []byte) error {
	return t.keyboard.WriteRecord(ctx, record)
}

// QueueRecord queues a record for the host and returns at once. The records
// of every caller are written in queue order; AwaitRecord reports the
// result.
func (t *Terminal) QueueRecord(ctx context.Context, record []byte) (<-chan error, error) {
	return t.keyboard.QueueRecord(ctx, record)
}

// AwaitRecord waits for the write of a record queued with QueueRecord
func (t *Terminal) AwaitRecord(ctx context.Context, result <-chan error) error {
	return t.keyboard.AwaitRecord(ctx, result)
}

// Negotiated returns the TN5250E telopts agreed so far
func (t *Terminal) Negotiated() NegotiationFlags {
	return t.negotiation.Get()
}

// WaitForNegotiation blocks until TRANSMIT-BINARY and EOR are active in both
// directions and TERMINAL-TYPE is active locally. It returns ErrEORRefused if
// the host refuses EOR, ErrNegotiationTimeout if timeout elapses first and
// ErrConnectionClosed if the connection ends first. A zero timeout waits
// until ctx is done.
func (t *Terminal) WaitForNegotiation(ctx context.Context, timeout time.Duration) error {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case <-t.negotiation.done:
		return t.negotiation.err
	case <-t.printer.stopped:
		select {
		case <-t.negotiation.done:
			return t.negotiation.err
		default:
		}

		if err := t.printer.waitForExit(); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
		}
		return ErrConnectionClosed
	case <-timeoutC:
		return ErrNegotiationTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the printer and keyboard. It does not close the connection.
func (t *Terminal) Close() {
	t.cancel()
}

// WaitForExit will block until the terminal has ceased operation, either due to
// the context passed to NewTerminal being cancelled, Close, or the underlying
// connection closing. It returns the error that stopped the printer, which is
// io.EOF when the host closed the connection.
func (t *Terminal) WaitForExit() error {
	t.keyboard.waitForExit()

	err := t.printer.waitForExit()
	<-t.pumpDone
	return err
}

// RaiseTelOptEvent is called by telopt implementations to inject an event
// into the terminal event stream. State changes are also folded into the
// negotiation, and a host withdrawing EOR stops the terminal.
func (t *Terminal) RaiseTelOptEvent(event TelOptEvent) {
	if stateChange, isStateChange := event.(TelOptStateChangeEvent); isStateChange {
		if err := t.negotiation.observe(stateChange); err != nil {
			t.keyboard.eventPump.EncounteredError(err)
			t.cancel()
		}
	}

	t.telOptEventHooks.Fire(t, event)
}

// CommandString converts a Command object into a legible stream. This can be useful
// when logging a received command object
func (t *Terminal) CommandString(c Command) string {
	var sb strings.Builder
	sb.WriteString("IAC ")

	opCode, hasOpCode := commandCodes[c.OpCode]
	if !hasOpCode {
		opCode = strconv.Itoa(int(c.OpCode))
	}

	sb.WriteString(opCode)

	if c.OpCode == GA || c.OpCode == NOP || c.OpCode == EOR {
		return sb.String()
	}

	sb.WriteByte(' ')

	option, hasOption := t.options[c.Option]

	if !hasOption {
		sb.WriteString("? Unknown Option ")
		sb.WriteString(strconv.Itoa(int(c.Option)))
		sb.WriteString("?")
	} else {
		sb.WriteString(option.String())
	}

	if c.OpCode != SB {
		return sb.String()
	}

	sb.WriteByte(' ')

	if !hasOption {
		sb.WriteString(fmt.Sprintf("%+v", c.Subnegotiation))
	} else {
		str, err := option.SubnegotiationString(c.Subnegotiation)

		if err != nil {
			sb.WriteString(fmt.Sprintf("%+v", c.Subnegotiation))
		} else {
			sb.WriteString(str)
		}
	}

	sb.WriteString(" IAC SE")
	return sb.String()
}

// RegisterEncounteredErrorHook will register an event to be called when an error
// was encountered by the terminal or one of its subsidiaries. Errors returned
// directly to a caller, and the error that stops the printer, are not delivered here.
func (t *Terminal) RegisterEncounteredErrorHook(encounteredError ErrorHandler) {
	t.encounteredErrorHooks.Register(EventHook[error](encounteredError))
}

// RegisterInboundCommandHook will register an event to be called when a telnet
// command arrives from the host
func (t *Terminal) RegisterInboundCommandHook(inboundCommand CommandHandler) {
	t.inboundCommandHooks.Register(EventHook[Command](inboundCommand))
}

// RegisterOutboundCommandHook will register an event to be called when a command
// has been sent from the keyboard. This is primarily useful for debug logging.
func (t *Terminal) RegisterOutboundCommandHook(outboundCommand CommandHandler) {
	t.outboundCommandHooks.Register(EventHook[Command](outboundCommand))
}

// RegisterInboundRecordHook will register an event to be called for every record
// received from the host, before it is queued for the consumer
func (t *Terminal) RegisterInboundRecordHook(inboundRecord RecordHandler) {
	t.inboundRecordHooks.Register(EventHook[[]byte](inboundRecord))
}

// RegisterOutboundRecordHook will register an event to be called for every record
// the keyboard writes to the host
func (t *Terminal) RegisterOutboundRecordHook(outboundRecord RecordHandler) {
	t.outboundRecordHooks.Register(EventHook[[]byte](outboundRecord))
}

// RegisterTelOptEventHook will register an event to be called when a telopt delivers
// an event via RaiseTelOptEvent.
func (t *Terminal) RegisterTelOptEventHook(telOptEvent TelOptEventHandler) {
	t.telOptEventHooks.Register(EventHook[TelOptEvent](telOptEvent))
}
