package tn5250

import (
	"context"
)

type eventType byte

const (
	eventUnknown eventType = iota
	eventError
	eventInboundCommand
	eventOutboundCommand
	eventInboundRecord
	eventOutboundRecord
)

type eventsTransport struct {
	eventType eventType
	err       error
	command   Command
	record    []byte
}

// terminalEventPump moves events raised on the printer and keyboard goroutines
// onto the terminal loop, so hooks never run on the I/O goroutines
type terminalEventPump struct {
	ctx    context.Context
	events chan eventsTransport
}

func newEventPump(ctx context.Context) *terminalEventPump {
	return &terminalEventPump{
		ctx:    ctx,
		events: make(chan eventsTransport, 100),
	}
}

func (p *terminalEventPump) processEvent(terminal *Terminal, event eventsTransport) {
	switch event.eventType {
	case eventError:
		terminal.encounteredErrorHooks.Fire(terminal, event.err)
	case eventInboundCommand:
		terminal.inboundCommandHooks.Fire(terminal, event.command)
	case eventOutboundCommand:
		terminal.outboundCommandHooks.Fire(terminal, event.command)
	case eventInboundRecord:
		terminal.inboundRecordHooks.Fire(terminal, event.record)
	case eventOutboundRecord:
		terminal.outboundRecordHooks.Fire(terminal, event.record)
	default:
		panic("invalid event")
	}
}

func (p *terminalEventPump) drain(terminal *Terminal) {
	for {
		select {
		case ev := <-p.events:
			p.processEvent(terminal, ev)
		default:
			return
		}
	}
}

// TerminalLoop fires hooks until the pump's context is cancelled, then fires
// whatever is still queued
func (p *terminalEventPump) TerminalLoop(terminal *Terminal, done chan<- struct{}) {
	defer close(done)
	defer p.drain(terminal)

	for {
		select {
		case ev := <-p.events:
			p.processEvent(terminal, ev)
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *terminalEventPump) push(event eventsTransport) {
	select {
	case p.events <- event:
	case <-p.ctx.Done():
	}
}

func (p *terminalEventPump) EncounteredError(err error) {
	p.push(eventsTransport{eventType: eventError, err: err})
}

func (p *terminalEventPump) InboundCommand(c Command) {
	p.push(eventsTransport{eventType: eventInboundCommand, command: c})
}

func (p *terminalEventPump) OutboundCommand(c Command) {
	p.push(eventsTransport{eventType: eventOutboundCommand, command: c})
}

func (p *terminalEventPump) InboundRecord(record []byte) {
	p.push(eventsTransport{eventType: eventInboundRecord, record: record})
}

func (p *terminalEventPump) OutboundRecord(record []byte) {
	p.push(eventsTransport{eventType: eventOutboundRecord, record: record})
}
