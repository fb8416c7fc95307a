package tn5250

import "time"

const (
	// DefaultReadTimeout bounds each blocking read from the host
	DefaultReadTimeout = 500 * time.Millisecond
	// DefaultQueueSize is the capacity of the inbound record channel
	DefaultQueueSize = 64
)

type TerminalConfig struct {
	// TelOpts indicates which TelOpts the terminal should request from the host, and which the host
	// should be permitted to request from us. A TN5250E client runs TRANSMIT-BINARY and EOR on both
	// sides and TERMINAL-TYPE and NEW-ENVIRON locally; see the telopts package.
	TelOpts []TelnetOption

	// EventHooks is a set of callbacks that the terminal will call when the relevant
	// event occurs.  You can register additional callbacks after creation with
	// Terminal.Register* methods.
	EventHooks EventHooks

	// ReadTimeout bounds each blocking read. When it elapses without data the read
	// is retried, so it only controls how quickly the printer notices cancellation.
	// Zero selects DefaultReadTimeout.
	ReadTimeout time.Duration

	// QueueSize is the capacity of the channel complete records are delivered on.
	// When the consumer falls behind, the printer stops reading until there is room.
	// Zero selects DefaultQueueSize.
	QueueSize int
}

func (c TerminalConfig) withDefaults() TerminalConfig {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}

	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}

	return c
}
