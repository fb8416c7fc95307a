package utils

import (
	"fmt"
	"strings"

	"pkt.systems/pslog"

	"github.com/moodclient/tn5250"
	"github.com/moodclient/tn5250/datastream"
	"github.com/moodclient/tn5250/ebcdic"
)

// Level picks the pslog method an event is logged with
type Level int

const (
	LevelNone Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelNone:  "none",
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel reads a level name as written in configuration files
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}

	for level, levelName := range levelNames {
		if levelName == name {
			return level, nil
		}
	}

	return LevelNone, fmt.Errorf("unknown log level %q", name)
}

type DebugLogConfig struct {
	EncounteredErrorLevel Level
	InboundCommandLevel   Level
	OutboundCommandLevel  Level
	InboundRecordLevel    Level
	OutboundRecordLevel   Level
	TelOptEventLevel      Level
	TelOptStateLevel      Level

	// CodePage decodes the text column of record dumps. Nil selects CCSID 37.
	CodePage *ebcdic.CodePage
}

// DefaultDebugLogConfig logs negotiation at debug and full record dumps at
// trace
func DefaultDebugLogConfig() DebugLogConfig {
	return DebugLogConfig{
		EncounteredErrorLevel: LevelWarn,
		InboundCommandLevel:   LevelDebug,
		OutboundCommandLevel:  LevelDebug,
		InboundRecordLevel:    LevelTrace,
		OutboundRecordLevel:   LevelTrace,
		TelOptEventLevel:      LevelDebug,
		TelOptStateLevel:      LevelDebug,
	}
}

// DebugLog writes terminal traffic to a pslog logger
type DebugLog struct {
	logger pslog.Logger
	config DebugLogConfig
}

func NewDebugLog(logger pslog.Logger, config DebugLogConfig) *DebugLog {
	if config.CodePage == nil {
		config.CodePage, _ = ebcdic.Lookup(37)
	}

	return &DebugLog{logger: logger, config: config}
}

// Hooks returns the log's handlers for TerminalConfig.EventHooks, which sees
// the negotiation from its first command
func (l *DebugLog) Hooks() tn5250.EventHooks {
	return tn5250.EventHooks{
		EncounteredError: []tn5250.ErrorHandler{l.logError},
		InboundCommand:   []tn5250.CommandHandler{l.logInboundCommand},
		OutboundCommand:  []tn5250.CommandHandler{l.logOutboundCommand},
		InboundRecord:    []tn5250.RecordHandler{l.logInboundRecord},
		OutboundRecord:   []tn5250.RecordHandler{l.logOutboundRecord},
		TelOptEvent:      []tn5250.TelOptEventHandler{l.logTelOptEvent},
	}
}

// Register attaches the log to a running terminal
func (l *DebugLog) Register(terminal *tn5250.Terminal) {
	terminal.RegisterEncounteredErrorHook(l.logError)
	terminal.RegisterInboundCommandHook(l.logInboundCommand)
	terminal.RegisterOutboundCommandHook(l.logOutboundCommand)
	terminal.RegisterInboundRecordHook(l.logInboundRecord)
	terminal.RegisterOutboundRecordHook(l.logOutboundRecord)
	terminal.RegisterTelOptEventHook(l.logTelOptEvent)
}

func (l *DebugLog) log(level Level, msg string, keyvals ...any) {
	switch level {
	case LevelTrace:
		l.logger.Trace(msg, keyvals...)
	case LevelDebug:
		l.logger.Debug(msg, keyvals...)
	case LevelInfo:
		l.logger.Info(msg, keyvals...)
	case LevelWarn:
		l.logger.Warn(msg, keyvals...)
	case LevelError:
		l.logger.Error(msg, keyvals...)
	}
}

func (l *DebugLog) logError(terminal *tn5250.Terminal, err error) {
	l.log(l.config.EncounteredErrorLevel, "terminal error", "err", err)
}

func (l *DebugLog) logInboundCommand(terminal *tn5250.Terminal, c tn5250.Command) {
	l.log(l.config.InboundCommandLevel, "received command", "command", terminal.CommandString(c))
}

func (l *DebugLog) logOutboundCommand(terminal *tn5250.Terminal, c tn5250.Command) {
	l.log(l.config.OutboundCommandLevel, "sent command", "command", terminal.CommandString(c))
}

func (l *DebugLog) recordFields(record []byte) []any {
	fields := []any{"len", len(record)}
	if header, err := datastream.ParseHeader(record); err == nil {
		fields = append(fields, "opcode", header.Opcode.String())
	}

	return append(fields, "dump", datastream.DumpString(record, l.config.CodePage))
}

func (l *DebugLog) logInboundRecord(terminal *tn5250.Terminal, record []byte) {
	if l.config.InboundRecordLevel == LevelNone {
		return
	}

	l.log(l.config.InboundRecordLevel, "received record", l.recordFields(record)...)
}

func (l *DebugLog) logOutboundRecord(terminal *tn5250.Terminal, record []byte) {
	if l.config.OutboundRecordLevel == LevelNone {
		return
	}

	l.log(l.config.OutboundRecordLevel, "sent record", l.recordFields(record)...)
}

func (l *DebugLog) logTelOptEvent(terminal *tn5250.Terminal, event tn5250.TelOptEvent) {
	switch typed := event.(type) {
	case tn5250.TelOptStateChangeEvent:
		l.log(l.config.TelOptStateLevel, "telopt state change",
			"option", typed.Option().String(),
			"side", typed.Side.String(),
			"old_state", typed.OldState.String(),
			"new_state", typed.NewState.String(),
		)
	default:
		l.log(l.config.TelOptEventLevel, event.String(), "option", event.Option().String())
	}
}
