package session

import (
	"context"
	"net"
	"strconv"
	"time"

	"pkt.systems/pslog"

	"github.com/moodclient/tn5250"
	"github.com/moodclient/tn5250/ebcdic"
	"github.com/moodclient/tn5250/telopts"
	"github.com/moodclient/tn5250/utils"
)

const (
	DefaultPort               = 23
	DefaultCCSID              = 37
	DefaultKeyboardType       = "USB"
	DefaultConnectTimeout     = 10 * time.Second
	DefaultNegotiationTimeout = 10 * time.Second
	DefaultShutdownTimeout    = 2 * time.Second
)

// Dialer opens the byte stream a session runs over. *net.Dialer and
// *tls.Dialer both satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config describes one session. The zero value connects to port 23 with
// CCSID 37 on a 24x80 display.
type Config struct {
	// Host and Port are used when Connect is given an empty host or a zero port
	Host string
	Port int

	// CCSID selects the code page from Registry. CodePage, when set, is used
	// instead.
	CCSID    int
	CodePage *ebcdic.CodePage
	Registry *ebcdic.Registry

	// DeviceName asks the host for a specific display device. Empty lets
	// the host pick one.
	DeviceName   string
	User         string
	KeyboardType string
	// CharacterSet is the graphic character set sent with CODEPAGE. Empty
	// picks the usual one for the code page, or omits it when there is none.
	CharacterSet string

	// TerminalType overrides the type offered during negotiation. It
	// defaults to a 24x80 3179 or, with Wide, a 27x132 3477.
	TerminalType string
	Wide         bool

	ConnectTimeout     time.Duration
	NegotiationTimeout time.Duration
	// ReadTimeout bounds each socket read; it controls how quickly the
	// reader notices a disconnect
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	QueueSize       int

	Dialer Dialer
	Logger pslog.Logger

	// DebugLog, when set, logs the telnet traffic of the session
	DebugLog *utils.DebugLogConfig
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}

	if c.CCSID == 0 {
		c.CCSID = DefaultCCSID
	}

	if c.Registry == nil {
		c.Registry = ebcdic.Default()
	}

	if c.KeyboardType == "" {
		c.KeyboardType = DefaultKeyboardType
	}

	if c.TerminalType == "" {
		c.TerminalType = telopts.TerminalType3179
		if c.Wide {
			c.TerminalType = telopts.TerminalType3477
		}
	}

	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}

	if c.NegotiationTimeout <= 0 {
		c.NegotiationTimeout = DefaultNegotiationTimeout
	}

	if c.ReadTimeout <= 0 {
		c.ReadTimeout = tn5250.DefaultReadTimeout
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.QueueSize <= 0 {
		c.QueueSize = tn5250.DefaultQueueSize
	}

	if c.Dialer == nil {
		c.Dialer = &net.Dialer{Timeout: c.ConnectTimeout}
	}

	if c.Logger == nil {
		c.Logger = pslog.Ctx(context.Background())
	}

	return c
}

func (c Config) codePage() (*ebcdic.CodePage, error) {
	if c.CodePage != nil {
		return c.CodePage, nil
	}

	return c.Registry.Lookup(c.CCSID)
}

// characterSets maps a CCSID to its graphic character set identifier
var characterSets = map[int]string{
	37: "697", 273: "697", 277: "697", 278: "697", 280: "697", 284: "697",
	285: "697", 297: "697", 500: "697", 871: "697",
	1140: "695", 1141: "695", 1147: "695", 1148: "695",
	870: "959", 875: "925", 1025: "1150", 1026: "1126",
}

// environment is what NEW-ENVIRON offers the host
func (c Config) environment(page *ebcdic.CodePage) map[string]string {
	env := map[string]string{
		telopts.VarUser:     c.User,
		telopts.VarDevName:  c.DeviceName,
		telopts.VarKbdType:  c.KeyboardType,
		telopts.VarCodePage: strconv.Itoa(page.CCSID()),
	}

	charset := c.CharacterSet
	if charset == "" {
		charset = characterSets[page.CCSID()]
	}
	if charset != "" {
		env[telopts.VarCharset] = charset
	}

	return env
}

func (c Config) telOpts(page *ebcdic.CodePage) []tn5250.TelnetOption {
	return []tn5250.TelnetOption{
		telopts.RegisterTRANSMITBINARY(tn5250.TelOptRequestBoth),
		telopts.RegisterEOR(tn5250.TelOptRequestBoth),
		telopts.RegisterTTYPE(tn5250.TelOptAllowLocal, []string{c.TerminalType}),
		telopts.RegisterNEWENVIRON(tn5250.TelOptAllowLocal, telopts.NEWENVIRONConfig{Vars: c.environment(page)}),
	}
}
