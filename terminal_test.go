package tn5250_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/moodclient/tn5250"
	"github.com/moodclient/tn5250/telopts"
)

type hostItem struct {
	record  []byte
	command tn5250.Command
}

// fakeHost is the far end of a net.Pipe. It scans everything the terminal
// writes onto a channel so the test can write without deadlocking the pipe.
type fakeHost struct {
	conn  net.Conn
	items chan hostItem
}

func newFakeHost(conn net.Conn) *fakeHost {
	host := &fakeHost{conn: conn, items: make(chan hostItem, 256)}

	go func() {
		defer close(host.items)

		scanner := tn5250.NewRecordScanner(conn)
		for scanner.Scan() {
			if scanner.Err() != nil {
				continue
			}

			if record, ok := scanner.Record(); ok {
				host.items <- hostItem{record: record}
			} else if command, ok := scanner.Command(); ok {
				host.items <- hostItem{command: command}
			}
		}
	}()

	return host
}

func (h *fakeHost) send(t *testing.T, data ...byte) {
	t.Helper()

	if _, err := h.conn.Write(data); err != nil {
		t.Fatalf("host write: %v", err)
	}
}

// waitFor consumes terminal output until match accepts an item
func (h *fakeHost) waitFor(t *testing.T, what string, match func(hostItem) bool) hostItem {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case item, ok := <-h.items:
			if !ok {
				t.Fatalf("connection closed waiting for %s", what)
			}
			if match(item) {
				return item
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func (h *fakeHost) waitForCommand(t *testing.T, want tn5250.Command) {
	t.Helper()

	h.waitFor(t, fmt.Sprintf("%+v", want), func(item hostItem) bool {
		return cmp.Equal(item.command, want)
	})
}

func (h *fakeHost) waitForSubnegotiation(t *testing.T, option tn5250.TelOptCode) []byte {
	t.Helper()

	item := h.waitFor(t, "subnegotiation", func(item hostItem) bool {
		return item.command.OpCode == tn5250.SB && item.command.Option == option
	})

	return item.command.Subnegotiation
}

var testVars = map[string]string{
	telopts.VarUser:     "BOB",
	telopts.VarDevName:  "DEV1",
	telopts.VarKbdType:  "USB",
	telopts.VarCodePage: "37",
	telopts.VarCharset:  "697",
}

func startTerminal(t *testing.T, terminals ...string) (*tn5250.Terminal, *fakeHost) {
	t.Helper()

	if len(terminals) == 0 {
		terminals = []string{telopts.TerminalType3179}
	}

	client, server := net.Pipe()
	host := newFakeHost(server)

	terminal, err := tn5250.NewTerminal(context.Background(), client, tn5250.TerminalConfig{
		TelOpts: []tn5250.TelnetOption{
			telopts.RegisterTRANSMITBINARY(tn5250.TelOptRequestBoth),
			telopts.RegisterEOR(tn5250.TelOptRequestBoth),
			telopts.RegisterTTYPE(tn5250.TelOptAllowLocal, terminals),
			telopts.RegisterNEWENVIRON(tn5250.TelOptAllowLocal, telopts.NEWENVIRONConfig{Vars: testVars}),
		},
		ReadTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		terminal.Close()
		_ = client.Close()
		_ = server.Close()
		_ = terminal.WaitForExit()
	})

	return terminal, host
}

func negotiate(t *testing.T, terminal *tn5250.Terminal, host *fakeHost) {
	t.Helper()

	host.send(t, tn5250.IAC, tn5250.DO, byte(tn5250.CodeTTYPE))
	host.waitForCommand(t, tn5250.Command{OpCode: tn5250.WILL, Option: tn5250.CodeTTYPE})

	host.send(t, tn5250.IAC, tn5250.SB, byte(tn5250.CodeTTYPE), 1, tn5250.IAC, tn5250.SE)
	host.waitForSubnegotiation(t, tn5250.CodeTTYPE)

	host.send(t,
		tn5250.IAC, tn5250.DO, byte(tn5250.CodeEOR),
		tn5250.IAC, tn5250.WILL, byte(tn5250.CodeEOR),
		tn5250.IAC, tn5250.DO, byte(tn5250.CodeTRANSMITBINARY),
		tn5250.IAC, tn5250.WILL, byte(tn5250.CodeTRANSMITBINARY),
	)

	if err := terminal.WaitForNegotiation(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("negotiation: %v", err)
	}
}

func TestNegotiationCompletes(t *testing.T) {
	terminal, host := startTerminal(t)
	negotiate(t, terminal, host)

	if got := terminal.Negotiated(); got != tn5250.NegotiatedAll {
		t.Errorf("negotiated flags %05b", got)
	}

	option, err := tn5250.GetTelOpt[telopts.TTYPE](terminal)
	if err != nil || option == nil {
		t.Fatalf("TTYPE not registered: %v", err)
	}

	if got := option.LastSent(); got != telopts.TerminalType3179 {
		t.Errorf("terminal type %q", got)
	}
}

func TestRecordsBothWays(t *testing.T) {
	terminal, host := startTerminal(t)
	negotiate(t, terminal, host)

	host.send(t, 0x00, 0x0A, 0x12, 0xA0, tn5250.IAC, tn5250.IAC, tn5250.IAC, tn5250.EOR)
	host.send(t, 0x01, tn5250.IAC, tn5250.EOR)

	for _, want := range [][]byte{{0x00, 0x0A, 0x12, 0xA0, 0xFF}, {0x01}} {
		select {
		case record := <-terminal.Records():
			if !bytes.Equal(record, want) {
				t.Errorf("record % X, want % X", record, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a record")
		}
	}

	if err := terminal.WriteRecord(context.Background(), []byte{0x12, 0xFF, 0x00}); err != nil {
		t.Fatal(err)
	}

	item := host.waitFor(t, "record", func(item hostItem) bool { return item.record != nil })
	if !bytes.Equal(item.record, []byte{0x12, 0xFF, 0x00}) {
		t.Errorf("host received % X", item.record)
	}
}

func TestQueuedRecordsKeepOrder(t *testing.T) {
	terminal, host := startTerminal(t)
	negotiate(t, terminal, host)

	var results []<-chan error
	for i := range 3 {
		result, err := terminal.QueueRecord(context.Background(), []byte{0x12, 0xA0, byte(i)})
		if err != nil {
			t.Fatalf("queue record %d: %v", i, err)
		}
		results = append(results, result)
	}

	for i, result := range results {
		if err := terminal.AwaitRecord(context.Background(), result); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	for i := range 3 {
		item := host.waitFor(t, "record", func(item hostItem) bool { return item.record != nil })
		if want := []byte{0x12, 0xA0, byte(i)}; !bytes.Equal(item.record, want) {
			t.Errorf("record %d is % X, want % X", i, item.record, want)
		}
	}
}

func TestEORRefused(t *testing.T) {
	terminal, host := startTerminal(t)

	host.send(t, tn5250.IAC, tn5250.WONT, byte(tn5250.CodeEOR))

	err := terminal.WaitForNegotiation(context.Background(), 2*time.Second)
	if !errors.Is(err, tn5250.ErrEORRefused) {
		t.Fatalf("expected ErrEORRefused, got %v", err)
	}

	select {
	case _, open := <-terminal.Records():
		if open {
			t.Error("no record was sent")
		}
	case <-time.After(2 * time.Second):
		t.Error("terminal kept running after EOR was refused")
	}
}

func TestNegotiationTimeout(t *testing.T) {
	terminal, _ := startTerminal(t)

	err := terminal.WaitForNegotiation(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, tn5250.ErrNegotiationTimeout) {
		t.Fatalf("expected ErrNegotiationTimeout, got %v", err)
	}
}

func TestConnectionClosedDuringNegotiation(t *testing.T) {
	terminal, host := startTerminal(t)

	_ = host.conn.Close()

	err := terminal.WaitForNegotiation(context.Background(), 2*time.Second)
	if !errors.Is(err, tn5250.ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}

func TestUnknownOptionsRefused(t *testing.T) {
	_, host := startTerminal(t)

	host.send(t, tn5250.IAC, tn5250.DO, 31, tn5250.IAC, tn5250.WILL, 1)

	host.waitForCommand(t, tn5250.Command{OpCode: tn5250.WONT, Option: 31})
	host.waitForCommand(t, tn5250.Command{OpCode: tn5250.DONT, Option: 1})
}

func TestTerminalTypeRepeatsLastEntry(t *testing.T) {
	_, host := startTerminal(t, telopts.TerminalType3477, telopts.TerminalType3179)

	host.send(t, tn5250.IAC, tn5250.DO, byte(tn5250.CodeTTYPE))
	host.waitForCommand(t, tn5250.Command{OpCode: tn5250.WILL, Option: tn5250.CodeTTYPE})

	want := []string{telopts.TerminalType3477, telopts.TerminalType3179, telopts.TerminalType3179}
	for _, terminalType := range want {
		host.send(t, tn5250.IAC, tn5250.SB, byte(tn5250.CodeTTYPE), 1, tn5250.IAC, tn5250.SE)

		got := host.waitForSubnegotiation(t, tn5250.CodeTTYPE)
		if diff := cmp.Diff(append([]byte{0}, terminalType...), got); diff != "" {
			t.Errorf("TTYPE IS (-want +got):\n%s", diff)
		}
	}
}

func TestNewEnvironAnswersSend(t *testing.T) {
	_, host := startTerminal(t)

	host.send(t, tn5250.IAC, tn5250.DO, byte(tn5250.CodeNEWENVIRON))
	host.waitForCommand(t, tn5250.Command{OpCode: tn5250.WILL, Option: tn5250.CodeNEWENVIRON})

	send := []byte{tn5250.IAC, tn5250.SB, byte(tn5250.CodeNEWENVIRON), 1, 3}
	send = append(send, "IBMRSEED"...)
	send = append(send, 0x00, 0x03, 0x41, 0x01, 0x02, 0x7F, 0x10, 0x20)
	send = append(send, 0, 3, tn5250.IAC, tn5250.SE)
	host.send(t, send...)

	var want []byte
	want = append(want, 0)
	want = append(append(append(want, 0), "USER"...), 1)
	want = append(want, "BOB"...)
	for _, pair := range [][2]string{{"CHARSET", "697"}, {"CODEPAGE", "37"}, {"DEVNAME", "DEV1"}, {"IBMRSEED", ""}, {"KBDTYPE", "USB"}} {
		want = append(append(want, 3), pair[0]...)
		want = append(append(want, 1), pair[1]...)
	}

	got := host.waitForSubnegotiation(t, tn5250.CodeNEWENVIRON)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NEW-ENVIRON IS (-want +got):\n%s", diff)
	}
}
