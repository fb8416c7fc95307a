package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/moodclient/tn5250/datastream"
	"github.com/moodclient/tn5250/internal/render"
)

// sendsAID reports whether text ends with a key that hands the screen to
// the host
func sendsAID(text string) bool {
	tokens := datastream.Tokenize(text)
	if len(tokens) == 0 {
		return false
	}

	_, ok := tokens[len(tokens)-1].Key.AID()
	return ok
}

func newScreenCmd(cfgPath *string) *cobra.Command {
	var flags sessionFlags
	var keys []string
	var styled bool
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "screen [host[:port]]",
		Short: "Connect, type keys and print the resulting screen",
		Long: "Connects, waits for the keyboard to unlock, types each --keys argument in turn and prints the screen.\n" +
			"Keys are literal text mixed with mnemonics such as [enter], [tab] or [pf3]. After a key that sends\n" +
			"the screen to the host the command waits for the host to answer before typing the next argument.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, sess, err := openSession(cmd.Context(), *cfgPath, args, &flags, os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Disconnect() }()

			if err := sess.Connect(ctx, "", 0); err != nil {
				return err
			}
			if err := sess.WaitForKeyboardUnlock(ctx, wait); err != nil {
				return fmt.Errorf("waiting for the first screen: %w", err)
			}

			for _, text := range keys {
				if err := sess.SendKeys(ctx, text); err != nil {
					return fmt.Errorf("keys %q: %w", text, err)
				}
				if !sendsAID(text) {
					continue
				}
				if err := sess.WaitForKeyboardLockCycle(ctx, wait); err != nil {
					return fmt.Errorf("keys %q: %w", text, err)
				}
			}

			out := cmd.OutOrStdout()
			if styled {
				lipgloss.EnableLegacyWindowsANSI(os.Stdout)
				_, _ = fmt.Fprintln(out, render.Styled(sess.Screen().Snapshot()))
			} else {
				_, _ = fmt.Fprintln(out, sess.ScreenText())
			}

			return sess.Disconnect()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVarP(&keys, "keys", "k", nil, "keystrokes to type, repeatable")
	cmd.Flags().BoolVar(&styled, "styled", false, "print with colors and a status line")
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for the host after each screen")

	return cmd
}
