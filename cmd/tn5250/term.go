package main

import (
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/moodclient/tn5250/internal/render"
)

func newTermCmd(cfgPath *string) *cobra.Command {
	var flags sessionFlags
	var logFile string
	cmd := &cobra.Command{
		Use:   "term [host[:port]]",
		Short: "Interactive display session",
		Long:  "Runs a full-screen display session. Ctrl-Q or Ctrl-C ends it; Esc is Attention and Ctrl-R is Reset.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// the screen owns the terminal, so logs go to a file or nowhere
			var logOut io.Writer = io.Discard
			if logFile != "" {
				file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return err
				}
				defer func() { _ = file.Close() }()
				logOut = file
			}

			ctx, sess, err := openSession(cmd.Context(), *cfgPath, args, &flags, logOut)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Disconnect() }()

			if err := sess.Connect(ctx, "", 0); err != nil {
				return err
			}

			scr, err := tcell.NewScreen()
			if err != nil {
				return err
			}

			if err := render.NewTerminal(sess, scr, pslog.Ctx(ctx)).Run(ctx); err != nil {
				return err
			}
			return sess.Disconnect()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")

	return cmd
}
