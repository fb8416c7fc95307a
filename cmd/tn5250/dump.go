package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/moodclient/tn5250"
	"github.com/moodclient/tn5250/datastream"
	"github.com/moodclient/tn5250/ebcdic"
	"github.com/moodclient/tn5250/internal/appconfig"
)

// dumpStream prints every record of a captured telnet stream. Telnet
// commands between records are counted, not printed.
func dumpStream(out io.Writer, in io.Reader, page *ebcdic.CodePage) error {
	scanner := tn5250.NewRecordScanner(in)

	records, commands := 0, 0
	for scanner.Scan() {
		if err := scanner.Err(); err != nil {
			_, _ = fmt.Fprintf(out, "skipped: %v\n", err)
			continue
		}
		if _, ok := scanner.Command(); ok {
			commands++
			continue
		}

		record, ok := scanner.Record()
		if !ok {
			continue
		}

		records++
		_, _ = fmt.Fprintf(out, "#%d ", records)
		if err := datastream.Dump(out, record, page); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "%d records, %d telnet commands\n", records, commands)
	return err
}

func newDumpCmd(cfgPath *string) *cobra.Command {
	var ccsid int
	cmd := &cobra.Command{
		Use:   "dump <file|->",
		Short: "Hex dump the records of a captured telnet stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(*cfgPath)
			if err != nil {
				return err
			}
			if ccsid != 0 {
				cfg.CCSID = ccsid
			}
			registry, err := cfg.Registry()
			if err != nil {
				return err
			}
			page, err := registry.Lookup(cfg.CCSID)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = file.Close() }()
				in = file
			}

			return dumpStream(cmd.OutOrStdout(), in, page)
		},
	}
	cmd.Flags().IntVar(&ccsid, "ccsid", 0, "code page for the text column (overrides config)")

	return cmd
}
