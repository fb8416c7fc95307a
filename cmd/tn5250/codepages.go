package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moodclient/tn5250/ebcdic"
	"github.com/moodclient/tn5250/internal/appconfig"
)

func newCodePagesCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codepages",
		Short: "Inspect host code pages",
	}

	cmd.AddCommand(newCodePagesListCmd(cfgPath))
	cmd.AddCommand(newCodePagesExportCmd(cfgPath))

	return cmd
}

func loadRegistry(cfgPath string) (*ebcdic.Registry, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return cfg.Registry()
}

func newCodePagesListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and loaded code pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry(*cfgPath)
			if err != nil {
				return err
			}

			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(out, "CCSID\tNAME\tSOURCE")
			for _, ccsid := range ebcdic.CCSIDs() {
				page, err := registry.Lookup(ccsid)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%d\t%s\tbuilt-in\n", ccsid, page.Name())
			}
			for _, ccsid := range registry.Registered() {
				page, err := registry.Lookup(ccsid)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%d\t%s\tjson\n", ccsid, page.Name())
			}
			return out.Flush()
		},
	}
}

func newCodePagesExportCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <ccsid|name>",
		Short: "Print a code page as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry(*cfgPath)
			if err != nil {
				return err
			}

			var page *ebcdic.CodePage
			if ccsid, convErr := strconv.Atoi(args[0]); convErr == nil {
				page, err = registry.Lookup(ccsid)
			} else {
				page, err = registry.LookupName(args[0])
			}
			if err != nil {
				return err
			}

			data, err := ebcdic.ExportJSON(page)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
