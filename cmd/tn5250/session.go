package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/moodclient/tn5250/internal/appconfig"
	"github.com/moodclient/tn5250/session"
)

// sessionFlags override the config file for a single run
type sessionFlags struct {
	ccsid  int
	device string
	wide   bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.ccsid, "ccsid", 0, "host code page (overrides config)")
	cmd.Flags().StringVar(&f.device, "device", "", "display device name to request")
	cmd.Flags().BoolVar(&f.wide, "wide", false, "offer a 27x132 display")
}

func (f *sessionFlags) apply(cfg *appconfig.Config) {
	if f.ccsid != 0 {
		cfg.CCSID = f.ccsid
	}
	if f.device != "" {
		cfg.DeviceName = f.device
	}
	if f.wide {
		cfg.Wide = true
	}
}

// parseTarget reads "host" or "host:port"
func parseTarget(target string) (string, int, error) {
	host, portText, err := net.SplitHostPort(target)
	if err != nil {
		return target, 0, nil
	}

	port, err := strconv.Atoi(portText)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", portText)
	}
	return host, port, nil
}

// openSession loads the config, applies the command line on top and builds
// an unconnected session. The returned context carries its logger.
func openSession(ctx context.Context, cfgPath string, args []string, flags *sessionFlags, logOut io.Writer) (context.Context, *session.Session, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return ctx, nil, err
	}
	flags.apply(&cfg)

	if len(args) > 0 {
		host, port, err := parseTarget(args[0])
		if err != nil {
			return ctx, nil, err
		}
		cfg.Host = host
		if port != 0 {
			cfg.Port = port
		}
	}
	if cfg.Host == "" {
		return ctx, nil, fmt.Errorf("no host given and none configured")
	}

	ctx, logger, err := withConfiguredLogger(ctx, cfg.Log.Level, logOut)
	if err != nil {
		return ctx, nil, err
	}

	sessionConfig, err := cfg.Session(logger)
	if err != nil {
		return ctx, nil, err
	}

	sess, err := session.New(sessionConfig)
	if err != nil {
		return ctx, nil, err
	}

	pslog.Ctx(ctx).Debug("session configured", "host", cfg.Host, "port", cfg.Port, "ccsid", cfg.CCSID)
	return ctx, sess, nil
}
