package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/driftwall/driftwall/pkg/cache"
	"github.com/driftwall/driftwall/pkg/config"
	"github.com/driftwall/driftwall/pkg/daemon"
	"github.com/driftwall/driftwall/pkg/pixel"
	"github.com/driftwall/driftwall/pkg/waylandclient"
)

var Fatal = fatalErrorHandler

func fatalErrorHandler(cmd *cobra.Command, message string, code int) {
	cmd.PrintErrln(message)
	os.Exit(code)
}

// Execute runs driftwalld's single cobra command: there is no verb
// here the way cmd/driftwall has query/img/clear/..., driftwalld only
// ever does one thing (spec.md §6 "driftwalld").
func Execute() {
	root := newRootCmd()
	root.SetContext(context.Background())
	root.SetOut(os.Stdout)
	if err := root.Execute(); err != nil {
		Fatal(root, err.Error(), 1)
	}
}

func newRootCmd() *cobra.Command {
	envCfg, err := config.LoadDaemonConfig()
	if err != nil {
		envCfg = config.DaemonConfig{}
	}

	opts := struct {
		format    string
		noCache   bool
		layer     string
		namespace string
	}{
		format:    firstNonEmpty(envCfg.Format, "xrgb"),
		noCache:   envCfg.NoCache,
		layer:     envCfg.Layer,
		namespace: envCfg.Namespace,
	}

	cmd := &cobra.Command{
		Use:   "driftwalld",
		Short: "Animated Wayland wallpaper daemon.",
		Long:  "driftwalld holds the Wayland layer-shell connection open and redraws every output's background (spec.md).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd, opts.format, opts.noCache, opts.layer, opts.namespace)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", opts.format, "pixel format presented to the compositor: xrgb, xbgr, rgb, bgr")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", opts.noCache, "disable the on-disk decoded-animation cache")
	cmd.Flags().StringVar(&opts.layer, "layer", opts.layer, "layer-shell layer: background, bottom, top, overlay")
	cmd.Flags().StringVar(&opts.namespace, "namespace", opts.namespace, "IPC socket namespace, for running more than one daemon per user")

	return cmd
}

func runDaemon(cmd *cobra.Command, formatFlag string, noCache bool, layerFlag, namespace string) error {
	setupLogging()

	format, err := pixel.ParseFormat(formatFlag)
	if err != nil {
		return fmt.Errorf("driftwalld: %w", err)
	}
	layer, err := parseLayer(layerFlag)
	if err != nil {
		return fmt.Errorf("driftwalld: %w", err)
	}

	cacheDir := ""
	if !noCache {
		cacheDir, err = cache.Dir(namespace)
		if err != nil {
			log.Warn().Err(err).Msg("[driftwalld] disk cache unavailable, continuing without it")
			noCache = true
		}
	}

	cfg := daemon.Config{
		Namespace: namespace,
		Layer:     layer,
		Format:    format,
		NoCache:   noCache,
		CacheDir:  cacheDir,
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("driftwalld: %w", err)
	}
	defer d.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	watchReload(ctx, d)

	return d.Run(ctx)
}

// watchReload handles SIGUSR2 as "restore every output's last
// content", separately from the SIGINT/SIGTERM/SIGHUP shutdown signals
// above since it must not cancel ctx (SPEC_FULL.md "reload-as-restore").
func watchReload(ctx context.Context, d *daemon.Daemon) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR2)
	go func() {
		for {
			select {
			case <-ctx.Done():
				signal.Stop(sigCh)
				return
			case <-sigCh:
				if err := d.Restore(nil); err != nil {
					log.Error().Err(err).Msg("[driftwalld] SIGUSR2 restore failed")
				}
			}
		}
	}()
}

func parseLayer(s string) (waylandclient.Layer, error) {
	switch s {
	case "", "background":
		return waylandclient.LayerBackground, nil
	case "bottom":
		return waylandclient.LayerBottom, nil
	case "top":
		return waylandclient.LayerTop, nil
	case "overlay":
		return waylandclient.LayerOverlay, nil
	default:
		return 0, fmt.Errorf("unknown layer %q", s)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// setupLogging configures zerolog's global logger: human-readable
// console output on a terminal, JSON otherwise, level from LOG_LEVEL
// (spec.md ambient logging, following the teacher's zerolog-everywhere
// convention).
func setupLogging() {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
