// Command drtelemetry records and replays driving-simulator telemetry logs
// headlessly, and inspects existing logs.
//
//	drtelemetry record [-o name] [-n frames] [-realtime]
//	drtelemetry replay -log name [-sync] [-speed f] [-fast]
//	drtelemetry info -log name
//	drtelemetry dump -log name [-frames n]
//	drtelemetry list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/vrtelemetry/internal/catalog"
	"github.com/banshee-data/vrtelemetry/internal/config"
	"github.com/banshee-data/vrtelemetry/internal/fsutil"
	"github.com/banshee-data/vrtelemetry/internal/monitoring"
	"github.com/banshee-data/vrtelemetry/internal/stream"
	"github.com/banshee-data/vrtelemetry/internal/version"
)

const usage = `usage: drtelemetry <command> [flags]

commands:
  record   record a synthetic drive
  replay   replay a log headlessly
  info     summarise a log
  dump     print the frames of a log
  list     list recorded logs
  version  print the build version
`

// app carries what every subcommand shares.
type app struct {
	cfg    *config.ReplayConfig
	logDir *fsutil.LogDir
	out    io.Writer
}

func newApp(configPath string, out io.Writer) (*app, error) {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		logDir: fsutil.NewLogDir(fsutil.OSFileSystem{}, cfg.GetLogDir()),
		out:    out,
	}, nil
}

// openCatalog returns nil when no catalogue is configured.
func (a *app) openCatalog() (*catalog.Catalog, error) {
	path := a.cfg.GetCatalogPath()
	if path == "" {
		return nil, nil
	}
	return catalog.Open(path)
}

// serve starts the metrics and stream endpoints that are configured. The
// stream listener also exposes cat under /recordings when cat is non-nil.
// The returned hub is nil when streaming is disabled.
func (a *app) serve(ctx context.Context, cat *catalog.Catalog) *stream.Hub {
	var hub *stream.Hub
	if addr := a.cfg.GetStreamAddr(); addr != "" {
		hub = stream.NewHub()
		mux := http.NewServeMux()
		mux.Handle("/stream", hub)
		if cat != nil {
			h := cat.Handler()
			mux.Handle("/recordings", h)
			mux.Handle("/recordings/", h)
		}
		go listen(ctx, "stream", addr, mux)
	}
	if addr := a.cfg.GetMetricsAddr(); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.Metrics().Handler())
		go listen(ctx, "metrics", addr, mux)
	}
	return hub
}

func listen(ctx context.Context, name, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Printf("%s listening on %s", name, addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("%s server error: %v", name, err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	cmd, args := args[0], args[1:]

	fset := flag.NewFlagSet(cmd, flag.ContinueOnError)
	configPath := fset.String("config", "", "replay config JSON (overridden by $"+config.EnvConfig+")")

	switch cmd {
	case "record":
		opts := recordOptions{}
		fset.StringVar(&opts.name, "o", "", "output log name or path (default: timestamped in log dir)")
		fset.IntVar(&opts.frames, "n", 300, "number of ticks to record")
		fset.StringVar(&opts.info, "info", "synthetic drive", "free-form info stored in the header")
		fset.BoolVar(&opts.realtime, "realtime", false, "tick at the configured rate instead of as fast as possible")
		fset.IntVar(&opts.keep, "keep", 0, "prune the log dir to this many logs afterwards (0 keeps all)")
		if err := fset.Parse(args); err != nil {
			return err
		}
		a, err := newApp(*configPath, out)
		if err != nil {
			return err
		}
		return a.record(ctx, opts)

	case "replay":
		opts := replayOptions{}
		fset.StringVar(&opts.name, "log", "", "log name or path")
		fset.BoolVar(&opts.sync, "sync", false, "step one recorded frame per tick")
		fset.Float64Var(&opts.speed, "speed", 1, "time factor for interpolated replay")
		fset.BoolVar(&opts.fast, "fast", false, "tick as fast as possible instead of at the configured rate")
		if err := fset.Parse(args); err != nil {
			return err
		}
		a, err := newApp(*configPath, out)
		if err != nil {
			return err
		}
		return a.replay(ctx, opts)

	case "info", "dump":
		name := fset.String("log", "", "log name or path")
		frames := fset.Int("frames", 0, "dump at most this many frames (0 dumps all)")
		if err := fset.Parse(args); err != nil {
			return err
		}
		a, err := newApp(*configPath, out)
		if err != nil {
			return err
		}
		if cmd == "info" {
			return a.info(*name)
		}
		return a.dump(*name, *frames)

	case "list":
		if err := fset.Parse(args); err != nil {
			return err
		}
		a, err := newApp(*configPath, out)
		if err != nil {
			return err
		}
		return a.list(ctx)

	case "version":
		fmt.Fprintf(out, "drtelemetry %s (built %s)\n", version.String(), version.BuildTime)
		return nil
	}
	return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
}

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("drtelemetry: %v", err)
	}
}
