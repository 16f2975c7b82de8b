package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
	"trip-route-service/internal/adapters/backend"
	"trip-route-service/internal/adapters/mapview"
	"trip-route-service/internal/adapters/panel"
	"trip-route-service/internal/adapters/routing"
	"trip-route-service/internal/config"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/httpx"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"
	"trip-route-service/internal/render"
	"trip-route-service/internal/services"
	"trip-route-service/internal/session"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

var errQuit = errors.New("quit")

// main runs a headless map session fed by commands on stdin.
func main() {
	envErr := godotenv.Load()

	cfg, cfgErr := config.Load()
	geojsonPath := flag.String("geojson", "", "write the map as GeoJSON to this file after every change")
	strategy := flag.String("strategy", cfg.Strategy, "route strategy: direct or backend")
	mode := flag.String("mode", cfg.TransportMode, "transport mode")
	flag.Parse()

	// Logs go to stderr so stdout carries only panel output.
	logger := obs.NewLogger(os.Stderr, cfg.LogLevel, "planner")
	slog.SetDefault(logger)
	if cfgErr != nil {
		logger.Error("invalid configuration", slog.Any("error", cfgErr))
		os.Exit(1)
	}
	if envErr != nil {
		logger.Debug("no .env file found (using environment variables)")
	}

	cfg.Strategy = *strategy
	cfg.TransportMode = *mode

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout, *geojsonPath, logger); err != nil {
		logger.Error("planner failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer, geojsonPath string, logger *slog.Logger) error {
	strategy, err := services.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	mode := domain.TransportMode(cfg.TransportMode)
	if !mode.Valid() {
		return fmt.Errorf("invalid transport mode %q", cfg.TransportMode)
	}

	router, decoder, err := routing.FromConfig(cfg)
	if err != nil {
		return err
	}
	trips, err := backend.NewClient(cfg.BackendURL, httpx.NewClient(cfg.RequestTimeout))
	if err != nil {
		return err
	}

	return serve(ctx, planner{
		router:   router,
		decoder:  decoder,
		backend:  trips,
		strategy: strategy,
		mode:     mode,
		language: cfg.RouteLanguage,
		locale:   cfg.ReportLocale,
		timeout:  cfg.RequestTimeout,
	}, in, out, geojsonPath, logger)
}

type planner struct {
	router   ports.RoutingService
	decoder  ports.GeometryDecoder
	backend  ports.TripBackend
	strategy services.Strategy
	mode     domain.TransportMode
	language string
	locale   string
	timeout  time.Duration
}

// serve wires the session and runs it alongside the GeoJSON exporter.
func serve(ctx context.Context, p planner, in io.Reader, out io.Writer, geojsonPath string, logger *slog.Logger) error {
	surface := mapview.NewSurface()
	text := panel.NewTextPanel()
	report := panel.NewTextReport()

	orch := services.NewOrchestrator(p.router, p.backend, services.OrchestratorConfig{
		Language: p.language,
		Timeout:  p.timeout,
	}, logger)
	agg := services.NewReportAggregator(p.backend, services.NewDateFormatter(p.locale, nil), p.timeout, logger)
	pipeline := render.NewPipeline(surface, p.decoder, logger)
	sess := session.New(orch, pipeline, surface, text, agg, session.Config{Strategy: p.strategy, Mode: p.mode}, logger)
	defer sess.Close()

	inputs := make(chan session.Input)
	go readCommands(ctx, in, inputs, report, logger)

	changes := make(chan struct{}, 1)
	var lastPanel, lastReport string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(changes)
		err := sess.Run(gctx, inputs, func() {
			if s := text.String(); s != lastPanel {
				lastPanel = s
				fmt.Fprintf(out, "%s\n---\n", s)
			}
			if s := report.String(); s != lastReport {
				lastReport = s
				fmt.Fprintf(out, "%s\n---\n", s)
			}
			select {
			case changes <- struct{}{}:
			default:
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		for range changes {
			if geojsonPath == "" {
				continue
			}
			if err := writeGeoJSON(surface, geojsonPath); err != nil {
				logger.Warn("geojson export failed", slog.String("path", geojsonPath), slog.Any("error", err))
			}
		}
		return nil
	})
	return g.Wait()
}

func writeGeoJSON(surface *mapview.Surface, path string) error {
	data, err := surface.FeatureCollection().MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

// readCommands turns stdin lines into session inputs and closes inputs on
// EOF or quit.
func readCommands(ctx context.Context, in io.Reader, inputs chan<- session.Input, report ports.ReportView, logger *slog.Logger) {
	defer close(inputs)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		input, err := parseCommand(line, report)
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			logger.Warn("ignoring command", slog.String("line", line), slog.Any("error", err))
			continue
		}

		select {
		case inputs <- input:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		logger.Warn("reading commands failed", slog.Any("error", err))
	}
}

// parseCommand accepts "lat,lng", "tap <n>", "report", "reset" and "quit".
func parseCommand(line string, report ports.ReportView) (session.Input, error) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return session.Input{}, errQuit
	case "reset":
		return session.Input{Reset: true}, nil
	case "report":
		return session.Input{Report: report}, nil
	case "tap":
		if len(fields) != 2 {
			return session.Input{}, errors.New("usage: tap <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return session.Input{}, fmt.Errorf("tap: invalid marker number %q", fields[1])
		}
		return session.Input{Maneuver: n}, nil
	}

	p, err := domain.ParsePoint(line)
	if err != nil {
		return session.Input{}, err
	}
	return session.Input{Pick: &p}, nil
}
