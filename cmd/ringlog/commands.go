package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/abyssdigger/ringlog"
	"github.com/abyssdigger/ringlog/bridge"
	"github.com/abyssdigger/ringlog/diag"
	"github.com/abyssdigger/ringlog/panel"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// DemoCommand logs from several goroutines and libraries, then prints the
// retained entries.
func DemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Emit records through every adapter and print the retained entries",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "records",
				Usage: "Records emitted per emitter",
				Value: 40,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			facade, _, closer, err := setup(c)
			if err != nil {
				return err
			}
			defer closer()

			var wg sync.WaitGroup
			startEmitters(ctx, facade, &wg, int(c.Int("records")), 0)
			wg.Wait()
			facade.Flush()

			entries := ringlog.GetEntries()
			fmt.Printf("%d entries retained (%d per level)\n", len(entries), facade.Capacity())
			fmt.Println(panel.Render(entries, 0))
			return nil
		},
	}
}

// PanelCommand runs the terminal panel while emitters keep logging.
func PanelCommand() *cli.Command {
	return &cli.Command{
		Name:  "panel",
		Usage: "Show the retained entries in a terminal panel",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Pause between records of one emitter, 0 to stay quiet",
				Value: 300 * time.Millisecond,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			facade, pretty, closer, err := setup(c)
			if err != nil {
				return err
			}
			defer closer()
			// the panel owns the terminal
			if pretty != nil {
				pretty.ClearOutputs()
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			var wg sync.WaitGroup
			if interval := c.Duration("interval"); interval > 0 {
				startEmitters(ctx, facade, &wg, -1, interval)
			}

			_, err = tea.NewProgram(panel.New(facade), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			cancel()
			wg.Wait()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}

// ServeCommand serves the retained entries over HTTP and reloads the filter
// when the configuration file changes.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the retained entries over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on",
				Value: "127.0.0.1:8089",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Pause between records of one emitter, 0 to stay quiet",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			facade, pretty, closer, err := setup(c)
			if err != nil {
				return err
			}
			defer closer()
			log := facade.NewClient("ringlog::serve")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var wg sync.WaitGroup
			if pretty != nil {
				if _, err := os.Stat(c.String("config")); err == nil {
					wg.Go(func() {
						if err := ringlog.WatchConfig(ctx, c.String("config"), pretty, facade); err != nil {
							log.LogErr(err)
						}
					})
				}
			}
			if interval := c.Duration("interval"); interval > 0 {
				startEmitters(ctx, facade, &wg, -1, interval)
			}

			srv := &http.Server{
				Addr:              c.String("listen"),
				Handler:           diag.NewServer(facade).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			wg.Go(func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.LogErr(err)
				}
			})

			log.LogInfo("listening on " + srv.Addr)
			err = srv.ListenAndServe()
			stop()
			wg.Wait()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}
}

// startEmitters starts one goroutine per adapter (client, slog, zap, logrus),
// each writing n records (endless if n < 0) with the given pause between them.
func startEmitters(ctx context.Context, facade *ringlog.Facade, wg *sync.WaitGroup, n int, pause time.Duration) {
	levels := []ringlog.LogLevel{ringlog.LVL_TRACE, ringlog.LVL_DEBUG, ringlog.LVL_INFO, ringlog.LVL_WARN, ringlog.LVL_ERROR}

	zl := bridge.NewZapLogger(facade, "zap").Named("demo::zap")
	lr := logrus.New()
	lr.SetOutput(io.Discard)
	lr.SetLevel(logrus.TraceLevel)
	lr.AddHook(bridge.NewLogrusHook(facade))

	emitters := []func(i int, level ringlog.LogLevel){
		func(i int, level ringlog.LogLevel) {
			facade.NewClient("demo::client").Logf(level, "client record #%d", i)
		},
		func(i int, level ringlog.LogLevel) {
			slog.Log(ctx, ringlog.ToSlogLevel(level), "slog record", "n", i, "target", "demo::slog")
		},
		func(i int, level ringlog.LogLevel) {
			switch level {
			case ringlog.LVL_TRACE, ringlog.LVL_DEBUG:
				zl.Debug("zap record", zap.Int("n", i))
			case ringlog.LVL_INFO:
				zl.Info("zap record", zap.Int("n", i))
			case ringlog.LVL_WARN:
				zl.Warn("zap record", zap.Int("n", i))
			default:
				zl.Error("zap record", zap.Int("n", i))
			}
		},
		func(i int, level ringlog.LogLevel) {
			entry := lr.WithFields(logrus.Fields{"target": "demo::logrus", "n": i})
			switch level {
			case ringlog.LVL_TRACE:
				entry.Trace("logrus record")
			case ringlog.LVL_DEBUG:
				entry.Debug("logrus record")
			case ringlog.LVL_INFO:
				entry.Info("logrus record")
			case ringlog.LVL_WARN:
				entry.Warn("logrus record")
			default:
				entry.Error("logrus record")
			}
		},
	}

	for _, emit := range emitters {
		wg.Go(func() {
			for i := 0; n < 0 || i < n; i++ {
				emit(i, levels[rand.IntN(len(levels))])
				if pause <= 0 {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(pause):
				}
			}
		})
	}
}
