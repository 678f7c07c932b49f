package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/updatesync/internal/adapters/driving/tui"
	"github.com/custodia-labs/updatesync/internal/app"
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/logger"
	"github.com/custodia-labs/updatesync/internal/notes"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the note board live",
	Long: `Opens the note board and keeps it in step with the remote store.

Remote updates are polled on sync.poll_interval, and updates saved while
offline are uploaded as soon as credentials become available.

Controls:
  a        - Add a note
  d        - Remove the selected note
  s        - Sync now
  ↑/k, ↓/j - Navigate notes
  ?        - Toggle help
  q        - Quit

When output is not a terminal, or with --plain, applied updates are printed
one per line instead.`,
	RunE: runWatch,
}

// Flags for watch.
var (
	watchPlain       bool
	watchMetricsAddr string
)

func init() {
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "Print updates as lines instead of the interactive view")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in watch: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Watch is long-running, so background polling runs here only
		if rt.SchedulerConfig.Enabled {
			go func() {
				if err := rt.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("scheduler stopped: %v", err)
				}
			}()
			defer func() {
				if err := rt.Scheduler.Stop(); err != nil {
					logger.Warn("scheduler stop error: %v", err)
				}
			}()
		}

		if watchMetricsAddr != "" {
			shutdown := serveMetrics(watchMetricsAddr, rt.Metrics.Handler())
			defer shutdown()
		}

		if watchPlain || !isTerminal(cmd.OutOrStdout()) {
			return watchLines(ctx, cmd, rt)
		}

		ports := tui.NewPorts(rt.Engine, rt.Board, currentUser(rt))
		ports.Failures = append(ports.Failures, rt.Engine.Failures(), rt.Remote.Failures())
		view, err := tui.NewApp(ports)
		if err != nil {
			return fmt.Errorf("failed to create watch view: %w", err)
		}
		view.WithContext(ctx)

		if err := view.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("watch view error: %w", err)
		}
		return nil
	})
}

// watchLines prints every applied update and failure until ctx is done.
func watchLines(ctx context.Context, cmd *cobra.Command, rt *app.Runtime) error {
	var mu sync.Mutex
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		cmd.Printf(format, args...)
	}

	cancelUpdates := rt.Engine.Updates().Subscribe(func(u domain.Update) {
		for _, line := range describeUpdate(u) {
			printf("%s %s\n", time.Now().Format("15:04:05"), line)
		}
	})
	defer cancelUpdates()
	cancelFailures := rt.Remote.Failures().Subscribe(func(err error) {
		printf("%s warning: %v\n", time.Now().Format("15:04:05"), err)
	})
	defer cancelFailures()

	status, err := rt.Engine.Status(ctx)
	if err != nil {
		return err
	}
	printf("Watching %d notes (remote %s). Press Ctrl+C to stop.\n", len(rt.Board.State().Notes), status.Availability)

	<-ctx.Done()
	return nil
}

// describeUpdate renders one line per note action.
func describeUpdate(u domain.Update) []string {
	lines := make([]string, 0, len(u.Actions))
	for _, a := range u.Actions {
		switch a.Kind {
		case notes.KindAdd:
			var n notes.Note
			if err := a.Decode(&n); err != nil {
				lines = append(lines, fmt.Sprintf("? undecodable note in %s", shortID(u.ID)))
				continue
			}
			line := fmt.Sprintf("+ %s %s", shortID(n.ID), n.Text)
			if n.Author != "" {
				line += " (" + n.Author + ")"
			}
			lines = append(lines, line)
		case notes.KindRemove:
			var n notes.Note
			_ = a.Decode(&n) //nolint:errcheck // id is best effort
			lines = append(lines, "- "+shortID(n.ID))
		case notes.KindClear:
			lines = append(lines, "board cleared")
		default:
			lines = append(lines, fmt.Sprintf("? %s", a.Kind))
		}
	}
	return lines
}

func currentUser(rt *app.Runtime) string {
	if creds, ok := rt.Credentials.Current(); ok {
		return creds.UserID
	}
	return ""
}

// serveMetrics serves handler on addr under /metrics and returns a
// shutdown function.
func serveMetrics(addr string, handler http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx) //nolint:errcheck // best effort on exit
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
