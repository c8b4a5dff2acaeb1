package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/seaward/cnwatch/internal/metrics"
	"github.com/seaward/cnwatch/internal/report"
	"github.com/seaward/cnwatch/internal/shutdown"
	"github.com/seaward/cnwatch/internal/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve read-only watchdog status over HTTP",
	Long: `Runs a small HTTP server exposing the persisted watchdog state, the last
run report, and Prometheus metrics. The server never takes recovery actions
itself; the decision loop stays in the one-shot run command.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	defer logger.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewReportCollector(cfg.ReportPath()))

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		view := statusView{}

		st, err := state.NewFileStore(cfg.StatePath()).Load()
		if err != nil && !errors.Is(err, state.ErrNoState) {
			http.Error(w, fmt.Sprintf("state unreadable: %v", err), http.StatusInternalServerError)
			return
		}
		view.State = st

		if rep, err := report.Read(cfg.ReportPath()); err == nil {
			view.LastRun = &rep
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(view)
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	sd := shutdown.New(10 * time.Second)
	sd.Register(shutdown.StopHTTPServer(server, "status"))

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Status server listening", map[string]interface{}{
			"addr": cfg.ListenAddr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	done := make(chan struct{})
	go func() {
		sd.Wait()
		close(done)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("status server failed: %w", err)
	case <-done:
		return nil
	}
}
