package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/lithos/internal/build"
	"git.home.luguber.info/inful/lithos/internal/metrics"
	"git.home.luguber.info/inful/lithos/internal/server"
)

func runDev(ctx context.Context, host string, port int, drafts, open, withMetrics bool) error {
	paths, cfg, err := loadSite()
	if err != nil {
		return err
	}

	// In dev mode every URL points at the local server, not the
	// configured production root.
	routesURL := fmt.Sprintf("http://%s:%d", host, port)
	cfg.RootURL = routesURL

	// Warm the intermediate cache up front so first requests are cheap
	// and stale artifacts are gone.
	if err := build.ConvertTree(paths, drafts, cfg.RootURL); err != nil {
		return fmt.Errorf("initial conversion: %w", err)
	}
	if err := build.CleanupOrphans(paths); err != nil {
		return fmt.Errorf("cleanup orphans: %w", err)
	}

	var (
		recorder metrics.Recorder
		handler  http.Handler
	)
	if withMetrics {
		promRec := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		recorder = promRec
		handler = promRec.Handler()
	}

	state, err := server.NewState(server.Config{
		Paths:     paths,
		Site:      cfg,
		RoutesURL: routesURL,
		Drafts:    drafts,
		Recorder:  recorder,
		Metrics:   handler,
	})
	if err != nil {
		return err
	}

	if open {
		openBrowser(routesURL)
	}
	return state.Run(ctx, host, net.JoinHostPort(host, strconv.Itoa(port)))
}

// openBrowser points the default browser at the dev server. Failures are
// logged and ignored; the server matters more than the convenience.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("could not open browser", "url", url, "error", err)
	}
}
