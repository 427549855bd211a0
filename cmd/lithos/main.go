// Command lithos builds and serves static sites from markdown content.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

var CLI struct {
	Verbose bool `short:"v" help:"Enable verbose logging"`

	Build struct {
		Minify      bool   `help:"Minify output HTML and assets"`
		MetricsFile string `help:"Write build metrics to this file in Prometheus text format"`
	} `cmd:"" help:"Build the site for production into public/"`

	Dev struct {
		Host    string `default:"localhost" help:"Interface to bind"`
		Port    int    `short:"p" default:"3030" help:"Port for the dev server"`
		Drafts  bool   `help:"Serve draft documents"`
		Open    bool   `short:"o" help:"Open the site in the default browser"`
		Metrics bool   `help:"Expose Prometheus metrics at /metrics"`
	} `cmd:"" help:"Run the development server with live reload"`

	Serve struct {
		Port int    `short:"p" default:"3030" help:"Port to listen on"`
		Dir  string `short:"d" default:"" help:"Directory to serve (defaults to the site's public/)"`
	} `cmd:"" help:"Serve an already-built site directory"`

	Init struct {
		Name string `arg:"" help:"Directory to create the new site in"`
	} `cmd:"" help:"Scaffold a new site skeleton"`

	New struct {
		Name string `arg:"" help:"Path of the file to create, relative to content/ (documents) or assets/ (js, css)"`
		Open bool   `short:"o" help:"Open the created file"`
	} `cmd:"" help:"Scaffold a document or asset inside the site"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch kctx.Command() {
	case "build":
		err = runBuild(ctx, CLI.Build.Minify, CLI.Build.MetricsFile)
	case "dev":
		err = runDev(ctx, CLI.Dev.Host, CLI.Dev.Port, CLI.Dev.Drafts, CLI.Dev.Open, CLI.Dev.Metrics)
	case "serve":
		err = runServe(ctx, CLI.Serve.Port, CLI.Serve.Dir)
	case "init <name>":
		err = runInit(CLI.Init.Name)
	case "new <name>":
		err = runNew(CLI.New.Name, CLI.New.Open)
	}
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
