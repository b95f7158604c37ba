// cmd/liger/main.go
//
// ROLE: Executable entrypoint and JSON-RPC dispatch loop.
//
// What lives here
//   • Process startup: flag parsing, config loading, component wiring.
//   • Framed JSON-RPC read loop from stdin, handed to internal/rpc.Dispatcher.
//
// What does NOT live here
//   • No language features, no text analysis. Handler bodies live in
//     handlers.go; everything they need is built here and passed in.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/navid-m/liger/internal/analyzer"
	"github.com/navid-m/liger/internal/config"
	"github.com/navid-m/liger/internal/document"
	"github.com/navid-m/liger/internal/oracle"
	"github.com/navid-m/liger/internal/rpc"
	"github.com/navid-m/liger/internal/workspace"
)

const version = "0.1.0"

func main() {
	var (
		showVersion bool
		showHelp    bool
		strict      bool
		cacheDir    string
	)
	flag.BoolVar(&showVersion, "version", false, "print the version and exit")
	flag.BoolVar(&showVersion, "v", false, "print the version and exit (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "print usage and exit")
	flag.BoolVar(&showHelp, "h", false, "print usage and exit (shorthand)")
	flag.BoolVar(&strict, "strict", false, "enable stricter advisory type checking")
	flag.StringVar(&cacheDir, "cache-dir", "", "override the .liger-cache directory")
	flag.Parse()

	if showVersion {
		fmt.Println("liger " + version)
		return
	}
	if showHelp {
		flag.Usage()
		return
	}

	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "liger: getwd:", err)
		os.Exit(1)
	}

	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintln(os.Stderr, "liger: config:", err)
		os.Exit(1)
	}
	if strict {
		cfg.StrictMode = true
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cacheAbs := filepath.Join(root, cfg.CacheDir)
	if err := os.MkdirAll(cacheAbs, 0o755); err != nil {
		logger.Warn("create cache dir", "path", cacheAbs, "err", err)
	}

	docs := document.New()
	idx := workspace.New()
	orc := oracle.New(cfg.CrystalBinary, cfg.OracleTimeout, cfg.MaxOracleJobs, cacheAbs)
	az := analyzer.New(docs, idx, orc, root)

	disp := rpc.NewDispatcher(os.Stdout)
	disp.OnLog = func(msg string, args ...any) { logger.Warn(msg, args...) }

	srv := &server{
		docs:     docs,
		idx:      idx,
		analyzer: az,
		orc:      orc,
		disp:     disp,
		cfg:      cfg,
		logger:   logger,
	}
	srv.register()

	runLoop(os.Stdin, disp, logger)
	os.Exit(disp.ExitCode())
}

// runLoop reads framed messages from r until the stream ends or the
// dispatcher reaches Exited, per spec.md §4.A's "EOF or exit notification
// terminates the process" rule.
func runLoop(r *os.File, disp *rpc.Dispatcher, logger *slog.Logger) {
	in := bufio.NewReader(r)
	for {
		body, err := rpc.ReadFrame(in)
		if err != nil {
			return
		}
		req, err := rpc.DecodeMessage(body)
		if err != nil {
			logger.Warn("decode message", "err", err)
			continue
		}
		disp.Dispatch(req)
		if disp.Phase() == rpc.Exited {
			return
		}
	}
}
