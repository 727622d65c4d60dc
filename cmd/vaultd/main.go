package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"github.com/leengari/vaultdb/internal/logging"
	"github.com/leengari/vaultdb/internal/server"
	"github.com/leengari/vaultdb/internal/vault"
)

const (
	defaultPort          = 4546
	defaultDataDirectory = "./data/"
)

// parseArgs implements the vaultd CLI grammar: bare bool flags
// (force-encrypted-traffic, enable-root-account) and key=value args
// (max-connections, port, data-directory). Any malformed arg is fatal.
func parseArgs(args []string) (vault.Config, error) {
	cfg := vault.Config{Port: defaultPort, DataDirectory: defaultDataDirectory}

	for _, arg := range args {
		switch arg {
		case "force-encrypted-traffic":
			cfg.ForceEncrypt = true
			continue
		case "enable-root-account":
			cfg.EnableRootAccount = true
			continue
		}

		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return cfg, fmt.Errorf("malformed argument %q", arg)
		}
		switch key {
		case "max-connections":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return cfg, fmt.Errorf("malformed max-connections value %q", value)
			}
			cfg.MaxConnections = n
		case "port":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 || n > 65535 {
				return cfg, fmt.Errorf("malformed port value %q", value)
			}
			cfg.Port = n
		case "data-directory":
			if value == "" {
				return cfg, fmt.Errorf("malformed data-directory value")
			}
			cfg.DataDirectory = value
		default:
			return cfg, fmt.Errorf("unknown argument %q", arg)
		}
	}
	return cfg, nil
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, closeLog := logging.New(logging.Config{Level: slog.LevelInfo})
	defer closeLog()
	slog.SetDefault(logger)

	// SIGPIPE is ignored: a client that vanishes mid-write must
	// surface as a normal write error, not terminate the process.
	signal.Ignore(unix.SIGPIPE)

	lockPath := filepath.Join(cfg.DataDirectory, ".vault.lock")
	if err := os.MkdirAll(cfg.DataDirectory, 0o755); err != nil {
		slog.Error("create data directory", "error", err)
		os.Exit(1)
	}
	dirLock := flock.New(lockPath)
	locked, err := dirLock.TryLock()
	if err != nil || !locked {
		slog.Error("data directory already in use", "path", cfg.DataDirectory, "error", err)
		os.Exit(1)
	}
	defer dirLock.Unlock()

	ctx, err := vault.Bootstrap(cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	srv := server.New(ctx, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		if err := ctx.Shutdown(); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		os.Exit(0)
	}()

	if err := srv.Run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
