package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arung-agamani/denpa-radio/config"
	"github.com/arung-agamani/denpa-radio/internal/automation"
	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/arung-agamani/denpa-radio/internal/command"
	"github.com/arung-agamani/denpa-radio/internal/control"
	"github.com/arung-agamani/denpa-radio/internal/playersession"
	"github.com/arung-agamani/denpa-radio/internal/procsetup"
	"github.com/arung-agamani/denpa-radio/internal/requirement"
	"github.com/arung-agamani/denpa-radio/internal/sharedstate"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dbInit := flag.Bool("dbinit", false, "create the catalog schema if missing, then exit")
	flag.Parse()

	cfg := config.Load()

	if err := procsetup.RaiseFileLimit(cfg.MaxOpenFiles); err != nil {
		slog.Warn("failed to raise file descriptor limit", "error", err)
	}

	store, err := catalog.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *dbInit {
		slog.Info("catalog schema ready, exiting per --dbinit", "path", cfg.DBPath)
		return
	}

	bootstrapSuperuser(store, cfg)

	playerCfg := playersession.Config{
		Binary:          cfg.MPlayerBinary,
		LivenessTimeout: time.Duration(cfg.MPlayerTimeout) * time.Second,
		ErrorLog:        openErrorLog(cfg.MPlayerErrorLog),
	}
	player := playersession.New(playerCfg)

	engine := requirement.New(requirement.Config{
		ImplicitLegalID:    cfg.ImplicitLegalID,
		ImplicitLegalIDGap: cfg.ImplicitLegalIDGap,
	}, time.Now())
	if err := engine.Load(store); err != nil {
		slog.Error("failed to load schedule", "error", err)
		os.Exit(1)
	}

	state := sharedstate.New(store, engine, player, playerCfg, sharedstate.EngineConfig{
		Bumpers:            cfg.Bumpers,
		LegalID:            cfg.LegalID,
		LegalIDMaxLength:   cfg.LegalIDMaxLength,
		BumperCutoff:       cfg.BumperCutoff,
		SleepCutoff:        cfg.SleepCutoff,
		ImplicitLegalID:    cfg.ImplicitLegalID,
		ImplicitLegalIDGap: cfg.ImplicitLegalIDGap,
		DefaultHuman:       cfg.DefaultHuman,
		DoInit:             cfg.DoInit,
		FastShutdown:       cfg.FastShutdown,
	})
	if cfg.DefaultHuman {
		state.SetOverride(true)
	}

	registry := command.NewRegistry()
	command.RegisterBuiltins(registry, state)
	if err := requirement.CheckValidity(registry.HasHandler); err != nil {
		slog.Error("schema integrity check failed", "error", err)
		os.Exit(1)
	}

	if cfg.DoInit {
		slog.Info("running reboot requirements before serving")
		if err := engine.HandleReboot(registry.Dispatch, registry.HasHandler); err != nil {
			slog.Error("fatal requirement handler error during reboot requirements", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	signal.Ignore(syscall.SIGPIPE)

	go func() {
		sig := <-sigCh
		slog.Info("shutdown signal received", "signal", sig.String())
		if cfg.FastShutdown {
			slog.Info("fast_shutdown enabled, exiting immediately")
			os.Exit(0)
		}
		cancel()
	}()

	loop := automation.New(state, registry, func(err error) {
		slog.Error("fatal requirement handler error, aborting", "error", err)
		os.Exit(1)
	})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx)
	}()

	controlSrv := control.NewServer(state, registry, control.Config{
		BindAddr:   cfg.ControlBindAddr,
		SQLEnabled: cfg.SQLEnabled,
	})

	slog.Info("denpa-radio engine starting",
		"control_addr", cfg.ControlBindAddr,
		"db", cfg.DBPath,
		"mplayer", cfg.MPlayerBinary,
	)
	if err := controlSrv.Start(ctx); err != nil {
		slog.Error("control surface error", "error", err)
	}

	<-loopDone
	slog.Info("shutdown complete")
}

// bootstrapSuperuser seeds the one operator credential named by
// SUPERUSER_BOOTSTRAP into the catalog if that username has no row yet.
// A blank or malformed bootstrap string, or one naming an existing
// superuser, is silently a no-op — it never overwrites a stored
// credential. Other superusers already in the catalog do not stop it.
func bootstrapSuperuser(store *catalog.Store, cfg *config.Config) {
	user, pass, ok := cfg.SuperuserBootstrapPair()
	if !ok {
		return
	}
	if _, err := store.FetchSuperuser(user); !errors.Is(err, catalog.ErrNotFound) {
		return
	}
	hash, err := control.HashPassword(pass)
	if err != nil {
		slog.Error("failed to hash bootstrap superuser password", "error", err)
		return
	}
	if err := store.UpsertSuperuser(user, hash); err != nil {
		slog.Error("failed to bootstrap superuser", "username", user, "error", err)
		return
	}
	slog.Info("bootstrapped superuser", "username", user)
}

// openErrorLog opens path for append, returning nil (discard) if path is
// blank or cannot be opened.
func openErrorLog(path string) io.Writer {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("failed to open mplayer error log, discarding stderr", "path", path, "error", err)
		return nil
	}
	return f
}
