// Command revise runs the spaced-repetition card service: a JSON API
// for reviewing cards, plus one-shot source registration and deck
// import actions.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/ciaranbyrne/revise/internal/config"
	"github.com/ciaranbyrne/revise/internal/domain"
	"github.com/ciaranbyrne/revise/internal/importer"
	"github.com/ciaranbyrne/revise/internal/storage"
	"github.com/ciaranbyrne/revise/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("revise", pflag.ExitOnError)
	configPath := flags.String("config", "revise.yaml", "path to the YAML config file")
	flags.String("db", "revise.db", "path to the SQLite database")
	flags.String("addr", "localhost:8484", "listen address for the web API")
	flags.String("cache", "deck-cache", "checkout directory for git deck sources")
	flags.String("log.level", "info", "log level: debug, info, warn or error")
	addSource := flags.String("add-source", "", "register a deck source (directory or git URL) and exit")
	runImport := flags.Bool("import", false, "reconcile all deck sources and exit")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	})))

	db, err := storage.Open(cfg.DB)
	if err != nil {
		slog.Error("open database", "path", cfg.DB, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	imp := importer.New(db, cfg.Cache)
	ctx := context.Background()

	switch {
	case *addSource != "":
		id, err := db.AddSource(ctx, *addSource, domain.KindOfSource(*addSource))
		if err != nil {
			slog.Error("register source", "path", *addSource, "error", err)
			os.Exit(1)
		}
		slog.Info("source registered", "id", id, "path", *addSource)
	case *runImport:
		if err := imp.RunAll(ctx); err != nil {
			slog.Error("import", "error", err)
			os.Exit(1)
		}
	default:
		srv := web.NewServer(db, imp)
		slog.Info("serving", "addr", cfg.Addr, "db", cfg.DB)
		if err := http.ListenAndServe(cfg.Addr, srv); err != nil {
			slog.Error("serve", "error", err)
			os.Exit(1)
		}
	}
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
