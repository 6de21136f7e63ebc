// Package app wires RankForge's components into a PocketBase application:
// config, the Tee'd file logger, the storage driver, the rating engine,
// the drop-directory ingestion box, migrations, and the cobra subcommands
// PocketBase's RootCmd exposes. Structurally this follows the teacher's
// internal/app.App (embed *pocketbase.PocketBase, lazily build
// collaborators in setupServices, register hooks in Bootstrap).
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"rankforge/internal/config"
	"rankforge/internal/ingestbox"
	"rankforge/internal/logger"
	"rankforge/internal/rating"
	"rankforge/internal/storage"

	// Blank-imported so every migration file's init() runs m.Register and
	// the collections it defines exist before anything in storage.PBDriver
	// looks them up; migratecmd's Automigrate only writes new migration
	// files from Dashboard/API edits, it does not apply these.
	_ "rankforge/migrations"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"

	"github.com/spf13/cobra"
)

// App wraps PocketBase with RankForge's own components.
type App struct {
	*pocketbase.PocketBase

	Config  *config.Config
	Driver  storage.Driver
	Rating  *rating.Engine
	Board   *rating.Leaderboard
	Ingest  *ingestbox.Box
	ingestC context.CancelFunc

	customLogger *slog.Logger

	Version string
	Commit  string
	Date    string
}

// New builds a dev-version App. Use NewWithVersion to inject build-time
// version information via ldflags, as the teacher's main.go does.
func New() (*App, error) {
	return NewWithVersion("dev", "unknown", "unknown")
}

func NewWithVersion(version, commit, date string) (*App, error) {
	app := &App{
		PocketBase: pocketbase.New(),
		Version:    version,
		Commit:     commit,
		Date:       date,
	}

	if err := app.setupServices(); err != nil {
		return nil, fmt.Errorf("app: setup services: %w", err)
	}
	app.setupPlugins()
	return app, nil
}

// setupServices loads configuration and builds the storage driver and
// rating engine. It calls setupLogger once app.Config is loaded, since the
// logger depends on it.
func (app *App) setupServices() error {
	cfgVal := app.Store().GetOrSet("config", func() any {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return cfg
	})
	if err, ok := cfgVal.(error); ok {
		return fmt.Errorf("load config: %w", err)
	}
	app.Config = cfgVal.(*config.Config)

	if err := app.setupLogger(); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	driverVal := app.PocketBase.Store().GetOrSet("storage", func() any {
		return storage.New(app.PocketBase)
	})
	app.Driver = driverVal.(storage.Driver)

	rateVal := app.PocketBase.Store().GetOrSet("rating", func() any {
		e := rating.New()
		e.K = app.Config.Rating.K
		e.HeadshotK = app.Config.Rating.HeadshotK
		e.R0 = app.Config.Rating.InitialRank
		return e
	})
	app.Rating = rateVal.(*rating.Engine)

	boardVal := app.PocketBase.Store().GetOrSet("leaderboard", func() any {
		return rating.NewLeaderboard(app.PocketBase)
	})
	app.Board = boardVal.(*rating.Leaderboard)

	return nil
}

// setupPlugins registers PocketBase's own plugins plus the subcommands
// SPEC_FULL.md adds: `ingest` for one-shot offline ingestion, alongside
// the `serve` command PocketBase's RootCmd already provides.
func (app *App) setupPlugins() {
	migratecmd.MustRegister(app.PocketBase, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rankforge version %s\n", app.Version)
			fmt.Printf("commit: %s\n", app.Commit)
			fmt.Printf("date: %s\n", app.Date)
		},
	})

	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest one NDJSON log dump and exit, without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.PocketBase.Bootstrap(); err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			box, err := ingestbox.New(app.Config.Ingest.DropDir, app.Driver, app.Rating, app.Logger(), app.Config.Ingest.MaxInFlight)
			if err != nil {
				return err
			}
			return box.Ingest(cmd.Context(), args[0])
		},
	})

	leaderboardCmd := &cobra.Command{
		Use:   "leaderboard [steam_id]",
		Short: "Print the top players by rank, or one player's rank and top weapons",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.PocketBase.Bootstrap(); err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			top, _ := cmd.Flags().GetInt("top")

			if len(args) == 0 {
				players, err := app.Board.TopPlayers(top)
				if err != nil {
					return err
				}
				for i, p := range players {
					fmt.Printf("%2d. %-20s %-20s rank %.1f\n", i+1, p.Name, p.SteamID, p.Rank)
				}
				return nil
			}

			steamID := args[0]
			rank, total, err := app.Board.PlayerRank(steamID)
			if err != nil {
				return err
			}
			fmt.Printf("rank %d of %d\n", rank, total)

			weapons, err := app.Board.TopWeapons(steamID, top)
			if err != nil {
				return err
			}
			for _, w := range weapons {
				fmt.Printf("%-10s %d kills\n", w.Weapon, w.Kills)
			}
			return nil
		},
	}
	leaderboardCmd.Flags().Int("top", 10, "number of rows to print")
	app.RootCmd.AddCommand(leaderboardCmd)
}

// Bootstrap registers lifecycle hooks. Call once before app.Start().
func (app *App) Bootstrap() error {
	app.OnServe().BindFunc(app.onServe)
	app.OnTerminate().BindFunc(app.onTerminate)
	return nil
}

func (app *App) onServe(e *core.ServeEvent) error {
	log := app.Logger().With("component", "app")
	log.Info("starting rankforge")

	if err := app.Config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(app.Config.Ingest.DropDir, 0755); err != nil {
		return fmt.Errorf("create drop directory: %w", err)
	}

	box, err := ingestbox.New(app.Config.Ingest.DropDir, app.Driver, app.Rating, app.Logger().With("component", "ingestbox"), app.Config.Ingest.MaxInFlight)
	if err != nil {
		return fmt.Errorf("create ingest box: %w", err)
	}
	app.Ingest = box

	ctx, cancel := context.WithCancel(context.Background())
	app.ingestC = cancel
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("ingest box panic recovered", "panic", r)
			}
		}()
		if err := box.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("ingest box stopped", "error", err)
		}
	}()

	return e.Next()
}

func (app *App) onTerminate(e *core.TerminateEvent) error {
	if app.ingestC != nil {
		app.ingestC()
	}
	return e.Next()
}

// Logger returns the Tee'd logger once set up, falling back to
// PocketBase's own logger before that point.
func (app *App) Logger() *slog.Logger {
	if app.customLogger != nil {
		return app.customLogger
	}
	return app.PocketBase.Logger()
}

// setupLogger wires a TeeHandler that writes every PocketBase log record
// to both the console (PocketBase's own handler) and a rotating file,
// following the teacher's internal/logger package exactly.
func (app *App) setupLogger() error {
	logCfg := app.Config.Logging

	fw, err := logger.NewFileWriter(logger.FileWriterConfig{
		FilePath:   logCfg.FilePath,
		MaxSize:    int64(logCfg.MaxSizeMB) * 1024 * 1024,
		MaxBackups: logCfg.MaxBackups,
		BufferSize: 8192,
		FlushEvery: 3 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create file writer: %w", err)
	}

	tee := logger.NewTeeHandler(app.PocketBase.Logger().Handler(), fw, parseLevel(logCfg.Level))
	app.customLogger = slog.New(tee)

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		if err := fw.Close(); err != nil {
			app.PocketBase.Logger().Error("failed to close log file writer", "error", err)
		}
		return e.Next()
	})

	return nil
}

// parseLevel maps the config's logging.level string onto an slog.Level,
// defaulting to Info for an empty or unrecognized value.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
