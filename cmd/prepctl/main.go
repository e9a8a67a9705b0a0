// Command prepctl runs exams, practice and flashcards offline against a local
// SQLite profile. No server or account is needed.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stemsi/exprep-backend/internal/bank"
	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/database"
	"github.com/stemsi/exprep-backend/internal/logger"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/service"
	"github.com/stemsi/exprep-backend/internal/store"
)

// app holds the services every subcommand works with.
type app struct {
	db         *sql.DB
	learner    model.Learner
	banks      *service.BankService
	sessions   *service.SessionService
	flashcards *service.FlashcardService
	progress   *service.ProgressService
	settings   *service.SettingService
}

var (
	dbPath    string
	learnerID string
	verbose   bool

	prep *app
)

var rootCmd = &cobra.Command{
	Use:   "prepctl",
	Short: "Offline payroll exam practice",
	Long: `prepctl runs timed exams, practice sessions and flashcard reviews
against a local profile stored in SQLite.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		prep = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if prep != nil {
			prep.db.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "SQLite profile path")
	rootCmd.PersistentFlags().StringVar(&learnerID, "learner", "local", "Profile name inside the database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func openApp(ctx context.Context) (*app, error) {
	log := zerolog.Nop()
	if verbose {
		log = logger.Setup("debug", "pretty", os.Stderr)
	}

	db, err := database.NewSQLiteDB(ctx, dbPath, log)
	if err != nil {
		return nil, err
	}
	kv, err := store.NewSQLiteKV(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare profile store: %w", err)
	}
	if _, err := kv.PurgeExpired(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to purge expired sessions")
	}

	local, err := bank.Catalog()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	// Offline: no remote bank and no cloud sync.
	cfg := &config.Config{SessionTTL: config.Load().SessionTTL}
	profile := store.NewProfile(kv, log)
	banks := service.NewBankService(cfg, local, nil, profile, log)
	flashcards := service.NewFlashcardService(banks, profile, log)

	return &app{
		db:         db,
		learner:    model.Learner{ID: learnerID},
		banks:      banks,
		sessions:   service.NewSessionService(cfg, banks, profile, service.NewSyncService(cfg, nil, log), log),
		flashcards: flashcards,
		progress:   service.NewProgressService(banks, flashcards, profile, log),
		settings:   service.NewSettingService(profile, log),
	}, nil
}

func defaultDBPath() string {
	if p := os.Getenv("SQLITE_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "exprep.db"
	}
	return filepath.Join(home, ".exprep", "profile.db")
}
