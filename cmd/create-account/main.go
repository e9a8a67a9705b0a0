package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5"
	"golang.org/x/term"

	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/database"
	"github.com/stemsi/exprep-backend/internal/logger"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/repository"
	"github.com/stemsi/exprep-backend/internal/service"
	"github.com/stemsi/exprep-backend/internal/store"
)

// create-account creates an instructor or admin account, or grants those roles
// to an existing account with the same email.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	accountRepo := repository.NewAccountRepository(pool)
	authService := service.NewAuthService(cfg, accountRepo, store.NewPostgresKV(pool), log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Instructor Account ===")

	// Email
	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	// Admin flag
	fmt.Print("Grant admin role too? [y/N]: ")
	answer, _ := reader.ReadString('\n')
	admin := strings.EqualFold(strings.TrimSpace(answer), "y")

	// ─── Existing Account: Promote ─────────────────────────────────────
	existing, err := accountRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := accountRepo.UpdateRoles(ctx, existing.ID, true, admin || existing.Admin); err != nil {
			log.Fatal().Err(err).Msg("Failed to update roles")
		}
		fmt.Printf("\nSuccess! Account '%s' (%s) is now an instructor.\n", existing.DisplayName, existing.Email)
		return
	case !errors.Is(err, pgx.ErrNoRows):
		log.Fatal().Err(err).Msg("Failed to look up account")
	}

	// ─── New Account ───────────────────────────────────────────────────

	// Name
	fmt.Print("Enter Display Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Display name is required")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 8 {
		fmt.Println("Error: Password must be at least 8 characters")
		return
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	account := &model.Account{
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		Instructor:   true,
		Admin:        admin,
	}
	if err := accountRepo.Create(ctx, account); err != nil {
		log.Fatal().Err(err).Msg("Failed to create account")
	}

	fmt.Printf("\nSuccess! Account '%s' (%s) created with ID: %s\n", account.DisplayName, account.Email, account.ID)
}
