package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/otp-auth-service/config"
	"github.com/oksasatya/otp-auth-service/internal/domain/entity"
	"github.com/oksasatya/otp-auth-service/internal/domain/repository"
	pginfra "github.com/oksasatya/otp-auth-service/internal/infrastructure/postgres"
	"github.com/oksasatya/otp-auth-service/pkg/helpers"
)

// Seeds one verified demo account so signin works without an email round trip.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, time.Minute)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	email := "demo@example.com"
	password := "password123"
	hash, err := helpers.NewBcryptHasher(0).Hash(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	repo := pginfra.NewAccountRepository(pool)
	acc := &entity.Account{
		Email:        email,
		FirstName:    "Demo",
		LastName:     "User",
		Gender:       "Other",
		BirthDate:    time.Date(1995, time.January, 15, 0, 0, 0, 0, time.UTC),
		PasswordHash: hash,
		Verified:     true,
	}
	err = repo.Save(ctx, acc)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		fmt.Printf("account %s already exists, nothing to do\n", email)
		return
	}
	if err != nil {
		log.Fatalf("failed to seed account: %v", err)
	}
	fmt.Printf("seeded account: id=%s email=%s password=%s\n", acc.ID, email, password)
}
