package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"infinite-experiment/garrison/internal/auth"
	"infinite-experiment/garrison/internal/config"
	"infinite-experiment/garrison/internal/db"
	"infinite-experiment/garrison/internal/db/repositories"
	"infinite-experiment/garrison/internal/models/entities"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	var (
		dsn      = pflag.String("dsn", "", "Postgres DSN (defaults to DATABASE_URL / PG_* settings)")
		label    = pflag.String("label", "bot", "label stored with the key")
		mintJWT  = pflag.Bool("jwt", false, "print a bearer token instead of creating an API key")
		userID   = pflag.String("user", "", "Discord user id for --jwt")
		guildID  = pflag.String("guild", "", "Discord guild id for --jwt")
		elevated = pflag.Bool("elevated", false, "mark the --jwt token as guild owner or admin")
		ttl      = pflag.Duration("ttl", 24*time.Hour, "lifetime of the --jwt token")
	)
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *mintJWT {
		if *userID == "" || *guildID == "" {
			fmt.Fprintln(os.Stderr, "--user and --guild are required with --jwt")
			os.Exit(2)
		}
		token, err := auth.NewTokenSigner([]byte(cfg.JWTSecret)).Sign(*userID, *guildID, *elevated, *ttl)
		if err != nil {
			log.Fatalf("sign token: %v", err)
		}
		fmt.Println(token)
		return
	}

	if *dsn == "" {
		*dsn = cfg.DatabaseURL
	}
	sqlDB, err := db.ConnectSQLX(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()

	key := entities.NewApiKey{ID: uuid.NewString(), Label: *label}
	if err := repositories.NewApiKeysRepo(sqlDB).Insert(context.Background(), key); err != nil {
		log.Fatalf("insert api key: %v", err)
	}

	fmt.Println("New API Key:", key.ID)
}
