// Command token mints bearer tokens for the /api access gate.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"gopherai-chatbot/internal/config"
	"gopherai-chatbot/internal/pkg/jwtutil"
)

func main() {
	client := flag.String("client", "cli", "client name recorded in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime (default: auth.jwt_expire_minute)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret is not set; the API is open and needs no token")
	}

	lifetime := *ttl
	if lifetime == 0 {
		lifetime = time.Duration(cfg.Auth.JWTExpireMinute) * time.Minute
	}

	token, err := jwtutil.GenerateToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, *client, lifetime)
	if err != nil {
		log.Fatalf("generate token failed: %v", err)
	}
	fmt.Println(token)
}
