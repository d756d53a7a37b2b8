// Command devtoken prints a bearer token for local development. Tokens are
// signed with the configured auth.jwt_secret, the same secret the server uses
// to verify tokens issued by the identity provider.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/api/middleware"
	"github.com/phrazzld/cardstock/internal/config"
)

func main() {
	userFlag := flag.String("user", "", "user ID to embed (random when empty)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	userID := uuid.New()
	if *userFlag != "" {
		parsed, err := uuid.Parse(*userFlag)
		if err != nil {
			log.Fatalf("invalid user ID: %v", err)
		}
		userID = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	verifier, err := middleware.NewHMACVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatalf("failed to create signer: %v", err)
	}
	token, err := verifier.Sign(userID, *ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Printf("User:  %s\nToken: %s\n", userID, token)
}
