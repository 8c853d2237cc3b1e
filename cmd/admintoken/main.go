// Command admintoken mints a bearer token for the admin API, signed with the
// same ADMIN_JWT_SECRET the server verifies against. Intended for operators
// bootstrapping access:
//
//	ADMIN_JWT_SECRET=... go run ./cmd/admintoken -subject ops-1
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/easymeds/platform/internal/auth"
	"github.com/easymeds/platform/internal/config"
)

func main() {
	subject := flag.String("subject", "admin", "token subject, shows up in admin audit logs")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	tokens := auth.NewTokenManager(cfg.AdminJWTSecret, cfg.AdminTokenTTL)
	token, err := tokens.Issue(*subject, auth.RoleAdmin)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}

	fmt.Println(token)
}
