// cmd/devtoken/main.go
//
// Token issuance lives outside this service, which leaves local development
// without a way to call the authenticated endpoints. This tool checks a
// user's credentials against the database and prints a token pair signed
// with the configured secret.
//
//	go run ./cmd/devtoken -email admin@example.com -password admin123
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

func main() {
	email := flag.String("email", "admin@example.com", "user email")
	password := flag.String("password", "", "user password")
	flag.Parse()

	if *password == "" {
		log.Fatal("missing -password")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var account user.User
	if err := db.Gorm.Where("email = ? AND is_active = ?", *email, true).First(&account).Error; err != nil {
		log.Fatalf("User lookup failed: %v", err)
	}

	passwordManager := auth.NewPasswordManager(cfg)
	if err := passwordManager.VerifyPassword(*password, account.Password); err != nil {
		log.Fatal("Invalid credentials")
	}

	jwtManager := auth.NewJWTManager(cfg)

	accessToken, err := jwtManager.GenerateAccessToken(account.ID, account.Email, account.IsAdmin)
	if err != nil {
		log.Fatalf("Failed to generate access token: %v", err)
	}

	refreshToken, err := jwtManager.GenerateRefreshToken(account.ID, account.Email)
	if err != nil {
		log.Fatalf("Failed to generate refresh token: %v", err)
	}

	fmt.Printf("access_token:  %s\n", accessToken)
	fmt.Printf("refresh_token: %s\n", refreshToken)
}
