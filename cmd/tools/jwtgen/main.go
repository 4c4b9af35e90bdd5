package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"asset-tracker/internal/auth"
	"asset-tracker/internal/config"
)

func main() {
	var (
		userID     = pflag.Int64("user", 1, "User ID")
		roles      = pflag.String("roles", auth.RoleAdmin, "Comma-separated list of roles (viewer, editor, admin)")
		expiryMins = pflag.Int("expiry", 1440, "Token expiry in minutes (default: 24 hours)")
		secret     = pflag.String("secret", "", "JWT secret (overrides JWT_SECRET env var)")
		issuer     = pflag.String("issuer", "", "JWT issuer (overrides JWT_ISS env var)")
		audience   = pflag.String("audience", "", "JWT audience (overrides JWT_AUD env var)")
		configFile = pflag.StringP("config", "c", "", "optional YAML config file")
	)
	pflag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Override with command line flags if provided
	if *secret != "" {
		cfg.JWTSecret = *secret
	}
	if *issuer != "" {
		cfg.JWTIssuer = *issuer
	}
	if *audience != "" {
		cfg.JWTAudience = *audience
	}
	cfg.JWTExpiry = time.Duration(*expiryMins) * time.Minute
	if err := cfg.ValidateJWT(); err != nil {
		log.Fatalf("Invalid JWT settings: %v", err)
	}

	roleList, err := auth.ParseRoles(*roles)
	if err != nil {
		log.Fatalf("Invalid --roles: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	token, err := jwtManager.GenerateToken(*userID, roleList)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("JWT Token generated successfully!\n\n")
	fmt.Printf("User ID: %d\n", *userID)
	fmt.Printf("Roles: %s\n", strings.Join(roleList, ", "))
	fmt.Printf("Expiry: %d minutes\n", *expiryMins)
	fmt.Printf("Issuer: %s\n", cfg.JWTIssuer)
	fmt.Printf("Audience: %s\n", cfg.JWTAudience)
	fmt.Printf("\nToken:\n%s\n\n", token)

	fmt.Printf("Usage example:\n")
	fmt.Printf("curl -H \"Authorization: Bearer %s\" http://localhost:8080/api/assets\n", token)
}
