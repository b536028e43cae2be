package main

import (
	"fmt"
	"os"

	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/infrastructure/config"

	"github.com/spf13/pflag"
)

// 開發用：簽發 Bearer token 以呼叫需要登入的路由
func main() {
	userID := pflag.Uint("user-id", 0, "user id placed in the token subject")
	username := pflag.String("username", "", "username claim")
	pflag.Parse()

	if *userID == 0 {
		fmt.Fprintln(os.Stderr, "--user-id is required")
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	token, err := middleware.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer,
		middleware.User{UserID: *userID, Username: *username}, cfg.Auth.TokenTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
