package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"matisse/internal/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token",
	Long:  `Issue a signed access token for calling authenticated endpoints. Requires auth.jwt_secret to be configured.`,
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	flags := tokenCmd.Flags()
	flags.String("user", "dev", "user id to embed in the token")
	flags.Duration("expiry", 24*time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}

	userID, _ := cmd.Flags().GetString("user")
	expiry, _ := cmd.Flags().GetDuration("expiry")

	j := jwt.NewJWT(cfg.Auth.JWTSecret, expiry)
	token, err := j.GenerateToken(userID)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	fmt.Println(token)
	return nil
}
