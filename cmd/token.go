package cmd

import (
	"fmt"
	"time"

	"booking-insights/core/server"
	"booking-insights/modules/credential/entity"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	tokenUser             string
	importAccessToken     string
	importRefreshToken    string
	importExpiresIn       time.Duration
	importRefreshExpireIn time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect and manage stored provider credentials",
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show credential status for a user without revealing secrets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, err := parseUser()
		if err != nil {
			return err
		}
		app, err := server.Bootstrap(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		cred, err := app.Credential.Repository.GetByUserAndProvider(cmd.Context(), userID, cfg.CalCom.ProviderID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if cred == nil {
			fmt.Fprintln(out, "no credential stored")
			return nil
		}
		fmt.Fprintf(out, "provider:        %s\n", cred.ProviderID)
		fmt.Fprintf(out, "access token:    %s\n", mask(cred.AccessToken))
		fmt.Fprintf(out, "access expires:  %s\n", formatExpiry(cred.AccessTokenExpiresAt))
		fmt.Fprintf(out, "refresh token:   %t\n", cred.HasRefreshToken())
		fmt.Fprintf(out, "refresh expires: %s\n", formatExpiry(cred.RefreshTokenExpiresAt))
		fmt.Fprintf(out, "updated:         %s\n", cred.UpdatedAt.Format(time.RFC3339))
		return nil
	},
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Mint a session token for calling the HTTP API as a user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, err := parseUser()
		if err != nil {
			return err
		}
		app, err := server.Bootstrap(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		token, err := app.Signer.Generate(userID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var tokenImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store provider tokens obtained elsewhere for a user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, err := parseUser()
		if err != nil {
			return err
		}
		if importAccessToken == "" {
			return fmt.Errorf("--access-token is required")
		}
		app, err := server.Bootstrap(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		now := time.Now().UTC()
		cred := &entity.Credential{
			UserID:      userID,
			ProviderID:  cfg.CalCom.ProviderID,
			AccessToken: importAccessToken,
		}
		if importExpiresIn > 0 {
			at := now.Add(importExpiresIn)
			cred.AccessTokenExpiresAt = &at
		}
		if importRefreshToken != "" {
			cred.RefreshToken = &importRefreshToken
		}
		if importRefreshExpireIn > 0 {
			at := now.Add(importRefreshExpireIn)
			cred.RefreshTokenExpiresAt = &at
		}
		if err := app.Credential.Repository.Create(cmd.Context(), cred); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored credential %s for user %s\n", cred.ID, userID)
		return nil
	},
}

func parseUser() (uuid.UUID, error) {
	userID, err := uuid.Parse(tokenUser)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--user must be a UUID: %w", err)
	}
	return userID, nil
}

func mask(secret string) string {
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}

func init() {
	for _, c := range []*cobra.Command{tokenShowCmd, tokenIssueCmd, tokenImportCmd} {
		c.Flags().StringVar(&tokenUser, "user", "", "user id (UUID)")
		_ = c.MarkFlagRequired("user")
		tokenCmd.AddCommand(c)
	}
	tokenImportCmd.Flags().StringVar(&importAccessToken, "access-token", "", "provider access token")
	tokenImportCmd.Flags().StringVar(&importRefreshToken, "refresh-token", "", "provider refresh token")
	tokenImportCmd.Flags().DurationVar(&importExpiresIn, "expires-in", 0, "access token lifetime, 0 for never")
	tokenImportCmd.Flags().DurationVar(&importRefreshExpireIn, "refresh-expires-in", 0, "refresh token lifetime, 0 for never")

	rootCmd.AddCommand(tokenCmd)
}
