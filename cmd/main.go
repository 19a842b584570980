package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/telewall/miniapp-backend/internal/app"
)

const (
	appName   = "telewall"
	envPrefix = "TELEWALL"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Telegram mini-app backend: initData auth and Stars purchases",
		SilenceUsage:  true,
	}

	root.AddCommand(newServeCmd(), newMigrateCmd(), newInitDataCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API, Telegram updates and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.NewEnvConfig(envPrefix)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			application, err := app.New(appName, cfg)
			if err != nil {
				return err
			}
			return application.Run(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply postgres migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.NewMigrateConfig(envPrefix)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			return app.Migrate(ctx, appName, cfg)
		},
	}
}

func newInitDataCmd() *cobra.Command {
	initData := &cobra.Command{
		Use:   "initdata",
		Short: "initData helpers for local development",
	}

	var (
		botToken  string
		userID    int64
		firstName string
		username  string
		authDate  int64
	)

	sign := &cobra.Command{
		Use:   "sign",
		Short: "Print signed initData for the given user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if botToken == "" {
				botToken = os.Getenv(envPrefix + "_TELEGRAM_BOT_TOKEN")
			}
			if botToken == "" {
				return fmt.Errorf("bot token is required (--bot-token or %s_TELEGRAM_BOT_TOKEN)", envPrefix)
			}
			if authDate == 0 {
				authDate = time.Now().Unix()
			}

			raw, err := app.SignInitData(botToken, app.InitDataUser{
				ID:        userID,
				FirstName: firstName,
				Username:  username,
			}, authDate)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}

	sign.Flags().StringVar(&botToken, "bot-token", "", "bot token used for signing")
	sign.Flags().Int64Var(&userID, "user-id", 1, "telegram user id")
	sign.Flags().StringVar(&firstName, "first-name", "Dev", "user first name")
	sign.Flags().StringVar(&username, "username", "", "user username")
	sign.Flags().Int64Var(&authDate, "auth-date", 0, "auth_date unix timestamp (default now)")

	initData.AddCommand(sign)
	return initData
}
