package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"jobagent/internal/channels"
	"jobagent/internal/config"
	"jobagent/internal/gateway"
	"jobagent/internal/jobsearch"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := boot(ctx, "http")
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Gateway.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		chs := buildChannels(a.cfg.Telegram, a.assistant)
		for _, ch := range chs {
			go func(c channels.Channel) {
				if err := c.Start(ctx); err != nil && ctx.Err() == nil {
					slog.Error("channel stopped", "name", c.Name(), "error", err)
				}
			}(ch)
		}

		var sessions gateway.SessionLister
		if a.history != nil {
			sessions = a.history
		}
		srv := gateway.NewServer(a.assistant, sessions, chs...)
		slog.Info("starting gateway", "addr", addr, "channels", len(chs))
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "override gateway listen address")
}

func buildChannels(cfg config.TelegramConfig, a *jobsearch.Assistant) []channels.Channel {
	if cfg.BotToken == "" {
		return nil
	}
	opts := []channels.TelegramOption{
		channels.WithSecret(cfg.Secret),
		channels.WithAllowedChats(cfg.AllowedChats),
	}
	if cfg.APIURL != "" {
		opts = append(opts, channels.WithTelegramAPI(cfg.APIURL))
	}
	slog.Info("channel registered", "type", "telegram", "allowed_chats", len(cfg.AllowedChats))
	return []channels.Channel{channels.NewTelegram(cfg.BotToken, a, opts...)}
}
