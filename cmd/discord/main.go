// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	_ "amora-bot/internal/command/care"
	_ "amora-bot/internal/command/chat"
	_ "amora-bot/internal/command/play"

	"amora-bot/internal/config"
	"amora-bot/internal/discord"
	"amora-bot/internal/logging"
	"amora-bot/internal/mind"
	"amora-bot/internal/storage"
	v "amora-bot/internal/version"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()
	logging.Setup(cfg.LogLevel, cfg.LogPath)

	log.Info().Str("version", v.AppVersion).Msgf("starting %s bot", v.AppName)

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	engine := mind.NewEngine(store, cfg.SessionCacheSize)

	go storage.RunExpirySweeper(ctx, store, cfg.SessionRetention)
	go engine.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := discord.StartBot(ctx, cfg, engine); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("discord bot error")
		}
		cancel()
	case <-ctx.Done():
	}

	log.Info().Msg("bot exited cleanly")
}
