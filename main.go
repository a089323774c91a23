package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/weatherly/weather-proxy/cache"
)

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if errors.Is(err, errMissingAPIKey) {
		fmt.Fprintln(os.Stderr, "ERRO: Defina a variável de ambiente OPENWEATHER_API_KEY com a sua chave da OpenWeatherMap.")
		fmt.Fprintln(os.Stderr, "Obtenha uma chave em: https://openweathermap.org/api")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERRO: %v\n", err)
		os.Exit(1)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("DEBUG MODE IS ON")
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	iconClient, weatherClient := newClients(cfg)
	srv, err := newServer(cfg, log.Logger, cache.NewIconStore(), iconClient, weatherClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Int("port", cfg.Port).Str("static_dir", cfg.StaticDir).Msgf("server running at http://localhost:%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down server")
	}
	log.Info().Int("icons_cached", srv.icons.Len()).Msg("shutdown complete")
}
