package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"legalresearch-backend/config"
	"legalresearch-backend/service"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	root := newRootCmd(os.Stdout, func(baseURL, apiKey string) service.CaseLawClient {
		return service.NewCourtListenerService(
			service.CourtListenerWithBaseURL(baseURL),
			service.CourtListenerWithAPIKey(apiKey),
			service.CourtListenerWithLogger(logger),
		)
	}, cfg)

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errNotFound) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
