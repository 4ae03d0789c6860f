package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.pilab.hu/shadow-oauth/cmd/oauthctl/cmd"
	"go.pilab.hu/shadow-oauth/tracing"
)

func main() {
	logger := zerolog.New(os.Stderr)

	// stdout carries command output only
	tp, err := tracing.InitTracerProvider("shadow-oauth-oauthctl", stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize TracerProvider")
	}

	code := cmd.Execute()

	if err := tp.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Error shutting down TracerProvider")
	}

	os.Exit(code)
}
