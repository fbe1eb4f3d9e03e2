package main

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"dateflow/api"
	"dateflow/auth"
	"dateflow/credit"
	"dateflow/db"
	"dateflow/match"
	"dateflow/meeting"
	"dateflow/notify"
	"dateflow/response"
	"dateflow/review"
)

func main() {
	_ = godotenv.Load()

	log := newLogger(os.Getenv("LOG_LEVEL"))
	ctx := context.Background()

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap database pool")
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	authService := auth.NewService(auth.NewRepository(pool), jwtSecret)
	ledger := credit.NewLedger(pool)

	inbox := notify.NewPGInbox(pool)
	dispatcher := notify.NewDispatcher(inbox, notify.LogMailer{Log: log}, log)

	meetingStore := meeting.NewPGStore(pool, ledger)
	meetingService := meeting.NewService(meetingStore)

	reviewService := review.NewService(review.NewRepository(pool))

	finalizer := meeting.NewCoordinator(meetingStore, dispatcher).
		WithReviewQueue(reviewService).
		WithLogger(log)

	matchService := match.NewService(match.NewPGStore(pool), meetingStore, dispatcher).
		WithLogger(log)

	responseService := response.NewService(response.NewPGStore(pool), meetingStore, matchService, dispatcher).
		WithLogger(log)

	server := api.NewServer(api.ServerConfig{
		Auth:        authService,
		Meetings:    meetingService,
		Finalizer:   finalizer,
		Responses:   responseService,
		Matches:     matchService,
		Inbox:       inbox,
		Reviews:     reviewService,
		CORSOrigins: splitOrigins(os.Getenv("CORS_ORIGINS")),
		Log:         log,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("dateflow api listening")
	if err := server.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
