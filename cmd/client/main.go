package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"collabiora-client/internal/config"
	"collabiora-client/internal/engine"
	"collabiora-client/internal/handlers"
	"collabiora-client/internal/loadsched"
	"collabiora-client/internal/middleware"
	"collabiora-client/internal/notify"
	"collabiora-client/internal/platform"
	"collabiora-client/internal/session"
	"collabiora-client/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Debug)

	middleware.SetSecret(cfg.JWTSecret)

	metrics := utils.NewMetricsCollector()
	notifier := notify.NewHub()
	sess := session.New()

	api := platform.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, sess)

	system := actor.NewActorSystem()
	clientEngine := engine.NewEngine(system, api, sess, notifier, metrics)

	scheduler := loadsched.NewScheduler(loadsched.Thresholds{
		CacheHit:      cfg.Presentation.CacheHitThreshold,
		FirstMissMin:  cfg.Presentation.FirstMissMin,
		FirstMissMax:  cfg.Presentation.FirstMissMax,
		RepeatMissMin: cfg.Presentation.RepeatMissMin,
		RepeatMissMax: cfg.Presentation.RepeatMissMax,
	}, sess, metrics)

	server := handlers.NewServer(system, clientEngine, metrics, sess, notifier, scheduler)
	router := server.Routes(middleware.DefaultCORSConfig(cfg.AllowedOrigins))

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Bridge listening on %s (backend: %s)", serverAddr, cfg.Backend.BaseURL)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// setupLogging routes the standard logger through a tinted slog handler so
// actor and scheduler log lines come out structured and leveled.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})
	slog.SetDefault(slog.New(handler))
	log.SetFlags(0)
	log.SetOutput(slogWriter{})
}

// slogWriter adapts log.Printf output onto the default slog handler.
type slogWriter struct{}

func (slogWriter) Write(p []byte) (int, error) {
	message := string(p)
	if n := len(message); n > 0 && message[n-1] == '\n' {
		message = message[:n-1]
	}
	slog.Info(message)
	return len(p), nil
}
