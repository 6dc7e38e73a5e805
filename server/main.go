package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	configDir := flag.String("config", ".", "Directory holding tankarena.json")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client if present)")
	flag.Parse()

	settings, err := LoadConfig(*configDir)
	if err != nil {
		l := SetupLogging("info", "console", os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		settings.Addr = *addr
	}
	log := SetupLogging(settings.LogLevel, settings.LogFormat, os.Stdout)
	if settings.LogLevel != "debug" && settings.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = ""
		}
	}

	db, err := OpenDB(settings.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", settings.DBPath).Msg("open database")
	}
	metrics, err := NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("create metrics")
	}
	auth, err := NewAuth(db, settings.AuthSecret, settings.AuthRequired)
	if err != nil {
		log.Fatal().Err(err).Msg("init auth")
	}

	sched := NewScheduler(WithMetrics(metrics))
	analytics := NewAnalytics(db, metrics)
	persister := NewPersister(db, metrics)
	sessions := NewSessionManager(settings, sched, persister, analytics, metrics)

	terrain := LayoutSource{Rows: DefaultLayout}
	lobby, err := sessions.CreateSession(defaultSessionName, terrain)
	if err != nil {
		log.Fatal().Err(err).Msg("create default session")
	}
	lobby.Persistent = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := NewHub(sessions, auth, terrain)
	go hub.Run(ctx)

	server := &http.Server{
		Addr:    settings.Addr,
		Handler: SetupRouter(hub, db, analytics, *clientDir),
	}
	go func() {
		log.Info().Str("addr", settings.Addr).Str("session", lobby.ID).Msg("server starting")
		if *clientDir != "" {
			log.Info().Str("dir", *clientDir).Msg("serving client files")
		}
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	sessions.StopAll()
	sched.Close()
	persister.Stop()
	analytics.Stop()
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
}
