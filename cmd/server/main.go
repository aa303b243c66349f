// Package main is the entry point for the interview scheduling and
// screening pipeline. The service keeps a bidirectional job/candidate
// match index, drives automated screening calls through their
// lifecycle, scores transcripts, and hands finished screenings to
// recruiters as interview tasks.
//
// Startup wires everything explicitly: configuration, logging, the two
// SQLite databases, the external provider clients, repositories,
// services, the cron scheduler and finally the HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Subham170/AI-Recruitment-sub000/internal/archive"
	"github.com/Subham170/AI-Recruitment-sub000/internal/clients/bolna"
	"github.com/Subham170/AI-Recruitment-sub000/internal/clients/calcom"
	"github.com/Subham170/AI-Recruitment-sub000/internal/clients/openai"
	"github.com/Subham170/AI-Recruitment-sub000/internal/config"
	"github.com/Subham170/AI-Recruitment-sub000/internal/database"
	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/availability"
	availabilityhandlers "github.com/Subham170/AI-Recruitment-sub000/internal/modules/availability/handlers"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/calls"
	callshandlers "github.com/Subham170/AI-Recruitment-sub000/internal/modules/calls/handlers"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/directory"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/matching"
	matchinghandlers "github.com/Subham170/AI-Recruitment-sub000/internal/modules/matching/handlers"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/screening"
	"github.com/Subham170/AI-Recruitment-sub000/internal/modules/tasks"
	taskshandlers "github.com/Subham170/AI-Recruitment-sub000/internal/modules/tasks/handlers"
	"github.com/Subham170/AI-Recruitment-sub000/internal/scheduler"
	"github.com/Subham170/AI-Recruitment-sub000/internal/server"
	"github.com/Subham170/AI-Recruitment-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Msg("Starting scheduling pipeline")

	// Databases
	coreDB, err := database.New(database.Config{
		Path:    cfg.CoreDBPath(),
		Profile: database.ProfileStandard,
		Name:    "core",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open core database")
	}
	defer coreDB.Close()

	indexDB, err := database.New(database.Config{
		Path:    cfg.IndexDBPath(),
		Profile: database.ProfileCache,
		Name:    "index",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open index database")
	}
	defer indexDB.Close()

	if err := coreDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate core database")
	}
	if err := indexDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate index database")
	}

	// External collaborators
	bolnaClient := bolna.NewClient(cfg.BolnaBaseURL, cfg.BolnaAPIKey, cfg.BolnaAgentID, log)
	openaiClient := openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, log)
	calcomClient := calcom.NewClient(cfg.CalComBaseURL, cfg.CalComAPIKey, cfg.CalComEventID, log)

	var archiver screening.Archiver
	if cfg.ArchiveEnabled() {
		s3Archiver, err := archive.NewS3Archiver(context.Background(), cfg.ArchiveBucket, "transcripts", cfg.ArchiveRegion, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize transcript archive")
		}
		archiver = s3Archiver
		log.Info().Str("bucket", cfg.ArchiveBucket).Msg("Transcript archive enabled")
	}

	clock := domain.RealClock{}

	// Repositories
	dirRepo := directory.NewRepository(coreDB.Conn(), log)
	callsRepo := calls.NewRepository(coreDB.Conn(), log)
	availRepo := availability.NewRepository(coreDB.Conn(), log)
	tasksRepo := tasks.NewRepository(coreDB.Conn(), log)
	matchRepo := matching.NewRepository(indexDB.Conn(), log)

	// Services
	matchingSvc := matching.NewService(matchRepo, dirRepo, openaiClient, clock, matching.Config{
		TopK:     cfg.MatchTopK,
		MinScore: cfg.MatchMinScore,
	}, log)

	callsSvc := calls.NewService(callsRepo, dirRepo, bolnaClient, clock, calls.Config{
		ScheduleDelay: cfg.ScheduleDelay,
		BatchItemGap:  cfg.BatchCallGap,
	}, log)

	availSvc := availability.NewService(availRepo, log)
	tasksSvc := tasks.NewService(tasksRepo, clock, log)

	screeningSvc := screening.NewService(callsRepo, dirRepo, bolnaClient, openaiClient, archiver, clock, screening.Config{
		MaxRetries: cfg.MaxRetries,
	}, log)

	var notifier screening.Notifier
	if cfg.CalComAPIKey != "" {
		notifier = calcomClient
	} else {
		log.Warn().Msg("Calendar booking disabled, no API key configured")
	}
	assigner := screening.NewAssigner(callsRepo, dirRepo, availSvc, tasksSvc, notifier, screening.Config{
		MaxRetries: cfg.MaxRetries,
	}, log)

	// Background jobs
	sched := scheduler.New(log)
	jobs := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.ScreeningCron, scheduler.NewScreeningJob(callsRepo, callsSvc, screeningSvc, clock, cfg.CooldownMin, cfg.CooldownMax, cfg.TickItemDelay, log)},
		{cfg.AssignmentCron, scheduler.NewAssignmentJob(callsRepo, assigner, clock, cfg.CooldownMax, cfg.TickItemDelay, log)},
		{cfg.MatchRefreshCron, scheduler.NewMatchRefreshJob(dirRepo, matchingSvc, clock, cfg.TickItemDelay, log)},
		{cfg.SweepCron, scheduler.NewSweepJob(callsRepo, screeningSvc, clock, cfg.CooldownMax, cfg.TickItemDelay, log)},
	}
	for _, j := range jobs {
		if err := sched.AddJob(j.schedule, j.job); err != nil {
			log.Fatal().Err(err).Str("job", j.job.Name()).Msg("Failed to register job")
		}
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:                  log,
		CoreDB:               coreDB,
		IndexDB:              indexDB,
		Config:               cfg,
		CallsHandlers:        callshandlers.NewHandler(callsSvc, log),
		MatchingHandlers:     matchinghandlers.NewHandler(matchingSvc, log),
		AvailabilityHandlers: availabilityhandlers.NewHandler(availSvc, log),
		TasksHandlers:        taskshandlers.NewHandler(tasksSvc, log),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Scheduling pipeline stopped")
}
