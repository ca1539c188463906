// Command talentcycle serves the pipeline's HTTP triggering surface.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talentcycle/internal/aiclient"
	"talentcycle/internal/config"
	"talentcycle/internal/pipeline"
	"talentcycle/internal/server"
	"talentcycle/internal/store"
	"talentcycle/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("open database", "error", err)
	}
	if err := st.Migrate(); err != nil {
		log.Fatal("migrate database", "error", err)
	}

	auditor := store.NewAuditor(st)
	skills, err := aiclient.NewSkillsClient(cfg.SkillsAI, nil, auditor, log)
	if err != nil {
		log.Fatal("build skills client", "error", err)
	}
	career, err := aiclient.NewCareerClient(cfg.CareerAI, nil, auditor, log)
	if err != nil {
		log.Fatal("build career client", "error", err)
	}

	orch := pipeline.New(st, skills, career, cfg.Pipeline, log)
	srv := server.New(orch, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
