// Command worker runs the Temporal worker hosting the pipeline workflow
// and its activities.
package main

import (
	"os"

	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"talentcycle/internal/aiclient"
	"talentcycle/internal/config"
	"talentcycle/internal/pipeline"
	"talentcycle/internal/store"
	"talentcycle/internal/worker"
	"talentcycle/pkg/logger"
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

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatal("connect to temporal", "error", err)
	}
	defer temporalClient.Close()

	w := sdkworker.New(temporalClient, cfg.Temporal.TaskQueue, sdkworker.Options{})
	worker.RegisterAll(w, orch)

	log.Info("worker starting", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(sdkworker.InterruptCh()); err != nil {
		log.Fatal("worker stopped", "error", err)
	}
}
