package main

import (
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/stepwise/internal/adapters/webhook"
	"github.com/samirrijal/stepwise/internal/pkg/config"
	"github.com/samirrijal/stepwise/internal/pkg/logging"
	"github.com/samirrijal/stepwise/internal/workflows"
)

func main() {
	cfg, err := config.Load("stepwise-escalator")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	activities := &workflows.SafetyActivities{}
	if cfg.Temporal.CaregiverWebhook != "" {
		activities.Notifier = webhook.New(cfg.Temporal.CaregiverWebhook, nil)
	} else {
		slog.Warn("temporal.caregiver_webhook not set, alerts will be recorded as unnotified")
	}

	w.RegisterWorkflow(workflows.SafetyAlertWorkflow)
	w.RegisterActivity(activities)

	slog.Info("escalator worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
