// Command sweep runs an operator reconciliation sweep from the command line,
// useful when the provider has been flaky and webhooks may have been missed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"resultpay/internal/config"
	"resultpay/internal/db"
	"resultpay/internal/model"
	"resultpay/internal/notify"
	"resultpay/internal/provider"
	"resultpay/internal/render"
	"resultpay/internal/repository"
	"resultpay/internal/service"
)

func main() {
	examID := flag.String("exam", "", "exam id to sweep (required)")
	dryRun := flag.Bool("dry-run", false, "report would-be changes without writing")
	flag.Parse()

	if *examID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := gormDB.AutoMigrate(&model.PaymentRecord{}, &model.ExamResult{}, &model.DeliveredResult{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	providerClient := provider.NewHTTPClient(
		cfg.ProviderBaseURL,
		cfg.ProviderSecretKey,
		time.Duration(cfg.ProviderTimeoutSec)*time.Second,
	)

	paymentRepo := repository.NewPaymentRepository(gormDB)
	resultRepo := repository.NewResultRepository(gormDB)

	// completions triggered by a sweep deliver like any other entry point
	var notifier notify.Notifier
	if cfg.SMTPAddr != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}
	completion := service.NewCompletionService(resultRepo, render.NewTextRenderer(), notifier, logger)
	reconciler := service.NewReconcileService(paymentRepo, providerClient, completion, logger)

	report, err := reconciler.SweepExam(context.Background(), *examID, *dryRun)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encode report: %v", err)
	}
	os.Stdout.Write(append(encoded, '\n'))
}
