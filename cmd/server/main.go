package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/hr-promotion-core/internal/adapters/repository/postgres"
	"github.com/ogurasousui/hr-promotion-core/internal/core/lifecycle"
	"github.com/ogurasousui/hr-promotion-core/internal/core/promotion"
	"github.com/ogurasousui/hr-promotion-core/internal/platform/config"
	pg "github.com/ogurasousui/hr-promotion-core/internal/platform/db/postgres"
	"github.com/ogurasousui/hr-promotion-core/internal/platform/logging"
	"github.com/ogurasousui/hr-promotion-core/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.Logging)

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database pool")
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)

	tenantRepo := postgres.NewTenantRepository(dbPool)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	orgRepo := postgres.NewOrgRepository(dbPool)
	promotionRepo := postgres.NewPromotionRepository(dbPool)

	validator := lifecycle.NewValidator(
		promotion.NewInFlightSource(promotionRepo),
		postgres.NewResignationSource(dbPool),
		postgres.NewTerminationSource(dbPool),
	)

	promotionSvc := promotion.NewService(
		promotionRepo,
		employeeRepo,
		orgRepo,
		validator,
		nil,
		txManager,
		logger,
	)

	scheduler := worker.NewScheduler(tenantRepo, promotionSvc, logger, nil, cfg.Scheduler.RunHour, cfg.Scheduler.TenantConcurrency)

	handle := scheduler.Start(ctx)

	<-ctx.Done()

	handle.Stop()
}
