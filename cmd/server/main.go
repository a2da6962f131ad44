package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/adapter/cache"
	"github.com/voltgrid/evstation/internal/adapter/events"
	httpadapter "github.com/voltgrid/evstation/internal/adapter/http"
	"github.com/voltgrid/evstation/internal/adapter/storage/jsonfile"
	"github.com/voltgrid/evstation/internal/adapter/storage/memory"
	"github.com/voltgrid/evstation/internal/adapter/tcp"
	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/scheduler"
	"github.com/voltgrid/evstation/internal/service/account"
	"github.com/voltgrid/evstation/internal/service/charging"
	"github.com/voltgrid/evstation/internal/service/dispatch"
	"github.com/voltgrid/evstation/internal/service/report"
	"github.com/voltgrid/evstation/internal/service/waiting"
	"github.com/voltgrid/evstation/pkg/config"
)

const serviceName = "evstation"

func main() {
	// 1. Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting EV charging station", zap.String("service", serviceName))

	// 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Persistence
	writer, err := jsonfile.NewWriter(cfg.Data.Dir, cfg.Data.Backups, logger)
	if err != nil {
		logger.Fatal("Failed to initialize data dir", zap.Error(err))
	}

	persist := func(name string) func(v interface{}) {
		return func(v interface{}) {
			if err := writer.Write(name, v); err != nil {
				logger.Warn("Persistence write failed",
					zap.String("file", name), zap.Error(err))
			}
		}
	}
	flushUsers := persist("users")
	flushPiles := persist("piles")
	flushRequests := persist("requests")
	flushBills := persist("bills")

	userRepo := memory.NewUserRepository(func(s []domain.User) { flushUsers(s) })
	pileRepo := memory.NewPileRepository(func(s []domain.ChargingPile) { flushPiles(s) })
	requestRepo := memory.NewRequestRepository(func(s []domain.ChargingRequest) { flushRequests(s) })
	// Sessions are transient; they live only between start and end of a charge.
	sessionRepo := memory.NewSessionRepository(nil)
	billRepo := memory.NewBillRepository(func(s []domain.Bill) { flushBills(s) })

	ctx := context.Background()
	restore(ctx, writer, logger, userRepo, billRepo)

	// 4. Cache (Redis when configured, in-process otherwise)
	var sessionCache = cache.NewLocalCache(time.Minute, logger)
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		sessionCache = redisCache
	}
	defer sessionCache.Close()

	// 5. Event publisher (NATS when configured)
	var publisher = events.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		natsPub, err := events.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		publisher = natsPub
	}
	defer publisher.Close()

	// 6. Pile fleet
	bootstrapPiles(ctx, pileRepo, cfg.Station, logger)

	// 7. Services
	mainQueue := waiting.NewQueue(cfg.Station.WaitingCapacity, logger)
	billingService := charging.NewBillingService(charging.DefaultTariff(), logger)
	chargingService := charging.NewService(
		userRepo, pileRepo, requestRepo, sessionRepo, billRepo,
		mainQueue, billingService, publisher, logger,
	)
	accountService := account.NewService(userRepo, sessionCache, cfg.JWT.Secret, cfg.JWT.TokenDuration, logger)
	reportService := report.NewService(billRepo, pileRepo, logger)
	dispatchService := dispatch.NewService(requestRepo, logger)

	policy, ok := dispatch.ParsePolicy(cfg.Station.DispatchPolicy)
	if !ok {
		logger.Warn("Unknown dispatch policy, falling back to FCFS",
			zap.String("policy", cfg.Station.DispatchPolicy))
		policy = dispatch.PolicyFCFS
	}

	// 8. Scheduler
	sched := scheduler.New(pileRepo, mainQueue, chargingService, dispatchService, policy, cfg.Station.TickInterval, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sched.Run(runCtx)

	// 9. TCP server (driver and admin clients)
	router := tcp.NewRouter(accountService, chargingService, reportService, sched, logger)
	tcpServer := tcp.NewServer(fmt.Sprintf(":%d", cfg.TCP.Port), router, cfg.TCP.ReadTimeout, logger)
	go func() {
		if err := tcpServer.Start(runCtx); err != nil {
			logger.Fatal("TCP server failed", zap.Error(err))
		}
	}()

	// 10. HTTP ops surface
	app := httpadapter.NewApp(chargingService, sessionCache, logger)
	go func() {
		logger.Info("HTTP server listening", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()
	tcpServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// restore reloads durable entities from the data dir. Requests and piles are
// rebuilt fresh on boot: waiting-area state does not survive a restart, and
// the fleet comes from configuration.
func restore(ctx context.Context, writer *jsonfile.Writer, logger *zap.Logger, users *memory.UserRepository, bills *memory.BillRepository) {
	var storedUsers []domain.User
	if err := writer.Load("users", &storedUsers); err == nil {
		for i := range storedUsers {
			if err := users.Save(ctx, &storedUsers[i]); err != nil {
				logger.Warn("Failed to restore user", zap.Error(err))
			}
		}
		logger.Info("Restored users", zap.Int("count", len(storedUsers)))
	} else if !os.IsNotExist(err) {
		logger.Warn("Failed to load users file", zap.Error(err))
	}

	var storedBills []domain.Bill
	if err := writer.Load("bills", &storedBills); err == nil {
		for i := range storedBills {
			if err := bills.Save(ctx, &storedBills[i]); err != nil {
				logger.Warn("Failed to restore bill", zap.Error(err))
			}
		}
		logger.Info("Restored bills", zap.Int("count", len(storedBills)))
	} else if !os.IsNotExist(err) {
		logger.Warn("Failed to load bills file", zap.Error(err))
	}
}

func bootstrapPiles(ctx context.Context, piles *memory.PileRepository, station config.StationConfig, logger *zap.Logger) {
	now := time.Now()
	create := func(id string, mode domain.ChargeMode, powerKW float64) {
		pile := &domain.ChargingPile{
			ID:        id,
			Type:      mode,
			PowerKW:   powerKW,
			State:     domain.PileStateIdle,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := piles.Save(ctx, pile); err != nil {
			logger.Fatal("Failed to create pile", zap.String("pile_id", id), zap.Error(err))
		}
		logger.Info("Pile created",
			zap.String("pile_id", id),
			zap.String("type", string(mode)),
			zap.Float64("power_kw", powerKW),
		)
	}

	for i := 1; i <= station.FastPiles; i++ {
		create(fmt.Sprintf("F%02d", i), domain.ChargeModeFast, station.FastPowerKW)
	}
	for i := 1; i <= station.TricklePiles; i++ {
		create(fmt.Sprintf("T%02d", i), domain.ChargeModeTrickle, station.TricklePowerKW)
	}
}
