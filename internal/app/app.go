package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargeslot/internal/config"
	"chargeslot/internal/db"
	"chargeslot/internal/httpserver"
	"chargeslot/internal/httpserver/handlers"
	"chargeslot/internal/notify"
	"chargeslot/internal/policy"
	"chargeslot/internal/qr"
	"chargeslot/internal/redisconn"
	"chargeslot/internal/repository"
	"chargeslot/internal/service"
	"chargeslot/internal/worker"
)

// App wires booking-service dependencies.
type App struct {
	server      *httpserver.Server
	workers     *worker.Workers
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	var notifier service.Notifier
	if cfg.Redis.Addr != "" {
		redisClient, err = redisconn.New(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		notifier = notify.NewQueue(redisClient, cfg.Redis.Queue)
	} else {
		logger.Warn("redis addr not configured, notifications disabled")
	}

	stationRepo := repository.NewStationRepository(sqlDB)
	bookingRepo := repository.NewBookingRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)
	inventoryRepo := repository.NewInventoryRepository(sqlDB)
	auditRepo := repository.NewAuditRepository(sqlDB)

	rules := policy.Rules{
		MaxHorizonDays:         cfg.Policy.MaxHorizonDays,
		ModifyLockHours:        cfg.Policy.ModifyLockHours,
		EarliestCheckInMinutes: cfg.Policy.EarliestCheckInMinutes,
		GraceMinutes:           cfg.Policy.GraceMinutes,
	}

	tokens := qr.NewService(cfg.QR.Secret)
	inventory := service.NewInventoryService(inventoryRepo, logger)
	bookings := service.NewBookingService(
		stationRepo,
		bookingRepo,
		sessionRepo,
		inventory,
		tokens,
		auditRepo,
		notifier,
		rules,
		logger,
	)

	regenerator := worker.NewRegenerator(stationRepo, inventory, cfg.Regenerator.HorizonDays, cfg.Regenerator.Heal, logger)
	sweeper := worker.NewSweeper(bookings, cfg.Sweeper.PageSize, logger)
	workers, err := worker.New(regenerator, sweeper, worker.Options{
		RegenerateInterval: cfg.RegenerateInterval(),
		SweepInterval:      cfg.SweepInterval(),
		SweepEnabled:       cfg.Sweeper.Enabled,
	}, logger)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	bookingsHandler := handlers.NewBookingsHandler(bookings, logger)
	checkInHandler := handlers.NewCheckInHandler(bookings, logger)
	slotsHandler := handlers.NewSlotsHandler(inventory, logger)

	routes := httpserver.Routes{
		CreateBooking:   bookingsHandler.HandleCreate,
		MyBookings:      bookingsHandler.HandleMine,
		ApproveBooking:  bookingsHandler.HandleApprove,
		ReissueQR:       bookingsHandler.HandleReissueQR,
		RejectBooking:   bookingsHandler.HandleReject,
		CancelBooking:   bookingsHandler.HandleCancel,
		CheckIn:         checkInHandler.HandleCheckIn,
		FinalizeSession: checkInHandler.HandleFinalize,
		AbortSession:    checkInHandler.HandleAbort,
		VerifyQR:        checkInHandler.HandleVerify,
		SlotStatus:      slotsHandler.HandleAvailability,
		Health:          handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		workers:     workers,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the background workers and the HTTP server, stopping both when
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.workers.Start()
	defer func() {
		if err := a.workers.Stop(); err != nil {
			a.logger.Warn("failed to stop background workers", zap.Error(err))
		}
	}()
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
