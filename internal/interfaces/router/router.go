package router

import (
	"fmt"
	"net/http"

	"clientbook-backend/internal/application/alerts"
	authsvc "clientbook-backend/internal/application/auth"
	clientsvc "clientbook-backend/internal/application/clients"
	healthsvc "clientbook-backend/internal/application/health"
	ledgersvc "clientbook-backend/internal/application/ledger"
	"clientbook-backend/internal/application/locking"
	"clientbook-backend/internal/application/overview"
	paymentsvc "clientbook-backend/internal/application/payments"
	"clientbook-backend/internal/application/pricing"
	"clientbook-backend/internal/application/recalc"
	"clientbook-backend/internal/config"
	"clientbook-backend/internal/infrastructure/database"
	"clientbook-backend/internal/infrastructure/lockstore"
	"clientbook-backend/internal/infrastructure/repository"
	authhandler "clientbook-backend/internal/interfaces/handlers/auth"
	clienthandler "clientbook-backend/internal/interfaces/handlers/clients"
	financehandler "clientbook-backend/internal/interfaces/handlers/finance"
	healthhandler "clientbook-backend/internal/interfaces/handlers/health"
	ledgerhandler "clientbook-backend/internal/interfaces/handlers/ledger"
	loghandler "clientbook-backend/internal/interfaces/handlers/logs"
	payhandler "clientbook-backend/internal/interfaces/handlers/payments"
	"clientbook-backend/internal/middleware"
	"clientbook-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Deps are the long-lived resources behind the app. Recalc is shared with the
// cron scheduler so both go through the same lock.
type Deps struct {
	DB     *gorm.DB
	Rdb    *redis.Client
	Recalc *recalc.Service
}

// CreateApp opens the database and Redis from cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *Deps, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("database url is not set for %s", cfg.Env)
	}
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, fmt.Errorf("auto migrate: %w", err)
	}

	_, rdb, err := middleware.Session(sessionConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	app, deps, err := Build(cfg, db, rdb)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return app, deps, nil
}

func sessionConfig(cfg *config.Config) middleware.SessionConfig {
	return middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
}

func lockStore(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (locking.Store, error) {
	switch cfg.LockBackend {
	case "redis", "":
		return lockstore.NewRedis(rdb), nil
	case "database":
		return &lockstore.Gorm{DB: db}, nil
	}
	return nil, fmt.Errorf("unknown LOCK_BACKEND %q", cfg.LockBackend)
}

// Build wires services and routes over an open database and Redis client.
func Build(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*fiber.App, *Deps, error) {
	store, err := lockStore(cfg, db, rdb)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.New(db)
	lock := locking.NewManager(store)

	var notifier alerts.Notifier
	brevo := &alerts.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom, To: cfg.AlertEmail}
	if brevo.Enabled() {
		notifier = brevo
	}

	rc := recalc.NewService(repo, lock)
	rc.Recorder = &recalc.RedisRecorder{Client: rdb}
	rc.Alerts = notifier
	ov := overview.NewService(repo)
	ov.Alerts = notifier

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.SessionStore(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		Collector:      &healthsvc.Collector{Rdb: rdb, DB: &gormDBPinger{db: db}, Lock: lock},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	// Auth
	ah := &authhandler.Handlers{
		Gate:   &authsvc.Gate{AdminHash: cfg.PasscodeHash, ViewerHash: cfg.ViewerPasscodeHash},
		Rdb:    rdb,
		Config: sessionConfig(cfg),
	}
	ag := app.Group("/api/v1/auth")
	ag.Post("/unlock", ah.Unlock)
	ag.Get("/me", ah.Me)
	ag.Delete("/lock", middleware.RequireAuth(), ah.Lock)

	// Finance read model and recalculation
	fh := &financehandler.Handlers{Reader: ov, Recalc: rc}
	fg := app.Group("/api/v1/finance", middleware.RequireAuth())
	fg.Get("/overview", middleware.AuthorizePermission(constants.ViewFinance), fh.Overview)
	fg.Get("/clients/:id", middleware.AuthorizePermission(constants.ViewFinance), fh.Client)
	fg.Post("/clients/:id/recalculate", middleware.AuthorizePermission(constants.Recalculate), fh.RecalculateClient)
	fg.Get("/export", middleware.AuthorizePermission(constants.ExportFinance), fh.Export)
	fg.Post("/recalculate", middleware.AuthorizePermission(constants.Recalculate), fh.Recalculate)

	// Clients
	ch := &clienthandler.Handlers{Clients: clientsvc.NewService(repo), Pricing: pricing.NewService(repo)}
	cg := app.Group("/api/v1/clients", middleware.RequireAuth())
	cg.Post("/", middleware.AuthorizePermission(constants.ManageClients), ch.Create)
	cg.Patch("/:id/pricing", middleware.AuthorizePermission(constants.EditPricing), ch.UpdatePricing)
	cg.Patch("/:id/status", middleware.AuthorizePermission(constants.ManageClients), ch.ChangeStatus)
	cg.Delete("/:id/purge", middleware.AuthorizePermission(constants.PurgeClients), ch.Purge)
	cg.Delete("/:id", middleware.AuthorizePermission(constants.ManageClients), ch.Delete)

	// Append-only logs
	ph := &payhandler.Handlers{Service: paymentsvc.NewService(repo, rc)}
	app.Post("/api/v1/payments", middleware.RequireAuth(), middleware.AuthorizePermission(constants.RecordPayments), ph.Record)

	lh := &ledgerhandler.Handlers{Service: ledgersvc.NewService(repo)}
	app.Post("/api/v1/ledger", middleware.RequireAuth(), middleware.AuthorizePermission(constants.RecordLedger), lh.Record)

	logh := &loghandler.Handlers{Reader: repo}
	app.Get("/api/v1/logs", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ViewLogs), logh.List)

	return app, &Deps{DB: db, Rdb: rdb, Recalc: rc}, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
