package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"timebank-go/internal/config"
	"timebank-go/internal/db"
	balancesdomain "timebank-go/internal/domain/balances"
	entriesdomain "timebank-go/internal/domain/entries"
	"timebank-go/internal/domain/identity"
	statsdomain "timebank-go/internal/domain/stats"
	tasksdomain "timebank-go/internal/domain/tasks"
	userdomain "timebank-go/internal/domain/user"
	"timebank-go/internal/notify"
	balancesrepo "timebank-go/internal/repository/postgres/balances"
	entriesrepo "timebank-go/internal/repository/postgres/entries"
	statsrepo "timebank-go/internal/repository/postgres/stats"
	tasksrepo "timebank-go/internal/repository/postgres/tasks"
	userrepo "timebank-go/internal/repository/postgres/user"
	"timebank-go/internal/transport/httpserver"
	"timebank-go/internal/transport/httpserver/handler"
	"timebank-go/internal/transport/httpserver/handler/admin"
	"timebank-go/internal/transport/httpserver/handler/balances"
	"timebank-go/internal/transport/httpserver/handler/common"
	"timebank-go/internal/transport/httpserver/handler/entries"
	"timebank-go/internal/transport/httpserver/handler/tasks"
	"timebank-go/pkg/logger"
)

type Services struct {
	Users    *userdomain.Service
	Tasks    *tasksdomain.Service
	Entries  *entriesdomain.Service
	Balances *balancesdomain.Service
	Stats    *statsdomain.Service
}

type App struct {
	cfg        config.Config
	log        logger.Logger
	db         *gorm.DB
	queue      *notify.Queue
	services   Services
	httpServer *http.Server
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database", "host", cfg.DB.Host, "db", cfg.DB.Name)
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	queue := notify.NewQueue(newSender(cfg, log), log, cfg.Notify.Workers)
	services := newServices(dbConn, queue, log)

	log.Info("app: initializing router")
	handlers := handler.New(
		common.New(services.Users, log),
		entries.New(services.Entries, log),
		tasks.New(services.Tasks, log),
		balances.New(services.Balances, log),
		admin.New(services.Entries, services.Balances, services.Stats, cfg.Cleanup.DefaultAge, log),
	)
	router := httpserver.NewRouter(cfg, handlers, services.Users, log)

	return &App{
		cfg:        cfg,
		log:        log,
		db:         dbConn,
		queue:      queue,
		services:   services,
		httpServer: httpserver.New(cfg, router),
	}, nil
}

func newSender(cfg config.Config, log logger.Logger) notify.Sender {
	if !cfg.SMTP.Enabled {
		log.Info("notify: smtp disabled, logging messages instead")
		return notify.NewLogSender(log)
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

func newServices(dbConn *gorm.DB, notifier *notify.Queue, log logger.Logger) Services {
	users := userdomain.NewService(userrepo.NewPostgres(dbConn))
	taskService := tasksdomain.NewService(tasksrepo.NewPostgres(dbConn))

	return Services{
		Users:    users,
		Tasks:    taskService,
		Entries:  entriesdomain.NewService(entriesrepo.NewPostgres(dbConn), taskService, users, notifier, log),
		Balances: balancesdomain.NewService(balancesrepo.NewPostgres(dbConn), users, notifier, log),
		Stats:    statsdomain.NewService(statsrepo.NewPostgres(dbConn)),
	}
}

func (a *App) Config() config.Config {
	return a.cfg
}

func (a *App) Services() Services {
	return a.services
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Migrate() ([]string, error) {
	return db.Migrate(a.db, a.cfg.DB.MigrationsDir, a.log)
}

// Cleanup runs the entry retention job outside of any HTTP request.
func (a *App) Cleanup(ctx context.Context, olderThan time.Duration, mode entriesdomain.CleanupMode) (*entriesdomain.CleanupResult, error) {
	return a.services.Entries.Cleanup(ctx, identity.System, entriesdomain.CleanupInput{
		OlderThan: olderThan,
		Mode:      mode,
	})
}

// Close drains pending notifications before releasing the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.queue != nil {
		if err := a.queue.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if err := db.Close(a.db); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
