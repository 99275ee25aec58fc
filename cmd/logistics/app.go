package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/routedesk/logistics-api/internal/api/handler"
	"github.com/routedesk/logistics-api/internal/core/ports"
	"github.com/routedesk/logistics-api/internal/core/service"
	mongodb "github.com/routedesk/logistics-api/internal/infrastructure/db/mongo"
	redisdb "github.com/routedesk/logistics-api/internal/infrastructure/db/redis"
	"github.com/routedesk/logistics-api/internal/infrastructure/queue"
	"github.com/routedesk/logistics-api/internal/infrastructure/repository"
	"github.com/routedesk/logistics-api/internal/infrastructure/rowstore"
	"github.com/routedesk/logistics-api/internal/infrastructure/rowstore/airtable"
	"github.com/routedesk/logistics-api/internal/infrastructure/rowstore/memory"
	"github.com/routedesk/logistics-api/internal/infrastructure/rowstore/sheets"
	"github.com/routedesk/logistics-api/internal/infrastructure/rowstore/xlsxfile"
	"github.com/routedesk/logistics-api/internal/pkg/config"
)

// app holds the wired services and the resources that need closing.
type app struct {
	users  *service.UserService
	orders *service.OrderService
	admin  *service.AdminService
	checks map[string]handler.Pinger

	// dispatcher is nil when no audit database is configured.
	dispatcher *queue.AuditDispatcher
	closers    []func(context.Context) error
}

func newStore(ctx context.Context, cfg *config.Config) (ports.RowStore, error) {
	var (
		store ports.RowStore
		err   error
	)
	users, _ := cfg.Tables()

	switch cfg.Backend {
	case config.BackendSheets:
		creds, cerr := sheets.LoadCredentials(sheets.CredentialSource{
			JSON:   cfg.Sheets.Credentials,
			Base64: cfg.Sheets.CredentialsBase64,
			File:   cfg.Sheets.CredentialsFile,
		})
		if cerr != nil {
			return nil, cerr
		}
		store, err = sheets.New(ctx, sheets.Config{SpreadsheetID: cfg.Sheets.SpreadsheetID, Credentials: creds})
	case config.BackendAirtable:
		store, err = airtable.New(airtable.Config{APIKey: cfg.Airtable.APIKey, BaseID: cfg.Airtable.BaseID, PingTable: users})
	case config.BackendMemory:
		store = memory.New()
	default:
		store = xlsxfile.New(cfg.XLSX.Path)
	}
	if err != nil {
		return nil, err
	}
	return rowstore.Instrument(store, cfg.Backend), nil
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("row store (%s): %w", cfg.Backend, err)
	}
	usersTable, ordersTable := cfg.Tables()

	a := &app{
		admin:  service.NewAdminService(cfg.Admin.Username, cfg.Admin.Password),
		checks: map[string]handler.Pinger{"store": store.Ping},
	}

	var (
		idem     ports.IdempotencyStore
		recorder ports.StatusRecorder
	)

	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		idem = redisdb.NewIdempotencyStore(client)
		a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	}

	if cfg.Mongo.URI != "" {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)

		audit := mongodb.NewAuditRepository(db)
		if err := audit.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("audit indexes not created")
		}
		a.dispatcher = queue.NewAuditDispatcher(cfg.Audit.Workers, audit, log)
		recorder = a.dispatcher
		a.checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}

	opts := service.Options{
		TolerateProvisioningGap: cfg.Orders.TolerateProvisioningGap,
		StrictTransitions:       cfg.Orders.StrictTransitions,
	}
	a.users = service.NewUserService(repository.NewUserRepository(store, usersTable, log), opts, log)
	a.orders = service.NewOrderService(repository.NewOrderRepository(store, ordersTable), idem, recorder, opts, log)

	log.Info().
		Str("backend", cfg.Backend).
		Bool("idempotency", idem != nil).
		Bool("audit", recorder != nil).
		Bool("strict_transitions", opts.StrictTransitions).
		Msg("services wired")

	return a, nil
}

// close releases connections in reverse order of acquisition.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i](ctx)
	}
}
