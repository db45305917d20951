// Package app builds the shared dependency graph for the server, worker and
// CLI binaries from a loaded config.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/microlearning/site-api/internal/config"
	"github.com/microlearning/site-api/internal/mailing"
	"github.com/microlearning/site-api/internal/pkg/distlock"
	"github.com/microlearning/site-api/internal/pkg/logger"
	"github.com/microlearning/site-api/internal/repository/postgres"
	"github.com/microlearning/site-api/internal/repository/rowstore"
	"github.com/microlearning/site-api/internal/service/contact"
	"github.com/microlearning/site-api/internal/service/resend"
	"github.com/microlearning/site-api/internal/service/sending"
	"github.com/microlearning/site-api/internal/ses"
	"github.com/microlearning/site-api/internal/sheets"
	"github.com/microlearning/site-api/internal/storage"
)

// SweepLockKey names the distributed lock every sweep holds.
const SweepLockKey = "resend-sweep"

// ContactStore is a row store usable by both services and the health check.
type ContactStore interface {
	contact.Repository
	resend.Repository
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Deps holds the opened backends. Optional ones are nil when not configured.
type Deps struct {
	Config  *config.Config
	Store   ContactStore
	Sheets  *sheets.Client
	DB      *sql.DB
	Redis   *redis.Client
	Sender  sending.Sender
	Reports resend.ReportStore
}

// Open connects every backend the config asks for.
func Open(ctx context.Context, cfg *config.Config) (*Deps, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Deps{Config: cfg}

	if err := d.openStore(ctx); err != nil {
		d.Close()
		return nil, err
	}

	sender, err := NewSender(ctx, cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Sender = sender

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		d.Redis = redis.NewClient(opts)
	}

	if cfg.Resend.ReportBucket != "" {
		archive, err := storage.NewReportArchive(ctx, cfg.Resend.ReportBucket, cfg.Resend.ReportRegion)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Reports = archive
	}

	return d, nil
}

func (d *Deps) openStore(ctx context.Context) error {
	cfg := d.Config
	switch cfg.Store.Type {
	case config.StoreSheets:
		client, err := sheets.NewClient(ctx, cfg.Sheets)
		if err != nil {
			return err
		}
		d.Sheets = client
		d.Store = rowstore.New(client)
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		d.DB = db
		d.Store = postgres.NewContactRepo(db)
	case config.StoreLocal:
		table, err := storage.NewLocalTable(cfg.Local.Path)
		if err != nil {
			return err
		}
		d.Store = rowstore.New(table)
	case config.StoreDynamoDB:
		table, err := storage.NewDynamoTable(ctx, cfg.DynamoDB.Table, cfg.DynamoDB.Partition, cfg.DynamoDB.Region)
		if err != nil {
			return err
		}
		d.Store = rowstore.New(table)
	default:
		return fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
	logger.Info("contact store opened", "type", cfg.Store.Type)
	return nil
}

// NewSender builds the mailer for the configured email provider.
func NewSender(ctx context.Context, cfg *config.Config) (*mailing.Mailer, error) {
	var transport sending.Transport
	switch cfg.Email.Provider {
	case config.EmailProviderSES:
		client, err := ses.NewClient(ctx, cfg.Email.SES)
		if err != nil {
			return nil, err
		}
		transport = client
	case config.EmailProviderLog:
		transport = mailing.LogTransport{}
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
	return mailing.NewMailer(transport, cfg.Email, cfg.Site), nil
}

// ContactService builds the submission service.
func (d *Deps) ContactService() *contact.Service {
	return contact.NewService(d.Store, d.Sender)
}

// ResendService builds the sweep service, guarded by the sweep lock when a
// lock backend exists.
func (d *Deps) ResendService() *resend.Service {
	opts := []resend.Option{}
	if d.Reports != nil {
		opts = append(opts, resend.WithReportStore(d.Reports))
	}
	if d.Redis != nil || d.DB != nil {
		ttl := d.Config.Resend.LockTTL()
		opts = append(opts, resend.WithLock(func() resend.Lock {
			return distlock.NewLock(d.Redis, d.DB, SweepLockKey, ttl)
		}))
	} else {
		logger.Warn("no lock backend configured, overlapping sweeps are not prevented")
	}
	return resend.NewService(d.Store, d.Sender, d.Config.Resend.Threshold(), opts...)
}

// Close releases every opened backend.
func (d *Deps) Close() {
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
