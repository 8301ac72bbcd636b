package backend

import (
	"context"
	"errors"
	"fmt"

	"roommates/internal/amqp"
	"roommates/internal/log"
	"roommates/internal/notify"
	"roommates/internal/storage"
	"roommates/internal/storage/jsonfile"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentStorage),
	}
}

// CreateBackend opens the configured store and picks the notification mode:
// queued through AMQP when a URL is set, inline SMTP otherwise.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	res := &BackendResult{Store: store, Cleanup: store.Close}
	emailLog := notify.NewEmailLog(config.EmailLogPath)

	if config.AMQPURL == "" {
		res.Notifier = NewMailNotifier(config, emailLog)
		f.logger.InfoContext(ctx, "Notifications sent inline", "mail_enabled", config.MailEnabled)
		return res, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize AMQP client: %w", err)
	}
	res.Notifier = notify.NewQueueNotifier(client, emailLog)
	res.Queue = client
	res.Cleanup = func() error {
		return errors.Join(client.Close(), store.Close())
	}
	f.logger.InfoContext(ctx, "Notifications queued",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return res, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.Store, error) {
	switch config.Type {
	case JSONBackend:
		store, err := jsonfile.New(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("initialize json store: %w", err)
		}
		f.logger.Info("Initialized json backend", "data_directory", config.DataDirectory)
		return store, nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// NewMailNotifier returns an inline SMTP notifier, or one that reports every
// send as failed when no credentials are configured.
func NewMailNotifier(config Config, emailLog *notify.EmailLog) *notify.MailNotifier {
	var mailer notify.Mailer = notify.DisabledMailer{}
	if config.MailEnabled {
		mailer = notify.NewSMTPMailer(config.SMTP)
	}
	return notify.NewMailNotifier(mailer, emailLog)
}
