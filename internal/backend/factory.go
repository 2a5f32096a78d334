package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
	opts   []store.Option
}

// NewFactory creates a factory. Store options are applied to every store it
// opens, after the ones the factory sets itself.
func NewFactory(logger *log.Logger, opts ...store.Option) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend), opts: opts}
}

// CreateBackend opens the KV, starts the change publisher when configured and
// loads the store. Cleanup optionally flushes the store, drains pending
// events and closes everything in reverse order.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	kv, err := f.createKV(config)
	if err != nil {
		return nil, err
	}

	opts := []store.Option{store.WithLogger(f.logger)}
	var (
		pub     *amqp.Publisher
		stopPub = func() {}
	)
	if config.AMQP.URL != "" {
		pub = amqp.NewPublisher(config.AMQP, f.logger)
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan struct{})
		go func() {
			defer close(done)
			pub.Run(runCtx)
		}()
		stopPub = func() {
			cancel()
			<-done
		}
		opts = append(opts, store.WithNotifier(pub))
		f.logger.Info("Change events enabled", "exchange", config.AMQP.Exchange, "routing_key", config.AMQP.RoutingKey)
	}

	st, err := store.Open(ctx, kv, append(opts, f.opts...)...)
	if err != nil {
		stopPub()
		if pub != nil {
			pub.Close()
		}
		kv.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	f.logger.Info("Backend ready", "type", config.Type.String(), "amqp_enabled", pub != nil)

	return &BackendResult{
		Store:     st,
		KV:        kv,
		Publisher: pub,
		Cleanup: func(ctx context.Context) error {
			var errs []error
			if config.FlushOnClose {
				if err := st.Close(ctx); err != nil {
					errs = append(errs, err)
				}
			}
			stopPub()
			if pub != nil {
				if err := pub.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close publisher: %w", err))
				}
			}
			if err := kv.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close storage: %w", err))
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createKV(config Config) (storage.KV, error) {
	switch config.Type {
	case SQLiteBackend:
		kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		f.logger.Info("Initialized SQLite storage", "db_path", config.SQLiteDBPath)
		return kv, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory storage")
		return storage.NewMemoryKV(nil), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// NewExporter returns the spreadsheet exporter, or an in-memory one for dry
// runs.
func NewExporter(ctx context.Context, config Config, logger *log.Logger, dryRun bool) (sheets.Exporter, error) {
	if dryRun {
		return memory.New(config.Sheets.SheetName), nil
	}
	c, err := google.New(ctx, config.Sheets, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return c, nil
}
