package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finplan/internal/cache"
	"finplan/internal/log"
	"finplan/internal/storage"
	"finplan/internal/taxdata"
)

// cleanupInterval is how often expired in-process cache entries are dropped.
const cleanupInterval = 5 * time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	case FileBackend:
		result, err = f.createFileBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	return f.withCache(ctx, config, result), nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.SeedBuiltin {
		seeded, err := repo.SeedBuiltin(ctx)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("seed built-in tax tables: %w", err)
		}
		if seeded {
			f.logger.Info("Seeded empty database with built-in tax tables", "db_path", config.SQLiteDBPath)
		}
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Provider: repo,
		Ready:    repo.Ping,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	p, err := taxdata.NewFileProvider(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax data files: %w", err)
	}

	f.logger.Info("Initialized file backend",
		"data_directory", config.DataDirectory,
		"files", len(p.Files()))

	return &BackendResult{Provider: p}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend with built-in tax tables")
	return &BackendResult{Provider: taxdata.NewBuiltin()}
}

// withCache puts a cache in front of the provider: Redis when an address is
// configured, otherwise an in-process LRU.
func (f *DefaultFactory) withCache(ctx context.Context, config Config, result *BackendResult) *BackendResult {
	if config.CacheSize == 0 {
		return result
	}
	cacheLogger := f.logger.WithComponent(log.ComponentCache).Slog()

	if config.RedisAddr != "" {
		client := cache.NewRedisClient(config.RedisAddr)
		if err := client.Ping(ctx).Err(); err != nil {
			f.logger.Warn("Redis unreachable, using in-process cache", "redis_addr", config.RedisAddr, "error", err)
			client.Close()
		} else {
			result.Provider = taxdata.NewCachedProvider(result.Provider,
				cache.NewRedisCache[taxdata.FederalTaxData](client, "finplan:taxdata:", config.CacheTTL, cacheLogger),
				cache.NewRedisCache[taxdata.StateTaxData](client, "finplan:taxdata:", config.CacheTTL, cacheLogger),
			)
			result.Ready = chainReady(result.Ready, func(ctx context.Context) error { return client.Ping(ctx).Err() })
			result.Cleanup = chainCleanup(result.Cleanup, client.Close)
			f.logger.Info("Tax data cached in Redis", "redis_addr", config.RedisAddr, "ttl", config.CacheTTL)
			return result
		}
	}

	federal := cache.NewLRUCache[taxdata.FederalTaxData](config.CacheSize, config.CacheTTL)
	state := cache.NewLRUCache[taxdata.StateTaxData](config.CacheSize, config.CacheTTL)
	result.Provider = taxdata.NewCachedProvider(result.Provider, federal, state)

	if config.CacheTTL > 0 {
		manager := cache.NewManager(cacheLogger)
		manager.Register(federal)
		manager.Register(state)
		manager.StartCleanup(cleanupInterval)
		result.Cleanup = chainCleanup(result.Cleanup, func() error {
			manager.Stop()
			return nil
		})
	}
	f.logger.Info("Tax data cached in process", "size", config.CacheSize, "ttl", config.CacheTTL)
	return result
}

func chainReady(first, second func(context.Context) error) func(context.Context) error {
	if first == nil {
		return second
	}
	return func(ctx context.Context) error {
		return errors.Join(first(ctx), second(ctx))
	}
}

func chainCleanup(first, second CleanupFunc) CleanupFunc {
	if first == nil {
		return second
	}
	return func() error {
		return errors.Join(second(), first())
	}
}
