package registry

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
)

// StoreOption configures role store construction.
type StoreOption func(*StoreOptions)

// StoreOptions captures optional behavior for role persistence.
type StoreOptions struct {
	cacheEnabled bool
	cacheConfig  *cache.Config
}

// WithCache toggles the role repository cache decorator. Writes go through
// the same decorated repository, so replace operations invalidate cached
// reads; without that invalidation path caching would be unsafe here.
func WithCache(enabled bool) StoreOption {
	return func(opts *StoreOptions) {
		if opts == nil {
			return
		}
		opts.cacheEnabled = enabled
	}
}

// WithCacheConfig supplies the cache configuration used when caching is
// enabled.
func WithCacheConfig(cfg cache.Config) StoreOption {
	return func(opts *StoreOptions) {
		if opts == nil {
			return
		}
		opts.cacheConfig = &cfg
	}
}

func applyStoreOptions(options []StoreOption) StoreOptions {
	var opts StoreOptions
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}
	return opts
}

func wrapWithCache(base repository.Repository[*CustomRole], opts StoreOptions) (repository.Repository[*CustomRole], error) {
	if _, ok := base.(*repositorycache.CachedRepository[*CustomRole]); ok {
		return base, nil
	}
	cfg := cache.DefaultConfig()
	if opts.cacheConfig != nil {
		cfg = *opts.cacheConfig
	}
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		return nil, err
	}
	return repositorycache.New(base, service, cache.NewDefaultKeySerializer()), nil
}
