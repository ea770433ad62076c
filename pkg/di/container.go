package di

import (
	"log/slog"

	repository "github.com/goliatone/go-repository-bun"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-association-cache/association"
	"github.com/goliatone/go-association-cache/cache"
	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/loader"
	"github.com/goliatone/go-association-cache/repositorycache"
	"github.com/goliatone/go-association-cache/store"
)

// Container wires the association cache: one Store, one type registry, one
// BatchLoader and one association Registry shared by every cached
// repository it builds.
type Container struct {
	config   cache.Config
	store    cache.Store
	types    *entity.Types
	codec    *entity.Codec
	sw       *cache.Switch
	batch    *loader.BatchLoader
	registry *association.Registry
	logger   *slog.Logger
}

// Option customizes a Container.
type Option func(*settings)

type settings struct {
	types  *entity.Types
	sw     *cache.Switch
	logger *slog.Logger
	tracer trace.Tracer
}

// WithTypes supplies a prepared type registry. Default: an empty one.
func WithTypes(types *entity.Types) Option {
	return func(s *settings) { s.types = types }
}

// WithSwitch supplies the caching switch, which NewContainer sets from
// config.Enabled. Pass cache.Default() to drive the process-wide switch.
// Default: a switch private to the container.
func WithSwitch(sw *cache.Switch) Option {
	return func(s *settings) { s.sw = sw }
}

// WithLogger sets the logger shared by the loaders and cached repositories.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithTracer sets the tracer used by the BatchLoader.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *settings) { s.tracer = tracer }
}

// NewContainer validates config, builds the store it selects and wires the
// loaders on top of finder. config.Enabled is applied to the container's
// switch only; other containers are unaffected.
func NewContainer(config cache.Config, finder store.Finder, opts ...Option) (*Container, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.types == nil {
		s.types = entity.NewTypes()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	cacheStore, err := cache.NewStore(config)
	if err != nil {
		return nil, err
	}

	if s.sw == nil {
		s.sw = cache.NewSwitch(config.Enabled)
	} else {
		s.sw.Set(config.Enabled)
	}

	codec := entity.NewCodec(s.types)
	batch := loader.New(cacheStore, codec, finder,
		loader.WithSwitch(s.sw),
		loader.WithLogger(s.logger),
		loader.WithTracer(s.tracer),
	)

	s.logger.Debug("association cache container ready",
		"backend", config.Backend,
		"enabled", config.Enabled,
	)

	return &Container{
		config:   config,
		store:    cacheStore,
		types:    s.types,
		codec:    codec,
		sw:       s.sw,
		batch:    batch,
		registry: association.NewRegistry(batch),
		logger:   s.logger,
	}, nil
}

// NewContainerWithDefaults creates a container using cache.DefaultConfig.
func NewContainerWithDefaults(finder store.Finder, opts ...Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), finder, opts...)
}

// Config returns a copy of the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

// Store returns the shared cache store.
func (c *Container) Store() cache.Store { return c.store }

// Types returns the type ancestry table.
func (c *Container) Types() *entity.Types { return c.types }

// Codec returns the key codec built over Types.
func (c *Container) Codec() *entity.Codec { return c.codec }

// Switch returns the caching switch the container's loaders consult.
func (c *Container) Switch() *cache.Switch { return c.sw }

// BatchLoader returns the loader every cached association goes through.
func (c *Container) BatchLoader() *loader.BatchLoader { return c.batch }

// Associations returns the association registry.
func (c *Container) Associations() *association.Registry { return c.registry }

// Collector returns a Prometheus collector over the container's store.
func (c *Container) Collector(namespace string) *cache.Collector {
	return cache.NewCollector(c.store, namespace, nil)
}

// NewCachedRepository wraps base so records of typeName share the
// container's cache. Deletes clear the record's join rows through the
// container's association registry.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachedRepository[*User](container, baseUserRepository, "User")
func NewCachedRepository[T entity.Entity](container *Container, base repository.Repository[T], typeName string, opts ...repositorycache.Option) *repositorycache.CachedRepository[T] {
	opts = append([]repositorycache.Option{
		repositorycache.WithLogger(container.logger),
		repositorycache.WithRegistry(container.registry),
	}, opts...)
	return repositorycache.New(base, container.batch, typeName, opts...)
}
