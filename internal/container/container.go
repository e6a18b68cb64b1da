// Package container wires the billing components from configuration and
// owns their lifecycle: ordered initialization and reverse-order teardown.
package container

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/garyjia/gst-billing/internal/billing"
	"github.com/garyjia/gst-billing/internal/config"
	"github.com/garyjia/gst-billing/internal/metrics"
	"github.com/garyjia/gst-billing/internal/repository"
	"github.com/garyjia/gst-billing/internal/service"
	"github.com/garyjia/gst-billing/internal/storage"
	"github.com/garyjia/gst-billing/pkg/database"
)

// Container manages all application dependencies and lifecycle.
type Container struct {
	config   *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	opts     []billing.Option

	db          *database.DB
	schema      *billing.Schema
	synthesizer *billing.Synthesizer
	templates   *storage.TemplateCatalog
	bills       *storage.BillStore
	service     *service.BillService

	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a container from configuration.
// It does not initialize components; call Start.
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...billing.Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		opts:     opts,
	}, nil
}

// Start initializes components in dependency order:
// ledger database, cell schema, storage, then the bill service.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := c.initSchema(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to load field schema: %w", err)
	}

	c.templates = storage.NewTemplateCatalog(c.config.TemplatesPath(), c.logger)
	c.bills = storage.NewBillStore(c.config.OutputPath(), c.logger)
	c.synthesizer = billing.NewSynthesizer(c.schema, c.config.OutputPath(), c.logger, c.opts...)

	c.service = service.NewBillService(
		c.templates,
		c.bills,
		c.synthesizer,
		repository.NewGenerationRepository(c.db.DB, c.logger),
		metrics.New(c.registry),
		c.logger,
	)

	c.ready.Store(true)
	c.logger.Info("Container started successfully",
		zap.String("templates_dir", c.templates.Dir()),
		zap.String("output_dir", c.bills.Dir()))

	return nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	db, err := database.New(ctx, database.Config{
		Path:            c.config.DatabasePath(),
		MaxOpenConns:    c.config.Database.MaxOpenConns,
		MaxIdleConns:    c.config.Database.MaxIdleConns,
		ConnMaxLifetime: c.config.Database.ConnMaxLifetime,
	}, c.logger)
	if err != nil {
		return err
	}

	if err := database.NewMigrator(db, c.logger).Run(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.db = db
	return nil
}

func (c *Container) initSchema() error {
	path := c.config.SchemaFile()
	if path == "" {
		schema, err := billing.DefaultSchema()
		if err != nil {
			return err
		}
		c.schema = schema
		return nil
	}

	schema, err := billing.LoadSchema(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	c.logger.Info("Loaded field schema", zap.String("path", path), zap.Int("fields", len(schema.Fields)))
	c.schema = schema
	return nil
}

// Close releases components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	c.ready.Store(false)
	c.closed.Store(true)

	if err := c.closeDatabase(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("Container closed")
	return nil
}

func (c *Container) closeDatabase() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
	}
	return err
}

// Health checks the ledger connection and the templates folder.
func (c *Container) Health(ctx context.Context) HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if !c.ready.Load() {
		status.Overall = false
		status.Components["container"] = ComponentHealth{Healthy: false, Message: "not started"}
		return status
	}

	if err := c.db.PingContext(ctx); err != nil {
		status.Overall = false
		status.Components["database"] = ComponentHealth{Healthy: false, Message: err.Error()}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: true}
	}

	if info, err := os.Stat(c.templates.Dir()); err != nil || !info.IsDir() {
		status.Overall = false
		status.Components["templates"] = ComponentHealth{Healthy: false, Message: "templates folder could not be found"}
	} else {
		status.Components["templates"] = ComponentHealth{Healthy: true}
	}

	return status
}

// IsReady reports whether Start completed and Close has not been called.
func (c *Container) IsReady() bool {
	return c.ready.Load()
}

// BillService returns the bill service. Only valid after Start.
func (c *Container) BillService() *service.BillService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.service
}

// Registry returns the Prometheus registry the billing metrics live in.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}
