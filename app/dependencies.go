package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/storefront-api/config"
	"github.com/upb/storefront-api/handlers"
	"github.com/upb/storefront-api/identity"
	"github.com/upb/storefront-api/internal/observability"
	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/repositories"
	"github.com/upb/storefront-api/repositories/postgres"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	Products  repositories.ProductRepository
	TxManager repositories.TransactionManager

	// Authentication
	Tokens       *token.Codec
	Hasher       identity.Hasher
	Resolver     *identity.Resolver
	Interceptor  *middleware.Interceptor
	AccessPolicy *middleware.AccessPolicy

	// Services
	AuthService *services.AuthService
	AdminSeeder *services.AdminSeeder

	// Handlers
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	AdminHandler   *handlers.AdminHandler
	HealthHandler  *handlers.HealthHandler
}

// NewDependencies opens the configured database and wires everything on top of it
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesFromFactory(ctx, cfg, logger, factory)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesFromFactory wires all components over an existing repository factory
func NewDependenciesFromFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger, factory *postgres.RepositoryFactory) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		Metrics:     observability.NewMetrics(),
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if cfg.Database.InitSchema {
		if err := deps.DB.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	deps.initRepositories()

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initServices()
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Products = repos.Products
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initAuth builds the token codec, the resolver and the request middlewares
func (d *Dependencies) initAuth(cfg *config.Config) error {
	codec, err := token.NewCodec(token.Config{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	if err != nil {
		return err
	}

	d.Tokens = codec
	d.Hasher = identity.NewBcryptHasher(cfg.Identity.BcryptCost)
	d.Resolver = identity.NewResolver(d.Users, d.Hasher, identity.CacheConfig{
		TTL:  cfg.Identity.CacheTTL,
		Size: cfg.Identity.CacheSize,
	}, d.Logger)
	d.Interceptor = middleware.NewInterceptor(codec, d.Resolver, nil, d.Metrics, d.Logger)
	d.AccessPolicy = middleware.NewAccessPolicy(nil, d.Metrics, d.Logger)

	d.Logger.Info("auth initialized",
		zap.Duration("token_ttl", cfg.JWT.Expiration),
		zap.Duration("principal_cache_ttl", cfg.Identity.CacheTTL))
	return nil
}

func (d *Dependencies) initServices() {
	d.AuthService = services.NewAuthService(d.Users, d.Hasher, d.Resolver, d.Tokens, d.Metrics, d.Logger)
	d.AdminSeeder = services.NewAdminSeeder(d.TxManager, d.Users, d.Hasher, d.Resolver, d.Logger)
}

func (d *Dependencies) initHandlers() {
	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, d.Logger)
	d.ProductHandler = handlers.NewProductHandler(d.Products, d.Logger)
	d.AdminHandler = handlers.NewAdminHandler(d.AuthService, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Logger)
}

// SeedAdmin ensures the configured admin account when seeding is enabled
func (d *Dependencies) SeedAdmin(ctx context.Context) error {
	seed := d.Config.Seed
	if !seed.AdminEnabled {
		d.Logger.Info("admin seeding disabled")
		return nil
	}

	_, err := d.AdminSeeder.EnsureAdmin(ctx, services.AdminAccount{
		Email:     seed.AdminEmail,
		Password:  seed.AdminPassword,
		FirstName: seed.AdminFirstName,
		LastName:  seed.AdminLastName,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
