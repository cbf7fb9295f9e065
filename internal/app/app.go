// Package app builds the storefront object graph from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/checkout"
	"github.com/example/ec-storefront/internal/cli"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/domain/activitylog"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/category"
	"github.com/example/ec-storefront/internal/domain/inventory"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/review"
	"github.com/example/ec-storefront/internal/domain/session"
	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/infrastructure/tokenstore"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/metrics"
	"github.com/example/ec-storefront/internal/relay"
)

// ErrRelayNotAdmin is returned when the relay account cannot write stock.
var ErrRelayNotAdmin = errors.New("relay account is not an admin")

// App holds everything a storefront process needs. Close releases the
// connections opened while building it.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Metrics   *metrics.Metrics
	Tokens    tokenstore.Store
	Client    *httpclient.Client
	Services  cli.Services
	Inventory *inventory.Service
	Cart      *cart.Store
	Session   *session.Manager
	Outbox    store.OutboxStore
	Checkout  *checkout.Orchestrator

	// The relay signs in on its own so stock writes never ride on the
	// shopper's token.
	RelayTokens    tokenstore.Store
	RelaySession   *session.Manager
	RelayInventory *inventory.Service

	redis   *redis.Client
	closers []func() error
}

// New wires the app. reg may be nil, in which case metrics are not registered.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{Config: cfg, Log: log}
	if reg != nil {
		a.Metrics = metrics.New(reg)
	}
	// Process-wide: outbox payloads and kafka events follow the same encoding.
	decimal.MarshalJSONWithoutQuotes = cfg.API.MoneyAsNumber

	if tokenKey(cfg.Relay.TokenKey) == tokenKey(cfg.Auth.TokenKey) {
		return nil, errors.New("relay.token_key must differ from auth.token_key")
	}
	tokens, err := a.tokenStore(cfg.Auth.TokenKey)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Tokens = tokens
	a.Client = a.newClient(tokens)

	a.Services = cli.Services{
		Products:   product.NewService(a.Client),
		Categories: category.NewService(a.Client),
		Orders:     order.NewService(a.Client),
		Reviews:    review.NewService(a.Client),
		Users:      user.NewService(a.Client),
		Logs:       activitylog.NewService(a.Client),
	}
	a.Inventory = inventory.NewService(a.Services.Products)
	a.Cart = cart.NewStore()
	a.Session = session.NewManager(a.Services.Users, tokens, log)

	relayTokens, err := a.tokenStore(cfg.Relay.TokenKey)
	if err != nil {
		a.Close()
		return nil, err
	}
	relayClient := a.newClient(relayTokens)
	a.RelayTokens = relayTokens
	a.RelaySession = session.NewManager(user.NewService(relayClient), relayTokens, log.Named("relay"))
	a.RelayInventory = inventory.NewService(product.NewService(relayClient))

	outbox, err := a.openOutbox(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Outbox = outbox

	coOpts := []checkout.Option{
		checkout.WithOutbox(outbox),
		checkout.WithLogger(log),
		checkout.WithDefaultPaymentMethod(cfg.Checkout.DefaultPaymentMethod),
	}
	if a.Metrics != nil {
		coOpts = append(coOpts, checkout.WithMetrics(a.Metrics))
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, producer.Close)
		coOpts = append(coOpts, checkout.WithPublisher(producer))
	}
	a.Checkout = checkout.New(a.Cart, a.Services.Orders, a.Inventory, coOpts...)
	return a, nil
}

// Shell returns an interactive shell bound to this app's session and cart.
func (a *App) Shell(out io.Writer) *cli.Shell {
	return cli.New(a.Services, a.Cart, a.Session, a.Checkout, out, a.Log)
}

// AuthorizeRelay signs the relay in, from configured credentials when present
// and from its stored token otherwise. It fails unless the account is an admin.
func (a *App) AuthorizeRelay(ctx context.Context) error {
	rc := a.Config.Relay
	if rc.Email != "" {
		if _, err := a.RelaySession.Login(ctx, rc.Email, rc.Password); err != nil {
			return fmt.Errorf("relay login: %w", err)
		}
	} else if err := a.RelaySession.Bootstrap(ctx); err != nil {
		return fmt.Errorf("relay session: %w", err)
	}
	if !a.RelaySession.IsAdmin() {
		return ErrRelayNotAdmin
	}
	return nil
}

// Relay builds an outbox relay that reconciles stock with the relay's credentials.
func (a *App) Relay() *relay.Relay {
	return relay.New(a.Outbox, a.RelayInventory, relay.Config{
		Interval:    a.Config.Relay.Interval,
		BatchSize:   a.Config.Relay.BatchSize,
		MaxAttempts: a.Config.Relay.MaxAttempts,
	}, a.Metrics, a.Log)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *App) newClient(tokens tokenstore.Store) *httpclient.Client {
	cfg := a.Config.API
	opts := []httpclient.Option{
		httpclient.WithTokenSource(tokens),
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithLogger(a.Log),
	}
	if a.Metrics != nil {
		opts = append(opts, httpclient.WithMetrics(a.Metrics))
	}
	if cfg.Breaker.Enabled {
		opts = append(opts, httpclient.WithBreaker(httpclient.BreakerSettings{
			MaxFailures: cfg.Breaker.MaxFailures,
			OpenTimeout: cfg.Breaker.OpenTimeout,
		}))
	}
	return httpclient.New(cfg.BaseURL, opts...)
}

// tokenStore opens the configured store for one key. Stores of the same
// kind share their file or redis connection.
func (a *App) tokenStore(key string) (tokenstore.Store, error) {
	auth := a.Config.Auth
	switch auth.TokenStore {
	case "", "file":
		return tokenstore.NewFileStore(auth.TokenFile, key), nil
	case "memory":
		return tokenstore.NewMemoryStore(), nil
	case "redis":
		if a.redis == nil {
			a.redis = redis.NewClient(&redis.Options{
				Addr:     a.Config.Redis.Addr,
				Password: a.Config.Redis.Password,
				DB:       a.Config.Redis.DB,
			})
			a.closers = append(a.closers, a.redis.Close)
		}
		return tokenstore.NewRedisStore(a.redis, a.Config.Redis.Prefix, key), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", auth.TokenStore)
	}
}

func (a *App) openOutbox(ctx context.Context) (store.OutboxStore, error) {
	cfg := a.Config.Outbox
	switch cfg.Driver {
	case "", "memory":
		return store.NewMemoryOutbox(), nil
	case "postgres":
		db, err := store.ConnectPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := store.Migrate(ctx, db); err != nil {
			return nil, err
		}
		a.Log.Info("outbox_ready", zap.String("driver", "postgres"))
		return store.NewPostgresOutbox(db), nil
	case "dynamodb":
		client, err := store.NewDynamoClient(ctx, cfg.DynamoDB.Region, cfg.DynamoDB.Endpoint)
		if err != nil {
			return nil, err
		}
		a.Log.Info("outbox_ready", zap.String("driver", "dynamodb"), zap.String("table", cfg.DynamoDB.Table))
		return store.NewDynamoOutbox(client, cfg.DynamoDB.Table), nil
	default:
		return nil, fmt.Errorf("unknown outbox driver %q", cfg.Driver)
	}
}

func tokenKey(key string) string {
	if key == "" {
		return tokenstore.DefaultKey
	}
	return key
}
