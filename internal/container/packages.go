package container

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/keygen"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/pages"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/safety"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/serroba/shortlink/internal/store/migrations"
	"go.uber.org/zap"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	healthTimeout      = 2 * time.Second
	safetyCheckTimeout = 3 * time.Second
	memorySweep        = time.Minute
	secretBytes        = 32
)

var errUnknownBackend = errors.New("unknown backend")

// LoggerPackage provides the process logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
	do.ProvideValue[clock.Clock](i, clock.Real{})
}

// redisConn closes the shared client when the injector shuts down.
type redisConn struct {
	client *redis.Client
}

func (c *redisConn) Shutdown() error {
	return c.client.Close()
}

// RedisPackage provides the shared Redis client. Nothing connects until a
// component that needs Redis is built.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*redisConn, error) {
		options := do.MustInvoke[*Options](i)

		return &redisConn{client: redis.NewClient(&redis.Options{Addr: options.RedisAddr})}, nil
	})
	do.Provide(i, func(i *do.Injector) (*redis.Client, error) {
		return do.MustInvoke[*redisConn](i).client, nil
	})
}

// PostgresPackage migrates the schema and provides the connection pool.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresKV, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if options.PostgresDSN == "" {
			return nil, errors.New("postgres store requires --postgres-dsn")
		}

		migrator, err := migrations.New(options.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}

		if err = migrator.Up(); err != nil {
			_ = migrator.Close()

			return nil, err
		}

		if err = migrator.Close(); err != nil {
			logger.Warn("closing migrator", zap.Error(err))
		}

		pool, err := pgxpool.New(context.Background(), options.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		return store.NewPostgresKV(pool), nil
	})
}

// StorePackage provides the link store backend selected by --store and the
// health checker for it.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.KV, error) {
		options := do.MustInvoke[*Options](i)

		switch options.Store {
		case StoreMemory:
			return store.NewMemoryKV(memorySweep), nil
		case StoreRedis:
			return store.NewRedisKV(do.MustInvoke[*redis.Client](i), options.RedisKeyPrefix), nil
		case StorePostgres:
			pg := do.MustInvoke[*store.PostgresKV](i)
			if options.CacheTTL <= 0 {
				return pg, nil
			}

			return store.NewCachedKV(pg, do.MustInvoke[*redis.Client](i), seconds(options.CacheTTL)), nil
		default:
			return nil, fmt.Errorf("store %q: %w", options.Store, errUnknownBackend)
		}
	})
	do.Provide(i, func(i *do.Injector) (health.Checker, error) {
		options := do.MustInvoke[*Options](i)

		switch options.Store {
		case StoreRedis:
			return store.NewRedisKV(do.MustInvoke[*redis.Client](i), options.RedisKeyPrefix), nil
		case StorePostgres:
			return do.MustInvoke[*store.PostgresKV](i), nil
		default:
			return health.Static{}, nil
		}
	})
}

// ShortenerPackage provides the link store, the service and the admin
// catalog.
func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.LinkStore, error) {
		options := do.MustInvoke[*Options](i)

		return shortener.NewLinkStore(do.MustInvoke[shortener.KV](i), seconds(options.LinkTTL)), nil
	})
	do.Provide(i, func(i *do.Injector) (*shortener.ContentIndex, error) {
		options := do.MustInvoke[*Options](i)

		return shortener.NewContentIndex(do.MustInvoke[shortener.KV](i), seconds(options.LinkTTL)), nil
	})
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		options := do.MustInvoke[*Options](i)

		generate, err := keygen.New(options.KeyLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewService(
			do.MustInvoke[*shortener.LinkStore](i),
			do.MustInvoke[*shortener.ContentIndex](i),
			generate,
			shortener.Policy{
				Dedup:              options.Dedup,
				AllowCustom:        options.CustomKeys,
				MaxCustomKeyLength: options.MaxCustomKeyLength,
				MaxMintAttempts:    options.MaxMintAttempts,
			},
			do.MustInvoke[clock.Clock](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(i, func(i *do.Injector) (*shortener.Catalog, error) {
		options := do.MustInvoke[*Options](i)

		return shortener.NewCatalog(
			do.MustInvoke[*shortener.LinkStore](i),
			do.MustInvoke[*shortener.ContentIndex](i),
			options.DefaultPageSize,
			options.MaxPageSize,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// AuthPackage provides the authenticator. Without a configured secret a
// random one is generated, so sessions do not survive a restart.
func AuthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*auth.Authenticator, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		clk := do.MustInvoke[clock.Clock](i)

		secret := []byte(options.JWTSecret)
		if len(secret) == 0 {
			secret = make([]byte, secretBytes)
			if _, err := rand.Read(secret); err != nil {
				return nil, fmt.Errorf("generate session secret: %w", err)
			}

			logger.Warn("no JWT secret configured, sessions end when the process exits")
		}

		if options.AdminPassword == "" {
			logger.Warn("no admin password configured, login is disabled")
		}

		maxAge := seconds(options.SessionMaxAge)
		if maxAge <= 0 {
			maxAge = auth.DefaultMaxAge
		}

		return auth.NewAuthenticator(
			auth.NewSigner(secret, clk),
			auth.Credentials{Username: options.AdminUsername, Password: options.AdminPassword},
			options.APIKey,
			maxAge,
			clk,
		), nil
	})
}

// RateLimitPackage provides the shorten rate limiter.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		options := do.MustInvoke[*Options](i)
		clk := do.MustInvoke[clock.Clock](i)

		switch options.RateLimitStore {
		case StoreMemory:
			return store.NewRateLimitMemoryStore(clk), nil
		case StoreRedis:
			return store.NewRateLimitRedisStore(do.MustInvoke[*redis.Client](i), clk), nil
		default:
			return nil, fmt.Errorf("rate limit store %q: %w", options.RateLimitStore, errUnknownBackend)
		}
	})
	do.Provide(i, func(i *do.Injector) (ratelimit.Limiter, error) {
		options := do.MustInvoke[*Options](i)

		return ratelimit.NewSlidingWindowLimiter(
			do.MustInvoke[ratelimit.Store](i),
			int64(options.RateLimitMax),
			time.Duration(options.RateLimitMS)*time.Millisecond,
		), nil
	})
}

// SafetyPackage provides the URL safety checker.
func SafetyPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (safety.Checker, error) {
		options := do.MustInvoke[*Options](i)
		if options.SafeBrowsingKey == "" {
			return safety.Disabled{}, nil
		}

		return safety.NewGoogleChecker(options.SafeBrowsingKey, "", safetyCheckTimeout), nil
	})
}

// PagesPackage provides the interstitial page renderer.
func PagesPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (pages.Renderer, error) {
		options := do.MustInvoke[*Options](i)

		return pages.NewTemplateRenderer(options.PagesDir)
	})
}

// PublisherGroupPackage provides the event publisher: Redis streams when
// --events is on, a discarding publisher otherwise.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if !options.Events {
			return messaging.NewPublisherGroup(messaging.Discard{}), nil
		}

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client:     do.MustInvoke[*redis.Client](i),
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			},
			messaging.NewZapLoggerAdapter(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create event publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
	do.Provide(i, func(i *do.Injector) (*events.Publishers, error) {
		return events.NewPublishers(do.MustInvoke[*messaging.PublisherGroup](i).Publisher()), nil
	})
}

// ConsumerGroupPackage provides the consumers for every lifecycle topic.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (message.Subscriber, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        do.MustInvoke[*redis.Client](i),
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: options.ConsumerGroup,
			},
			messaging.NewZapLoggerAdapter(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create event subscriber: %w", err)
		}

		return subscriber, nil
	})
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		subscriber := do.MustInvoke[message.Subscriber](i)

		group := messaging.NewConsumerGroup(subscriber, logger)

		err := events.RegisterConsumers(group, subscriber,
			events.NewLogSink(logger),
			events.NewRepairer(do.MustInvoke[*shortener.LinkStore](i), logger),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("register event consumers: %w", err)
		}

		return group, nil
	})
}

// HTTPPackage provides the router and the huma API with every route and
// middleware registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})
	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		clk := do.MustInvoke[clock.Clock](i)
		authenticator := do.MustInvoke[*auth.Authenticator](i)
		publishers := do.MustInvoke[*events.Publishers](i)

		api := humachi.New(do.MustInvoke[*chi.Mux](i), huma.DefaultConfig("Short Link Service", "1.0.0"))

		api.UseMiddleware(middleware.RequestMeta(api))
		api.UseMiddleware(middleware.RateLimiter(api, do.MustInvoke[ratelimit.Limiter](i), logger))
		api.UseMiddleware(middleware.Authenticate(api, authenticator, logger))

		handlers.RegisterRoutes(api,
			handlers.NewLinkHandler(
				do.MustInvoke[*shortener.Service](i),
				do.MustInvoke[pages.Renderer](i),
				do.MustInvoke[safety.Checker](i),
				publishers,
				handlers.LinkHandlerConfig{BaseURL: options.BaseURL, NoReferrer: options.NoReferrer},
				clk,
				logger,
			),
			handlers.NewSessionHandler(authenticator, logger),
			handlers.NewAdminHandler(do.MustInvoke[*shortener.Catalog](i), publishers, clk, logger),
		)
		health.RegisterRoutes(api, health.NewHandler(do.MustInvoke[health.Checker](i), healthTimeout))

		return api, nil
	})
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
