package bootstrap

import (
	"context"
	"log"

	"driver-location-be/internal/config"
	"driver-location-be/internal/controller"
	"driver-location-be/internal/handler"
	"driver-location-be/internal/pkg/logger"
	"driver-location-be/internal/repository/contract"
	"driver-location-be/internal/repository/implementation"
	"driver-location-be/internal/repository/memory"
	"driver-location-be/internal/service"
	"driver-location-be/internal/websocket"
	pktNats "driver-location-be/pkg/nats"
	"driver-location-be/pkg/pubsub"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers & Handlers
	LocationController controller.ILocationController
	LocationWSHandler  *handler.LocationWSHandler
	HealthHandler      *handler.HealthHandler

	// Background Services (Exposed for main.go to run)
	DirectiveService service.IDirectiveService

	WebSocketHub *websocket.Hub
	Logger       logger.ILogger

	closers []func()
}

// NewContainer wires every dependency. ctx bounds the lifetime of WebSocket
// sessions; cancelling it closes them.
func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Loggers
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger(cfg.App.WSLogFilePath)
	c.Logger = sysLogger
	c.closers = append(c.closers, func() {
		_ = wsLogger.Sync()
		_ = sysLogger.Sync()
	})

	// 2. Stores & directive bus
	var (
		geoIndex contract.GeoIndexRepository
		liveness contract.LivenessRepository
		bus      pubsub.Bus
		stores   map[string]handler.Pinger
	)

	switch cfg.Redis.Driver {
	case config.StoreDriverMemory:
		log.Printf("[INFO] Using in-memory stores (single instance only)")
		geoIndex = memory.NewGeoIndexRepository()
		liveness = memory.NewLivenessRepository(cfg.Location.LivenessKeyPrefix, cfg.Location.LivenessTTL)
		goBus := pubsub.NewGoChannelBus(watermill.NewStdLogger(false, false))
		bus = goBus
		c.closers = append(c.closers, func() { _ = goBus.Close() })

	default:
		cache := newRedisClient("cache", cfg.Redis.CacheURL)
		storage := newRedisClient("storage", cfg.Redis.StorageURL)
		geoIndex = implementation.NewGeoIndexRepository(storage, cfg.Location.GeoIndexKey)
		liveness = implementation.NewLivenessRepository(cache, cfg.Location.LivenessKeyPrefix)
		bus = pubsub.NewRedisBus(cache)
		stores = map[string]handler.Pinger{
			"cache":   redisPinger{cache},
			"storage": redisPinger{storage},
		}
		c.closers = append(c.closers, func() {
			_ = cache.Close()
			_ = storage.Close()
		})
	}

	// 3. NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}
	c.closers = append(c.closers, natsSub.Close, natsPub.Close)

	var emitter service.EventEmitter
	var publisher handler.EventPublisher
	if natsPub != nil {
		emitter = natsPub
		publisher = natsPub
	}
	var subscriber service.EventSubscriber
	if natsSub != nil {
		subscriber = natsSub
	}

	// 4. Services
	presenceService := service.NewPresenceService(geoIndex, liveness, emitter, cfg.Location.LivenessTTL, sysLogger)
	proximityService := service.NewProximityService(geoIndex, liveness, service.ProximityOptions{
		DefaultLimit: cfg.Location.SearchLimit,
		Concurrency:  cfg.Location.LivenessConcurrency,
		CheckTimeout: cfg.Location.LivenessCheckTimeout,
	}, sysLogger)
	c.DirectiveService = service.NewDirectiveService(bus, subscriber, service.DirectiveOptions{
		HighFrequencyMs: cfg.Location.HighFrequencyMs,
		LowFrequencyMs:  cfg.Location.LowFrequencyMs,
		PublishTimeout:  cfg.Location.PublishTimeout,
	}, sysLogger)

	// 5. WebSocket gateway
	c.WebSocketHub = websocket.NewHub(wsLogger)
	gateway := websocket.NewGateway(c.WebSocketHub, bus, presenceService, websocket.SessionConfig{
		PingInterval:      cfg.Location.PingInterval,
		InactivityTimeout: cfg.Location.InactivityTimeout,
		WriteWait:         cfg.Location.WriteWait,
		SubscribeRetries:  cfg.Location.SubscribeRetries,
		SubscribeBackoff:  cfg.Location.SubscribeBackoff,
		SampleInterval:    cfg.Location.SampleInterval,
		InitialIntervalMs: cfg.Location.LowFrequencyMs,
	}, wsLogger)

	// 6. HTTP surface
	c.LocationController = controller.NewLocationController(presenceService, proximityService, cfg.Location.DefaultRadiusKm)
	c.LocationWSHandler = handler.NewLocationWSHandler(ctx, gateway, publisher, c.DirectiveService, wsLogger)
	c.HealthHandler = handler.NewHealthHandler(cfg.Redis.Driver, stores, c.WebSocketHub)

	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newRedisClient(name, url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis %s URL: %v. Using direct Addr", name, err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis %s: %v", name, err)
	}
	return rdb
}

type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
