package server

import (
	"context"
	"log"
	"time"

	"backend-trailkeeper/internal/activity"
	"backend-trailkeeper/internal/auth"
	"backend-trailkeeper/internal/config"
	"backend-trailkeeper/internal/export"
	"backend-trailkeeper/internal/playback"
	"backend-trailkeeper/internal/sampler"
	"backend-trailkeeper/internal/stream"
	"backend-trailkeeper/internal/tracking"
	"backend-trailkeeper/internal/trail"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	Backends  Backends
	StoreKind string
	Guard     *activity.Guard
	Stream    *stream.Hub
	Trails    *trail.Service
	Tracking  *tracking.Manager
	Playback  *playback.Manager
}

func NewServer(cfg config.Config, b Backends) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, kind, err := selectStore(ctx, cfg, b)
	if err != nil {
		return nil, err
	}
	log.Printf("trail store: %s", kind)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(b.Redis)
	guard := activity.NewGuard()
	trails := trail.NewService(store)

	s := &Server{
		App:       app,
		Cfg:       cfg,
		Backends:  b,
		StoreKind: kind,
		Guard:     guard,
		Stream:    hub,
		Trails:    trails,
		Tracking:  tracking.NewManager(trails, guard, hub, samplerConfig(cfg)),
		Playback:  playback.NewManager(trails, guard, hub, time.Duration(cfg.PlaybackTickMS)*time.Millisecond),
	}

	registerRoutes(s)
	return s, nil
}

// Close ends live sessions and stops the stream relay. A live recording is
// kept if it already qualifies as a trail.
func (s *Server) Close(ctx context.Context) error {
	s.Playback.Close()
	s.Tracking.Close(ctx)
	return s.Stream.Close()
}

func samplerConfig(cfg config.Config) sampler.Config {
	sc := sampler.DefaultConfig()
	if cfg.SamplerMinIntervalMS > 0 {
		sc.MinInterval = time.Duration(cfg.SamplerMinIntervalMS) * time.Millisecond
	}
	if cfg.SamplerMinDistanceM > 0 {
		sc.MinDistance = cfg.SamplerMinDistanceM
	}
	return sc
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		kind, busy := s.Guard.Current()
		return c.JSON(fiber.Map{"status": "ok", "store": s.StoreKind, "busy": busy, "activity": kind})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewIssuer(s.Cfg.JWTSecret, s.Cfg.AccessKeyHash))

	trails := s.App.Group("/trails")
	trail.RegisterRoutes(trails, s.Trails, jwtMiddleware)
	export.RegisterRoutes(trails, s.Trails)

	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, jwtMiddleware)
	playback.RegisterRoutes(s.App.Group("/playback"), s.Playback, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
