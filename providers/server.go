package providers

import (
	"sync/atomic"

	"github.com/campus-connect/relay/config"
	"github.com/campus-connect/relay/src/bridge"
	"github.com/campus-connect/relay/src/hub"
	"github.com/campus-connect/relay/src/metrics"
	"github.com/campus-connect/relay/src/service"
	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Server wires the hub, service, metrics and optional Redis mirror into
// the HTTP and WebSocket surface.
type Server struct {
	active   bool
	cfg      *config.SocketConfig
	logger   zerolog.Logger
	hub      *hub.Hub
	service  *service.Service
	metrics  *metrics.Metrics
	bridge   bridge.Bridge
	upgrader websocket.FastHTTPUpgrader
	slots    atomic.Int64 // upgraded connections not yet released
}

// NewServer creates a relay server. Call Activate before serving.
func NewServer(cfg *config.SocketConfig, logger zerolog.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Rooms are public to the campus app's web and mobile clients.
			CheckOrigin: func(*fasthttp.RequestCtx) bool { return true },
		},
	}
}

func (s *Server) Name() string    { return "campus-relay" }
func (s *Server) Version() string { return "0.1.0" }
func (s *Server) IsActive() bool  { return s.active }

// Hub returns the relay hub.
func (s *Server) Hub() *hub.Hub { return s.hub }

// Service returns the relay service.
func (s *Server) Service() *service.Service { return s.service }

// Metrics returns the Prometheus collectors.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// Activate initializes the hub, service, and starts the event loop.
func (s *Server) Activate(redisCfg *bridge.RedisConfig) error {
	s.metrics = metrics.New()
	s.hub = hub.New(s.cfg, s.logger)
	s.hub.SetMetrics(s.metrics)
	s.service = service.New(s.hub, s.logger)
	s.service.OnConnection(func(id string) {
		s.logger.Debug().Str("client_id", id).Msg("client connected")
	})
	s.service.OnDisconnection(func(id string) {
		s.logger.Debug().Str("client_id", id).Msg("client disconnected")
	})

	// The mirror must be attached before the loop starts.
	s.initBridge(redisCfg)

	go s.hub.Run()

	s.active = true
	s.logger.Info().
		Str("server", s.Name()).
		Int("history_capacity", s.cfg.HistoryCapacity).
		Int("max_connections", s.cfg.MaxConnections).
		Msg("relay activated")
	return nil
}

// initBridge tries to start the Redis mirror.
// If Redis is not reachable, the relay runs standalone.
func (s *Server) initBridge(cfg *bridge.RedisConfig) {
	if cfg == nil || !cfg.Enabled {
		s.logger.Info().Msg("redis mirror disabled")
		return
	}
	rb := bridge.NewRedisBridge(cfg, s.metrics, s.logger)

	if err := rb.Start(); err != nil {
		s.logger.Warn().Err(err).Msg("redis mirror unavailable, running standalone")
		_ = rb.Stop()
		return
	}

	s.bridge = rb
	s.hub.SetMirror(rb)
	s.logger.Info().Str("redis_addr", cfg.Addr).Msg("redis mirror connected")
}

// Deactivate stops the mirror and the hub event loop.
func (s *Server) Deactivate() error {
	if s.bridge != nil {
		if err := s.bridge.Stop(); err != nil {
			s.logger.Error().Err(err).Msg("mirror stop error")
		}
		s.bridge = nil
	}
	if s.hub != nil {
		s.hub.Stop()
	}
	s.active = false
	return nil
}

// reserveSlot claims a connection slot, failing once MaxConnections are held.
// Slots are held from before the upgrade until ReadPump returns.
func (s *Server) reserveSlot() bool {
	if s.slots.Add(1) > int64(s.cfg.MaxConnections) {
		s.slots.Add(-1)
		return false
	}
	return true
}

func (s *Server) releaseSlot() { s.slots.Add(-1) }
