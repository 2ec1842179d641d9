package providers

import (
	"strings"
	"time"

	"github.com/campus-connect/relay/src/hub"
	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// App builds the Fiber application with the HTTP routes.
func (s *Server) App(serverHeader string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      s.Name(),
		ServerHeader: serverHeader,
	})
	app.Use(recoverer.New())
	s.RegisterRoutes(app)
	return app
}

// RegisterRoutes registers the HTTP routes on a Fiber router.
// The WebSocket upgrade uses FastHTTPHandler, mounted in Handler,
// since Fiber v3 does not hand out the raw *fasthttp.RequestCtx.
func (s *Server) RegisterRoutes(group fiber.Router) {
	group.Get("/healthz", s.handleHealth)
	group.Get("/ws/info", s.handleInfo)

	api := group.Group("/api")
	api.Get("/rooms", s.handleRooms)
	api.Get("/rooms/:roomId/history", s.handleHistory)
	api.Post("/rooms/:roomId/announce", s.handleAnnounce)
	api.Get("/clients", s.handleClients)
	api.Get("/clients/:clientId", s.handleClient)
	api.Post("/clients/:clientId/send", s.handleSendToClient)
}

// Handler routes /ws to the WebSocket upgrade, /metrics to Prometheus and
// everything else to the Fiber app.
func (s *Server) Handler(app *fiber.App) fasthttp.RequestHandler {
	ws := s.FastHTTPHandler()
	prom := fasthttpadaptor.NewFastHTTPHandler(s.metrics.Handler())
	rest := app.Handler()

	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/ws":
			ws(ctx)
		case "/metrics":
			prom(ctx)
		default:
			rest(ctx)
		}
	}
}

func (s *Server) handleInfo(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"websocket": true,
		"endpoint":  "/ws",
		"clients":   s.hub.ClientCount(),
		"rooms":     len(s.hub.Rooms()),
	})
}

// FastHTTPHandler returns a raw fasthttp handler for WebSocket upgrades.
func (s *Server) FastHTTPHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}
		if !s.reserveSlot() {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{"error":"too_many_connections","message":"connection limit reached"}`)
			return
		}

		clientID := uuid.New().String()
		userID := string(ctx.QueryArgs().Peek("userId"))
		h := s.hub

		err := s.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			defer s.releaseSlot()
			client := hub.NewClient(clientID, userID, s.wrap(conn), h)
			h.Register(client)
			go client.WritePump()
			client.ReadPump()
		})
		if err != nil {
			s.releaseSlot()
			s.logger.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}

// wrap applies the read limit and keepalive deadlines to conn.
func (s *Server) wrap(conn *websocket.Conn) *fasthttpConn {
	fc := &fasthttpConn{conn: conn, writeWait: s.cfg.WriteWait()}
	if s.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(int64(s.cfg.MaxMessageBytes))
	}
	if s.cfg.PingInterval > 0 {
		pongWait := s.cfg.PongWait()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}
	return fc
}

// fasthttpConn wraps fasthttp/websocket.Conn to satisfy types.Conn.
type fasthttpConn struct {
	conn      *websocket.Conn
	writeWait time.Duration
}

func (f *fasthttpConn) WriteJSON(v any) error {
	if f.writeWait > 0 {
		_ = f.conn.SetWriteDeadline(time.Now().Add(f.writeWait))
	}
	return f.conn.WriteJSON(v)
}

func (f *fasthttpConn) ReadMessage() ([]byte, error) {
	_, data, err := f.conn.ReadMessage()
	return data, err
}

func (f *fasthttpConn) Close() error { return f.conn.Close() }

func (f *fasthttpConn) Ping() error {
	if f.writeWait > 0 {
		_ = f.conn.SetWriteDeadline(time.Now().Add(f.writeWait))
	}
	return f.conn.WriteMessage(websocket.PingMessage, nil)
}
