package livefeed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"

	"rollcall/cmd/identity"
	"rollcall/cmd/internal/attendance"
)

const (
	wsSubprotocol = "rollcall.livefeed.v1"

	wsDefaultSendQueueSize = 64
	wsDefaultWriteTimeout  = 5 * time.Second
	wsDefaultPingInterval  = 30 * time.Second
	wsDefaultPingTimeout   = 10 * time.Second

	// Origin is required by default and only localhost is allowed,
	// secure-by-default for dev.
	wsDefaultOriginRequired = true
	wsDefaultAllowedOrigins = "http://localhost,http://127.0.0.1"
)

// Authenticator validates a bearer token and yields the user behind it.
// *session.Service satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, now time.Time, token string) (identity.User, error)
}

// Gateway is the WebSocket entrypoint for the live feed. It enforces
// origin policy and authentication, then streams attendance events until
// the peer goes away.
type Gateway struct {
	log  *slog.Logger
	hub  *Hub
	auth Authenticator

	cookieName     string
	originRequired bool
	allowedOrigins []string
	originPatterns []string

	writeTimeout  time.Duration
	pingInterval  time.Duration
	pingTimeout   time.Duration
	sendQueueSize int
}

// NewGateway constructs a Gateway with secure defaults, tunable through
// ROLLCALL_WS_* environment variables.
func NewGateway(log *slog.Logger, hub *Hub, auth Authenticator, cookieName string) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = NewHub(log)
	}
	if cookieName == "" {
		cookieName = "session"
	}

	g := &Gateway{log: log, hub: hub, auth: auth, cookieName: cookieName}

	g.originRequired = envBoolWS("ROLLCALL_WS_ORIGIN_REQUIRED", wsDefaultOriginRequired)
	g.allowedOrigins = envCSVWS("ROLLCALL_WS_ALLOWED_ORIGINS", wsDefaultAllowedOrigins)
	// websocket.Accept runs its own origin policy: same-host is fine,
	// cross-origin needs host patterns. Derive them from the allowed
	// origins so the two layers agree.
	g.originPatterns = originPatterns(g.allowedOrigins)

	g.writeTimeout = envDurationWS("ROLLCALL_WS_WRITE_TIMEOUT", wsDefaultWriteTimeout)
	g.pingInterval = envDurationWS("ROLLCALL_WS_PING_INTERVAL", wsDefaultPingInterval)
	g.pingTimeout = envDurationWS("ROLLCALL_WS_PING_TIMEOUT", wsDefaultPingTimeout)
	g.sendQueueSize = envIntWS("ROLLCALL_WS_SEND_QUEUE", wsDefaultSendQueueSize)

	return g
}

// ServeHTTP upgrades the request and runs the feed loop.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := g.enforceOrigin(r); err != nil {
		g.log.Info("livefeed.reject.origin", "err", err, "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	// Authenticate before the upgrade so rejects are plain HTTP 401s.
	user, err := g.auth.Authenticate(r.Context(), time.Now().UTC(), g.tokenFromRequest(r))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{wsSubprotocol},
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Error("livefeed.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	c := newClient(randomHex(10), user.ID, g.sendQueueSize)
	g.hub.join(c)
	defer g.hub.leave(c.id)
	defer c.close()

	g.log.Info("livefeed.join", "client_id", c.id, "user_id", user.ID)

	// One-way feed: discard anything the client sends and get a context
	// that ends when the peer closes.
	ctx := conn.CloseRead(r.Context())

	ping := time.NewTicker(g.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, g.pingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				g.log.Info("livefeed.ping.fail", "client_id", c.id, "err", err)
				return
			}
		case ev := <-c.send:
			if err := g.writeEvent(ctx, conn, ev); err != nil {
				g.log.Info("livefeed.write.fail", "client_id", c.id, "err", err)
				return
			}
		}
	}
}

func (g *Gateway) writeEvent(ctx context.Context, conn *websocket.Conn, ev attendance.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, g.writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

// tokenFromRequest mirrors the HTTP API's transport rules and adds a
// "token" query parameter for browser WebSocket clients, which cannot
// set an Authorization header.
func (g *Gateway) tokenFromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		parts := strings.SplitN(raw, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie(g.cookieName); err == nil {
		v := strings.TrimSpace(c.Value)
		if strings.HasPrefix(strings.ToLower(v), "bearer ") {
			v = strings.TrimSpace(v[len("bearer "):])
		}
		if v != "" {
			return v
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func (g *Gateway) enforceOrigin(r *http.Request) error {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		if g.originRequired {
			return errOriginRequired
		}
		return nil
	}
	for _, allowed := range g.allowedOrigins {
		if sameOrigin(origin, allowed) {
			return nil
		}
	}
	return errOriginNotAllowed
}

var (
	errOriginRequired   = errString("origin header required")
	errOriginNotAllowed = errString("origin not allowed")
)

type errString string

func (e errString) Error() string { return string(e) }

// sameOrigin compares scheme and host, ignoring the port. Dev servers
// move ports constantly; binding the policy to the port buys nothing.
func sameOrigin(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) && strings.EqualFold(ua.Hostname(), ub.Hostname())
}

func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Hostname() == "" {
			continue
		}
		out = append(out, u.Hostname(), u.Hostname()+":*")
	}
	return out
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "fallback"
	}
	return hex.EncodeToString(b)
}

func envBoolWS(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envIntWS(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDurationWS(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envCSVWS(key, def string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		v = def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
