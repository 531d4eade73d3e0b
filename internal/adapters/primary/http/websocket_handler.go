package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	mw "github.com/lorrc/service-desk-insights/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/service-desk-insights/internal/adapters/primary/websocket"
	"github.com/lorrc/service-desk-insights/internal/auth"
)

// WebSocketConfig holds configuration for the WebSocket handler
type WebSocketConfig struct {
	AllowedOrigins  []string // host names; "*.example.com" matches example.com and its subdomains
	ReadBufferSize  int
	WriteBufferSize int
	IsDevelopment   bool
}

// originPolicy decides which browser origins may open the dashboard feed.
type originPolicy struct {
	allowAll bool
	exact    map[string]bool
	suffixes []string // ".example.com"
}

func newOriginPolicy(cfg WebSocketConfig) originPolicy {
	p := originPolicy{allowAll: cfg.IsDevelopment, exact: make(map[string]bool)}
	for _, allowed := range cfg.AllowedOrigins {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "*" {
			p.allowAll = true
			continue
		}
		if suffix, ok := strings.CutPrefix(allowed, "*"); ok {
			p.suffixes = append(p.suffixes, suffix)
			p.exact[strings.TrimPrefix(suffix, ".")] = true
			continue
		}
		p.exact[allowed] = true
	}
	return p
}

// allows reports whether origin may connect. Requests without an Origin
// header come from non-browser clients and are allowed.
func (p originPolicy) allows(origin string) bool {
	if origin == "" || p.allowAll {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := strings.ToLower(parsed.Host)
	if p.exact[host] {
		return true
	}
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// WebSocketHandler upgrades authenticated requests to the live dashboard
// feed.
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	tm       *auth.TokenManager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tm *auth.TokenManager,
	cfg WebSocketConfig,
	logger *slog.Logger,
) *WebSocketHandler {
	h := &WebSocketHandler{hub: hub, tm: tm, logger: logger}
	policy := newOriginPolicy(cfg)

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if policy.allows(origin) {
				return true
			}
			h.logger.WarnContext(r.Context(), "websocket origin rejected",
				"origin", origin,
				"remote_addr", r.RemoteAddr,
			)
			return false
		},
	}
	return h
}

// websocketToken reads the JWT from the Authorization header, falling back
// to the token query parameter browsers have to use for websockets.
func websocketToken(r *http.Request) string {
	if token, ok := mw.BearerToken(r); ok {
		return token
	}
	return r.URL.Query().Get("token")
}

// ServeHTTP handles WebSocket connection requests
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := websocketToken(r)
	if token == "" {
		h.logger.WarnContext(ctx, "websocket rejected: missing token", "remote_addr", r.RemoteAddr)
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Missing authentication token",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	claims, err := h.tm.ValidateToken(token)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket rejected: invalid token", "remote_addr", r.RemoteAddr, "error", err)
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid or expired token",
			Code:  "INVALID_TOKEN",
		})
		return
	}

	// Upgrade writes its own error response.
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket upgrade failed", "operator_id", claims.OperatorID, "error", err)
		return
	}

	h.logger.InfoContext(ctx, "websocket connection established",
		"operator_id", claims.OperatorID,
		"remote_addr", r.RemoteAddr,
	)
	wsAdapter.NewClient(h.hub, conn, claims.OperatorID, h.logger).Serve()
}
