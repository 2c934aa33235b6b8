package handler

import (
	"ai-tutoring-sync/internal/pkg/logger"
	"ai-tutoring-sync/internal/pkg/serverutils"
	internalWS "ai-tutoring-sync/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type OrchestrationHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewOrchestrationHandler(hub *internalWS.Hub, log logger.ILogger) *OrchestrationHandler {
	return &OrchestrationHandler{
		hub:    hub,
		logger: log,
	}
}

// ServeWs handles websocket requests from clients.
func (h *OrchestrationHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing session id"})
	}

	// Token source priority: query param (browser standard), then
	// Authorization header (tooling / non-browser clients).
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	tokenSessionID, err := serverutils.ParseSessionToken(tokenStr)
	if err != nil {
		h.logger.Warn("OrchestrationHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	// A token only opens the session it was minted for.
	if tokenSessionID != sessionID {
		h.logger.Warn("OrchestrationHandler", "Token session mismatch", map[string]interface{}{
			"session_id": sessionID,
			"token_sid":  tokenSessionID,
		})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Token not valid for this session"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("OrchestrationHandler", "Starting orchestration stream", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID)
			h.logger.Info("OrchestrationHandler", "Orchestration stream ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes mounts the websocket endpoint on the root router (it lives
// outside the /api group so the path matches what clients dial).
func (h *OrchestrationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/orchestration/:sessionId", h.ServeWs)
}
