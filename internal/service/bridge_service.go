package service

import (
	"context"
	"encoding/json"
	"strings"

	"ai-tutoring-sync/internal/pkg/logger"
	"ai-tutoring-sync/pkg/events"
	pktNats "ai-tutoring-sync/pkg/nats"
	"ai-tutoring-sync/pkg/orchestration"
)

// frameSubjectPrefix is where external orchestration engines publish frames:
// orchestration.frame.<session_id>, payload = one wire frame.
const frameSubjectPrefix = "orchestration.frame."

// BridgeService forwards frames published on NATS into the local hub, so an
// engine running in another process (or the real backend) can drive sessions
// whose sockets are held by this instance.
type BridgeService struct {
	subscriber *pktNats.Subscriber
	delivery   FrameDelivery
	logger     logger.ILogger
}

func NewBridgeService(sub *pktNats.Subscriber, delivery FrameDelivery, log logger.ILogger) *BridgeService {
	return &BridgeService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening. Call in a goroutine; it returns after subscribing.
func (s *BridgeService) Start() {
	err := s.subscriber.Subscribe(frameSubjectPrefix+">", "orchestration-bridge", s.handleEvent)
	if err != nil {
		s.logger.Error("BridgeService", "Failed to start bridge subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("BridgeService", "Bridge listening for external frames", nil)
}

func (s *BridgeService) handleEvent(_ context.Context, event events.Event) error {
	sessionID := strings.TrimPrefix(event.EventType(), frameSubjectPrefix)
	if sessionID == "" || strings.Contains(sessionID, ".") {
		s.logger.Warn("BridgeService", "Ignoring frame with bad subject", map[string]interface{}{"subject": event.EventType()})
		return nil
	}

	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}
	frame, err := orchestration.DecodeFrame(raw)
	if err != nil || frame.Type == "" {
		// Same posture as the client: one bad frame is dropped, not fatal.
		s.logger.Warn("BridgeService", "Dropping malformed external frame", map[string]interface{}{"session_id": sessionID})
		return nil
	}

	s.delivery.Push(sessionID, frame)
	return nil
}
