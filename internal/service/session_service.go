package service

import (
	"context"
	"fmt"
	"time"

	"ai-tutoring-sync/internal/dto"
	"ai-tutoring-sync/internal/pkg/logger"
	"ai-tutoring-sync/internal/repository/memory"
	"ai-tutoring-sync/pkg/events"
	pktNats "ai-tutoring-sync/pkg/nats"
	"ai-tutoring-sync/pkg/orchestration"
	"ai-tutoring-sync/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ISessionService interface {
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetSnapshot(ctx context.Context, sessionID string) (*dto.SessionSnapshotResponse, error)
}

type sessionService struct {
	repo      *memory.SessionRepository
	engine    IOrchestrationEngine
	natsPub   *pktNats.Publisher // optional
	logger    logger.ILogger
	jwtSecret string
}

func NewSessionService(
	repo *memory.SessionRepository,
	engine IOrchestrationEngine,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
	jwtSecret string,
) ISessionService {
	return &sessionService{
		repo:      repo,
		engine:    engine,
		natsPub:   natsPub,
		logger:    log,
		jwtSecret: jwtSecret,
	}
}

// CreateSession issues a session id plus the token that authorizes its
// orchestration socket, then kicks off the scripted engine for it.
func (s *sessionService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	session := &store.Session{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Topic:     req.Topic,
		CreatedAt: time.Now(),
	}
	s.repo.Save(session)

	token, err := s.signToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	s.engine.StartSession(session)

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewSessionCreated(session.ID, session.UserID)); err != nil {
			s.logger.Warn("SessionService", "NATS publish failed", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.Info("SessionService", "Session created", map[string]interface{}{
		"session_id": session.ID,
		"user_id":    session.UserID,
	})

	return &dto.CreateSessionResponse{SessionID: session.ID, Token: token}, nil
}

// GetSnapshot returns the last orchestration view the engine pushed, so a
// reconnecting client can resync before the next frame arrives.
func (s *sessionService) GetSnapshot(_ context.Context, sessionID string) (*dto.SessionSnapshotResponse, error) {
	if _, ok := s.repo.Get(sessionID); !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}

	snap, ok := s.repo.GetSnapshot(sessionID)
	if !ok {
		// Session exists but nothing was pushed yet: the initial view.
		return &dto.SessionSnapshotResponse{
			SessionID:    sessionID,
			ActiveAgent:  orchestration.AgentOrchestrator,
			SessionPhase: orchestration.PhaseInitialization,
			HealthScore:  1.0,
			UpdatedAt:    time.Now(),
		}, nil
	}

	return &dto.SessionSnapshotResponse{
		SessionID:    snap.SessionID,
		ActiveAgent:  snap.ActiveAgent,
		SessionPhase: snap.SessionPhase,
		HealthScore:  snap.HealthScore,
		IsChecking:   snap.IsChecking,
		UpdatedAt:    snap.UpdatedAt,
	}, nil
}

func (s *sessionService) signToken(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"exp":        time.Now().Add(24 * time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
