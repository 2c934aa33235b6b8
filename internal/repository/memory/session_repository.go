package memory

import (
	"time"

	"ai-tutoring-sync/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps issued sessions and their latest orchestration
// snapshots in memory with a TTL, so abandoned sessions age out on their own.
type SessionRepository struct {
	sessions  *cache.Cache
	snapshots *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		sessions:  cache.New(ttl, 10*time.Minute),
		snapshots: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.sessions.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.sessions.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.sessions.Delete(sessionID)
	r.snapshots.Delete(sessionID)
}

func (r *SessionRepository) SaveSnapshot(snapshot *store.Snapshot) {
	r.snapshots.Set(snapshot.SessionID, snapshot, cache.DefaultExpiration)
}

func (r *SessionRepository) GetSnapshot(sessionID string) (*store.Snapshot, bool) {
	if x, found := r.snapshots.Get(sessionID); found {
		return x.(*store.Snapshot), true
	}
	return nil, false
}
