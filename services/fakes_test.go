package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/Dosada05/tennis-tournament/brackets"
	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
	"github.com/Dosada05/tennis-tournament/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

// memStore keeps committed matches. A transaction works on copies and publishes
// them only on commit, so a failed fn leaves the store untouched.
type memStore struct {
	mu      sync.Mutex
	matches map[int]models.Match
}

func newMemStore(matches ...models.Match) *memStore {
	s := &memStore{matches: make(map[int]models.Match)}
	for _, m := range matches {
		s.matches[m.ID] = m
	}
	return s
}

func (s *memStore) get(id int) (models.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	return m, ok
}

// memTx is handed to repositories as the executor. The embedded interface is
// never called by the fakes.
type memTx struct {
	repositories.SQLExecutor
	staged map[int]models.Match
}

type fakeTransactor struct {
	store   *memStore
	commits int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	tx := &memTx{staged: make(map[int]models.Match, len(f.store.matches))}
	for id, m := range f.store.matches {
		tx.staged[id] = m
	}
	if err := fn(tx); err != nil {
		return err
	}
	f.store.matches = tx.staged
	f.commits++
	return nil
}

type fakeMatchRepo struct {
	store *memStore

	saveSnapshotErr error
}

var errNoTx = errors.New("fake: transaction required")

func (r *fakeMatchRepo) GetWithRules(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	if tx, ok := exec.(*memTx); ok {
		return lookup(tx.staged, id)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return lookup(r.store.matches, id)
}

func (r *fakeMatchRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	tx, ok := exec.(*memTx)
	if !ok {
		return nil, errNoTx
	}
	return lookup(tx.staged, id)
}

func lookup(matches map[int]models.Match, id int) (*models.Match, error) {
	m, ok := matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r *fakeMatchRepo) update(exec repositories.SQLExecutor, id int, fn func(*models.Match)) error {
	tx, ok := exec.(*memTx)
	if !ok {
		return errNoTx
	}
	m, ok := tx.staged[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	fn(&m)
	tx.staged[id] = m
	return nil
}

func (r *fakeMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus) error {
	return r.update(exec, id, func(m *models.Match) { m.Status = status })
}

func (r *fakeMatchRepo) SaveResult(ctx context.Context, exec repositories.SQLExecutor, id int, result models.MatchResult) error {
	return r.update(exec, id, func(m *models.Match) {
		m.WinnerEntityID = intPtr(result.WinnerEntityID)
		score := result.Score
		m.Score = &score
	})
}

func (r *fakeMatchRepo) SaveSnapshot(ctx context.Context, exec repositories.SQLExecutor, id int, snapshot models.RuleSnapshot) error {
	if r.saveSnapshotErr != nil {
		return r.saveSnapshotErr
	}
	return r.update(exec, id, func(m *models.Match) {
		s := snapshot
		at := snapshot.CapturedAt
		m.RuleSnapshot = &s
		m.CompletedAt = &at
	})
}

func (r *fakeMatchRepo) SetOverrides(ctx context.Context, exec repositories.SQLExecutor, id int, overrides models.Rules) error {
	return r.update(exec, id, func(m *models.Match) { m.RuleOverrides = overrides })
}

type fakeOverrideRepo struct {
	setFn func(level models.RuleLevel, id int, overrides models.Rules) error
}

func (r *fakeOverrideRepo) SetOverrides(ctx context.Context, exec repositories.SQLExecutor, level models.RuleLevel, id int, overrides models.Rules) error {
	if r.setFn == nil {
		return nil
	}
	return r.setFn(level, id, overrides)
}

type appliedResult struct {
	CategoryID int
	EntityType models.EntityType
	WinnerID   int
	LoserID    int
}

type fakeRankingService struct {
	mu      sync.Mutex
	applied []appliedResult
	changed []int

	applyErr     error
	seedingFn    func(entrants []models.Entrant) ([]models.Entrant, error)
	leaderboards map[int][]models.LeaderboardRow
}

func (f *fakeRankingService) RecalculateCategory(ctx context.Context, categoryID int) ([]models.RankingEntry, error) {
	return nil, nil
}

func (f *fakeRankingService) ApplyMatchResult(ctx context.Context, exec repositories.SQLExecutor, categoryID int, entityType models.EntityType, winnerID, loserID int) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, appliedResult{categoryID, entityType, winnerID, loserID})
	return nil
}

func (f *fakeRankingService) CategoryChanged(ctx context.Context, categoryID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, categoryID)
}

func (f *fakeRankingService) Leaderboard(ctx context.Context, categoryID int) ([]models.LeaderboardRow, error) {
	return f.leaderboards[categoryID], nil
}

func (f *fakeRankingService) SeedingScores(ctx context.Context, categoryID int, entrants []models.Entrant) ([]models.Entrant, error) {
	if f.seedingFn != nil {
		return f.seedingFn(entrants)
	}
	return entrants, nil
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []brackets.WebSocketMessage
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := message.(brackets.WebSocketMessage); ok {
		f.messages = append(f.messages, msg)
	}
}

func (f *fakeBroadcaster) sent() []brackets.WebSocketMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]brackets.WebSocketMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = body
	return &storage.UploadResult{Key: key, Location: f.GetPublicURL(key)}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.test/" + key
}
