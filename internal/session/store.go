package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/brainmetric/quiz-service/internal/cache"
)

// ErrNoState is returned when no attempt is in progress for the key
var ErrNoState = errors.New("session state not found")

// Key identifies one attempt: a browser session on a test
type Key struct {
	Client string
	TestID uint
}

func (k Key) String() string {
	return fmt.Sprintf("%s:test:%d", k.Client, k.TestID)
}

// Store keeps State records and the active invitation of a client between requests
type Store interface {
	Load(ctx context.Context, key Key) (*State, error)
	Save(ctx context.Context, key Key, state *State) error
	Clear(ctx context.Context, key Key) error

	ActiveInvitation(ctx context.Context, client string) (string, error)
	SetActiveInvitation(ctx context.Context, client string, token string) error
	ClearActiveInvitation(ctx context.Context, client string) error
}

// RedisStore keeps states in redis under the session prefix
type RedisStore struct {
	helper *cache.CacheHelper
}

func NewRedisStore(helper *cache.CacheHelper) *RedisStore {
	return &RedisStore{helper: helper}
}

func (r *RedisStore) Load(ctx context.Context, key Key) (*State, error) {
	var state State
	if err := r.helper.Get(ctx, key.String(), &state); err != nil {
		if errors.Is(err, cache.ErrCacheNotFound) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}
	if state.Answers == nil {
		state.Answers = map[string]uint{}
	}
	return &state, nil
}

func (r *RedisStore) Save(ctx context.Context, key Key, state *State) error {
	if err := r.helper.Set(ctx, key.String(), state, cache.SessionCacheConfig.TTL); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, key Key) error {
	if err := r.helper.Delete(ctx, key.String()); err != nil {
		return fmt.Errorf("failed to clear session state: %w", err)
	}
	return nil
}

func (r *RedisStore) ActiveInvitation(ctx context.Context, client string) (string, error) {
	token, err := r.helper.GetString(ctx, invitationKey(client))
	if err != nil {
		if errors.Is(err, cache.ErrCacheNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load active invitation: %w", err)
	}
	return token, nil
}

func (r *RedisStore) SetActiveInvitation(ctx context.Context, client string, token string) error {
	return r.helper.SetString(ctx, invitationKey(client), token, cache.SessionCacheConfig.TTL)
}

func (r *RedisStore) ClearActiveInvitation(ctx context.Context, client string) error {
	return r.helper.Delete(ctx, invitationKey(client))
}

func invitationKey(client string) string {
	return client + ":invitation"
}

// MemoryStore is an in-process Store for single-instance deployments without redis
type MemoryStore struct {
	mu          sync.Mutex
	states      map[Key]State
	invitations map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:      map[Key]State{},
		invitations: map[string]string{},
	}
}

func (m *MemoryStore) Load(_ context.Context, key Key) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[key]
	if !ok {
		return nil, ErrNoState
	}
	return state.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, key Key, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[key] = *state.clone()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, key)
	return nil
}

func (m *MemoryStore) ActiveInvitation(_ context.Context, client string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.invitations[client], nil
}

func (m *MemoryStore) SetActiveInvitation(_ context.Context, client string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invitations[client] = token
	return nil
}

func (m *MemoryStore) ClearActiveInvitation(_ context.Context, client string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.invitations, client)
	return nil
}

// NewStore picks redis when the helper has a client and memory otherwise
func NewStore(helper *cache.CacheHelper) Store {
	if helper.Available() {
		return NewRedisStore(helper)
	}
	return NewMemoryStore()
}

func (s *State) clone() *State {
	out := &State{
		Order:   append([]uint(nil), s.Order...),
		Index:   s.Index,
		Answers: make(map[string]uint, len(s.Answers)),
		Locked:  append([]int{}, s.Locked...),
	}
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	return out
}
