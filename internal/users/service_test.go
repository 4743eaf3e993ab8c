package users

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/vocanote/internal/apperr"
	"github.com/starford/vocanote/internal/models"
)

type memRepo struct {
	mu     sync.Mutex
	byName map[string]*models.User
	nextID int64
	err    error
}

func newMemRepo() *memRepo {
	return &memRepo{byName: map[string]*models.User{}}
}

func (m *memRepo) CreateUser(_ context.Context, username, hash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; ok {
		return nil, apperr.New(apperr.ErrConflict, "username already exists")
	}
	m.nextID++
	u := &models.User{ID: m.nextID, Username: username, PasswordHash: hash}
	m.byName[username] = u
	return u, nil
}

func (m *memRepo) UserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byName[username]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

func (m *memRepo) UserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, bcrypt.MinCost), repo
}

func TestRegisterThenAuthenticate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "  alice ", "pw123"))

	stored := repo.byName["alice"]
	require.NotNil(t, stored, "username must be stored trimmed")
	assert.NotEqual(t, "pw123", stored.PasswordHash)

	u, err := svc.Authenticate(ctx, "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, u.ID)
	assert.Equal(t, "alice", u.Username)
}

func TestRegister_Conflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "bob", "pw"))
	err := svc.Register(ctx, " bob", "other")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct{ user, pass string }{
		{"", "pw"},
		{"   ", "pw"},
		{"carol", ""},
		{"carol", "   "},
	}
	for _, tc := range cases {
		err := svc.Register(ctx, tc.user, tc.pass)
		assert.ErrorIs(t, err, apperr.ErrValidation, "register(%q, %q)", tc.user, tc.pass)
	}
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "dave", "right"))

	_, err := svc.Authenticate(ctx, "dave", "wrong")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "right")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestAuthenticate_RepoFailure(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("db down")

	_, err := svc.Authenticate(context.Background(), "x", "y")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestGet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "erin", "pw"))

	u, err := svc.ByUsername(ctx, "erin ")
	require.NoError(t, err)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "erin", got.Username)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
