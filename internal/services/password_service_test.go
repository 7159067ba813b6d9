package services

import (
	"context"
	"testing"
	"time"

	"aniwatch/internal/models"
	"aniwatch/internal/repository"
	"aniwatch/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResetRepo struct {
	usersByEmail map[string]string // email -> password_hash
	tokens       map[string]*models.PasswordResetToken
	nextID       int64
}

func newMockResetRepo() *mockResetRepo {
	return &mockResetRepo{
		usersByEmail: make(map[string]string),
		tokens:       make(map[string]*models.PasswordResetToken),
	}
}

func (m *mockResetRepo) Create(_ context.Context, email, tokenHash string, expiresAt time.Time) error {
	m.nextID++
	m.tokens[tokenHash] = &models.PasswordResetToken{
		ID:        m.nextID,
		TokenHash: tokenHash,
		Email:     email,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *mockResetRepo) GetValidByHash(_ context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	t, ok := m.tokens[tokenHash]
	if !ok || t.UsedAt != nil || !t.ExpiresAt.After(time.Now()) {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (m *mockResetRepo) ConsumeAndUpdatePassword(_ context.Context, tokenHash, passwordHash string) error {
	t, ok := m.tokens[tokenHash]
	if !ok || t.UsedAt != nil || !t.ExpiresAt.After(time.Now()) {
		return repository.ErrNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	m.usersByEmail[t.Email] = passwordHash
	return nil
}

func (m *mockResetRepo) FindUserIDByEmail(_ context.Context, email string) (int, error) {
	if _, ok := m.usersByEmail[email]; !ok {
		return 0, repository.ErrNotFound
	}
	return 1, nil
}

// captureSink запоминает выданные ссылки вместо их доставки.
type captureSink struct {
	links []string
}

func (c *captureSink) DeliverResetLink(_ context.Context, _ string, link string) error {
	c.links = append(c.links, link)
	return nil
}

// tokenFromLink вырезает сам токен из ссылки вида .../api/reset-password/<token>
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	i := len(link) - 1
	for i >= 0 && link[i] != '/' {
		i--
	}
	require.Greater(t, len(link)-i, 20, "токен подозрительно короткий")
	return link[i+1:]
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	repo := newMockResetRepo()
	sink := &captureSink{}
	svc := NewPasswordService(repo, sink, "http://localhost", time.Hour)

	// Несуществующий email: та же самая успешность, но ни токена, ни ссылки
	require.NoError(t, svc.RequestReset(context.Background(), "nobody@example.com"))
	assert.Empty(t, repo.tokens)
	assert.Empty(t, sink.links)
}

func TestResetToken_Lifecycle(t *testing.T) {
	repo := newMockResetRepo()
	repo.usersByEmail["alice@example.com"] = "old-hash"
	sink := &captureSink{}
	svc := NewPasswordService(repo, sink, "http://localhost", time.Hour)

	require.NoError(t, svc.RequestReset(context.Background(), "Alice@Example.com"))
	require.Len(t, sink.links, 1)
	token := tokenFromLink(t, sink.links[0])

	// Сразу после выдачи токен валиден
	email, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	// Расходование меняет пароль
	require.NoError(t, svc.ConsumeToken(context.Background(), token, "NewPassword9"))
	newHash := repo.usersByEmail["alice@example.com"]
	require.NotEqual(t, "old-hash", newHash)
	assert.True(t, utils.CheckPasswordHash("NewPassword9", newHash))

	// Повторное расходование — отказ, пароль не трогается
	err = svc.ConsumeToken(context.Background(), token, "AnotherPass7")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
	assert.Equal(t, newHash, repo.usersByEmail["alice@example.com"])

	// И валидация погашенного токена тоже падает
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetToken_Expiry(t *testing.T) {
	repo := newMockResetRepo()
	repo.usersByEmail["bob@example.com"] = "old-hash"
	sink := &captureSink{}
	svc := NewPasswordService(repo, sink, "http://localhost", time.Hour)

	require.NoError(t, svc.RequestReset(context.Background(), "bob@example.com"))
	token := tokenFromLink(t, sink.links[0])

	// За мгновение до истечения — валиден
	for _, rec := range repo.tokens {
		rec.ExpiresAt = time.Now().Add(time.Second)
	}
	_, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	// После истечения — нет, даже если никто его не расходовал
	for _, rec := range repo.tokens {
		rec.ExpiresAt = time.Now().Add(-time.Second)
	}
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	err = svc.ConsumeToken(context.Background(), token, "NewPassword9")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
	assert.Equal(t, "old-hash", repo.usersByEmail["bob@example.com"])
}

func TestResetToken_MultipleOutstanding(t *testing.T) {
	repo := newMockResetRepo()
	repo.usersByEmail["carol@example.com"] = "old-hash"
	sink := &captureSink{}
	svc := NewPasswordService(repo, sink, "http://localhost", time.Hour)

	// Повторный запрос не гасит первый токен: оба живы и одноразовы
	require.NoError(t, svc.RequestReset(context.Background(), "carol@example.com"))
	require.NoError(t, svc.RequestReset(context.Background(), "carol@example.com"))
	require.Len(t, sink.links, 2)

	first := tokenFromLink(t, sink.links[0])
	second := tokenFromLink(t, sink.links[1])
	require.NotEqual(t, first, second)

	require.NoError(t, svc.ConsumeToken(context.Background(), first, "NewPassword9"))
	_, err := svc.ValidateToken(context.Background(), second)
	assert.NoError(t, err)
}

func TestConsumeToken_ShortPassword(t *testing.T) {
	repo := newMockResetRepo()
	svc := NewPasswordService(repo, &captureSink{}, "http://localhost", time.Hour)

	err := svc.ConsumeToken(context.Background(), "whatever", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
