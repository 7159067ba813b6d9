package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"aniwatch/internal/models"
	"aniwatch/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAnimeRepo struct {
	items  map[int]*models.Anime
	nextID int
}

func newMockAnimeRepo() *mockAnimeRepo {
	return &mockAnimeRepo{items: make(map[int]*models.Anime)}
}

func (m *mockAnimeRepo) Create(_ context.Context, a *models.Anime) error {
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockAnimeRepo) ListByOwner(_ context.Context, userID int) ([]*models.Anime, error) {
	var out []*models.Anime
	for _, a := range m.items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockAnimeRepo) GetByID(_ context.Context, userID, id int) (*models.Anime, error) {
	a, ok := m.items[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAnimeRepo) UpdateFields(_ context.Context, userID, id int, input *models.UpdateAnimeRequest) error {
	a, ok := m.items[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	if input.Title != nil {
		a.Title = *input.Title
	}
	if input.Rating != nil {
		a.Rating = *input.Rating
	}
	if input.Episodes != nil {
		a.Episodes = input.Episodes
	}
	if input.Genre != nil {
		a.Genre = input.Genre
	}
	if input.ImagePath != nil {
		a.ImagePath = input.ImagePath
	}
	return nil
}

func (m *mockAnimeRepo) Delete(_ context.Context, userID, id int) error {
	a, ok := m.items[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// fakeRemover считает вызовы чистки обложек.
type fakeRemover struct {
	removed []string
}

func (f *fakeRemover) Remove(filename string) error {
	f.removed = append(f.removed, filename)
	return nil
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func TestAddAnime_RatingBoundaries(t *testing.T) {
	svc := NewAnimeService(newMockAnimeRepo(), &fakeRemover{})
	ctx := context.Background()

	// Границы включительно: 1 и 10 проходят, 0 и 11 — нет
	_, err := svc.AddAnime(ctx, 1, &models.Anime{Title: "a", Rating: 0})
	assert.ErrorIs(t, err, ErrRatingOutOfRange)
	_, err = svc.AddAnime(ctx, 1, &models.Anime{Title: "b", Rating: 11})
	assert.ErrorIs(t, err, ErrRatingOutOfRange)

	_, err = svc.AddAnime(ctx, 1, &models.Anime{Title: "c", Rating: 1})
	assert.NoError(t, err)
	_, err = svc.AddAnime(ctx, 1, &models.Anime{Title: "d", Rating: 10})
	assert.NoError(t, err)
}

func TestAddAnime_Validation(t *testing.T) {
	svc := NewAnimeService(newMockAnimeRepo(), &fakeRemover{})
	ctx := context.Background()

	_, err := svc.AddAnime(ctx, 1, &models.Anime{Title: "   ", Rating: 5})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.AddAnime(ctx, 1, &models.Anime{Title: "ok", Rating: 5, Episodes: intptr(-1)})
	assert.ErrorIs(t, err, ErrEpisodesNegative)

	a, err := svc.AddAnime(ctx, 1, &models.Anime{Title: "  Steins;Gate  ", Rating: 10, Episodes: intptr(24)})
	require.NoError(t, err)
	assert.Equal(t, "Steins;Gate", a.Title)
}

func TestGetAnime_OwnershipScoping(t *testing.T) {
	repo := newMockAnimeRepo()
	svc := NewAnimeService(repo, &fakeRemover{})
	ctx := context.Background()

	const alice, bob = 1, 2
	a, err := svc.AddAnime(ctx, alice, &models.Anime{Title: "Monster", Rating: 9})
	require.NoError(t, err)

	// Чужая запись по угаданному id неотличима от несуществующей
	_, err = svc.GetAnime(ctx, bob, a.ID)
	assert.ErrorIs(t, err, ErrAnimeNotFound)
	_, err = svc.GetAnime(ctx, bob, 9999)
	assert.ErrorIs(t, err, ErrAnimeNotFound)

	// Обновление и удаление тоже закрыты
	_, err = svc.UpdateAnime(ctx, bob, a.ID, &models.UpdateAnimeRequest{Rating: intptr(1)})
	assert.ErrorIs(t, err, ErrAnimeNotFound)
	assert.ErrorIs(t, svc.DeleteAnime(ctx, bob, a.ID), ErrAnimeNotFound)

	got, err := svc.GetAnime(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Rating)
}

func TestUpdateAnime_ReplacesImage(t *testing.T) {
	repo := newMockAnimeRepo()
	remover := &fakeRemover{}
	svc := NewAnimeService(repo, remover)
	ctx := context.Background()

	a, err := svc.AddAnime(ctx, 1, &models.Anime{Title: "Bleach", Rating: 7, ImagePath: strptr("old.png")})
	require.NoError(t, err)

	updated, err := svc.UpdateAnime(ctx, 1, a.ID, &models.UpdateAnimeRequest{ImagePath: strptr("new.png")})
	require.NoError(t, err)
	require.NotNil(t, updated.ImagePath)
	assert.Equal(t, "new.png", *updated.ImagePath)

	// Старая обложка подчищена, ровно один файл
	assert.Equal(t, []string{"old.png"}, remover.removed)
}

func TestDeleteAnime_ReleasesAsset(t *testing.T) {
	repo := newMockAnimeRepo()
	remover := &fakeRemover{}
	svc := NewAnimeService(repo, remover)
	ctx := context.Background()

	withImage, err := svc.AddAnime(ctx, 1, &models.Anime{Title: "FMA", Rating: 10, ImagePath: strptr("cover.jpg")})
	require.NoError(t, err)
	noImage, err := svc.AddAnime(ctx, 1, &models.Anime{Title: "Lain", Rating: 8})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAnime(ctx, 1, withImage.ID))
	assert.Equal(t, []string{"cover.jpg"}, remover.removed)

	// Без обложки файловых операций нет
	require.NoError(t, svc.DeleteAnime(ctx, 1, noImage.ID))
	assert.Len(t, remover.removed, 1)

	_, err = svc.GetAnime(ctx, 1, withImage.ID)
	assert.ErrorIs(t, err, ErrAnimeNotFound)
}

func TestScenario_TwoUsers(t *testing.T) {
	userRepo := newMockUserRepo()
	authSvc := NewAuthService(userRepo)
	animeSvc := NewAnimeService(newMockAnimeRepo(), &fakeRemover{})
	ctx := context.Background()

	alice := &models.User{Username: "alice"}
	require.NoError(t, authSvc.RegisterUser(ctx, alice, "Password1"))
	loggedIn, err := authSvc.LoginUser(ctx, "alice", "Password1")
	require.NoError(t, err)

	_, err = animeSvc.AddAnime(ctx, loggedIn.ID, &models.Anime{Title: "Bocchi the Rock", Rating: 9})
	require.NoError(t, err)

	list, err := animeSvc.ListAnime(ctx, loggedIn.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bocchi the Rock", list[0].Title)

	bob := &models.User{Username: "bob"}
	require.NoError(t, authSvc.RegisterUser(ctx, bob, "Password2"))
	bobList, err := animeSvc.ListAnime(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobList)
}
