package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"aniwatch/internal/models"
	"aniwatch/internal/repository"
	"aniwatch/internal/utils"
)

// Мок-репозиторий (заглушка)
type mockUserRepo struct {
	users    map[string]*models.User
	lastUser *models.User
	nextID   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *models.User) error {
	key := strings.ToLower(user.Username)
	if _, exists := m.users[key]; exists {
		return repository.ErrUsernameTaken
	}
	if user.Email != nil {
		for _, u := range m.users {
			if u.Email != nil && *u.Email == *user.Email {
				return repository.ErrEmailTaken
			}
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[key] = user
	m.lastUser = user
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.users[strings.ToLower(username)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email != nil && *u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func TestRegisterUser(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)

	email := "test@example.com"
	user := &models.User{
		Username: "testuser",
		Email:    &email,
	}

	err := service.RegisterUser(context.Background(), user, "secret123")
	if err != nil {
		t.Fatalf("ошибка регистрации: %v", err)
	}

	if repo.lastUser == nil || repo.lastUser.PasswordHash == "" {
		t.Fatal("пароль не захеширован или пользователь не сохранён")
	}
	if repo.lastUser.PasswordHash == "secret123" {
		t.Fatal("пароль сохранён открытым текстом")
	}
}

func TestRegisterUser_DuplicateUsername(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)

	first := &models.User{Username: "alice"}
	if err := service.RegisterUser(context.Background(), first, "Password1"); err != nil {
		t.Fatalf("первая регистрация не прошла: %v", err)
	}
	firstHash := repo.lastUser.PasswordHash

	second := &models.User{Username: "alice"}
	err := service.RegisterUser(context.Background(), second, "OtherPass9")
	if !errors.Is(err, repository.ErrUsernameTaken) {
		t.Fatalf("ожидалась ErrUsernameTaken, получено: %v", err)
	}

	// существующая строка не должна меняться
	existing, _ := repo.GetByUsername(context.Background(), "alice")
	if existing.PasswordHash != firstHash {
		t.Fatal("повторная регистрация изменила существующего пользователя")
	}
}

func TestRegisterUser_Validation(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)

	if err := service.RegisterUser(context.Background(), &models.User{Username: "   "}, "secret123"); !errors.Is(err, ErrUsernameRequired) {
		t.Fatalf("ожидалась ErrUsernameRequired, получено: %v", err)
	}
	if err := service.RegisterUser(context.Background(), &models.User{Username: "bob"}, "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("ожидалась ErrPasswordTooShort, получено: %v", err)
	}
}

func TestLoginUser_Success(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)

	// создаём пользователя вручную
	hashed, _ := utils.HashPassword("secret123")
	repo.users["testuser"] = &models.User{
		ID:           1,
		Username:     "testuser",
		PasswordHash: hashed,
	}

	user, err := service.LoginUser(context.Background(), "testuser", "secret123")
	if err != nil {
		t.Fatalf("ошибка логина: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("вернулся не тот пользователь: %d", user.ID)
	}
}

func TestLoginUser_Fail(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)

	hashed, _ := utils.HashPassword("secret123")
	repo.users["testuser"] = &models.User{ID: 1, Username: "testuser", PasswordHash: hashed}

	// Неизвестный пользователь и неверный пароль дают одну и ту же ошибку
	if _, err := service.LoginUser(context.Background(), "unknown", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("ожидалась ErrInvalidCredentials, получено: %v", err)
	}
	if _, err := service.LoginUser(context.Background(), "testuser", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("ожидалась ErrInvalidCredentials, получено: %v", err)
	}
}
