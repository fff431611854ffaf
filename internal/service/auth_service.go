package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/internal/logger"
	"taskboard/internal/models/user"
	rep "taskboard/internal/repository"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type AuthService struct {
	users  UserRepository
	tokens *auth.Issuer
}

func NewAuthService(users UserRepository, tokens *auth.Issuer) AuthService {
	return AuthService{
		users:  users,
		tokens: tokens,
	}
}

// Register создаёт пользователя с ролью user. Роли из запроса
// игнорируются: самостоятельно зарегистрироваться админом нельзя.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*user.User, error) {
	email = strings.TrimSpace(email)
	if !emailRegexp.MatchString(email) {
		return nil, NewValidationError("email", "неверный формат")
	}
	if name == "" {
		return nil, NewValidationError("name", "не может быть пустым")
	}
	if reason := checkPasswordStrength(password); reason != "" {
		return nil, NewValidationError("password", reason)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("регистрация: %w", err)
	}

	u := &user.User{
		UUID:         uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Roles:        []user.Role{user.RoleUser},
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, rep.ErrEmailTaken) {
			logger.Info("Service: Повторная регистрация", zap.String("email", email))
			return nil, NewEmailTaken(email)
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	logger.Info("Service: Пользователь зарегистрирован", zap.String("user_id", u.UUID.String()))
	return u, nil
}

// Login проверяет пару email/пароль и выпускает токен. Неизвестный
// email и неверный пароль дают одинаковый ответ, чтобы не раскрывать
// существование аккаунта.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return "", NewUnauthorized("неверный email или пароль")
		}
		return "", fmt.Errorf("вход: %w", err)
	}

	if !auth.VerifyPassword(u.PasswordHash, password) {
		logger.Warn("Service: Неверный пароль", zap.String("user_id", u.UUID.String()))
		return "", NewUnauthorized("неверный email или пароль")
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", fmt.Errorf("выпуск токена: %w", err)
	}
	return token, nil
}

// Profile возвращает текущего пользователя по id из токена.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			// валидный токен, но пользователя уже нет
			return nil, NewUnauthorized("пользователь не найден")
		}
		return nil, fmt.Errorf("получение профиля: %w", err)
	}
	return u, nil
}

// правила из формы регистрации: минимум 6 символов, заглавная буква,
// цифра и спецсимвол
func checkPasswordStrength(password string) string {
	if len(password) < 6 {
		return "минимум 6 символов"
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return "нужна хотя бы одна заглавная буква"
	}
	if !hasDigit {
		return "нужна хотя бы одна цифра"
	}
	if !hasSpecial {
		return "нужен хотя бы один спецсимвол"
	}
	return ""
}
