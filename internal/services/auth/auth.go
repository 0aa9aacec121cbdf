// Package services содержит логику бизнес-уровня для регистрации,
// аутентификации и управления сессиями пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/authbus"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/jwt"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/password"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ProfileRepository описывает контракт для работы с профилями в базе данных.
type ProfileRepository interface {
	// RegisterProfile сохраняет новый профиль и возвращает его UID.
	RegisterProfile(ctx context.Context, profile models.Profile) (string, error)

	// GetProfileByEmail возвращает профиль по email или ошибку, если не найден.
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)

	// GetProfile возвращает профиль по UID.
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
}

// SessionCache хранит записи активных сессий.
type SessionCache interface {
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// AuthService отвечает за регистрацию, авторизацию, валидацию JWT
// и публикацию событий аутентификации на внутреннюю шину.
type AuthService struct {
	profiles ProfileRepository
	jwtMaker jwt.Maker
	sessions SessionCache
	bus      *authbus.Bus
	tokenTTL time.Duration
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(profiles ProfileRepository, jwtMaker jwt.Maker, sessions SessionCache,
	bus *authbus.Bus, tokenTTL time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		profiles: profiles,
		jwtMaker: jwtMaker,
		sessions: sessions,
		bus:      bus,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// Register создает новый профиль с хэшированием пароля и бесплатным планом.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", err
	}
	profile := models.Profile{
		Email:        req.Email,
		Nombre:       req.Nombre,
		PasswordHash: hashed,
		PlanID:       models.FreePlanID,
	}
	return s.profiles.RegisterProfile(ctx, profile)
}

// Login проверяет пароль пользователя, выпускает JWT и публикует
// событие signed_in.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.Session, error) {
	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(profile.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(profile.UID, profile.Email, profile.IsAdmin)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		AccessToken: token,
		UserUID:     profile.UID,
		Email:       profile.Email,
		IsAdmin:     profile.IsAdmin,
		ExpiresAt:   time.Now().Add(s.tokenTTL),
	}
	if err := s.sessions.Set(sessionKey(token), session, s.tokenTTL); err != nil {
		s.log.Warn("failed to store session record", slog.Any("err", err))
	}

	s.bus.Publish(authbus.Event{
		Type:        authbus.EventSignedIn,
		UserUID:     profile.UID,
		Email:       profile.Email,
		AccessToken: token,
	})
	return session, nil
}

// Logout инвалидирует запись сессии и публикует событие signed_out.
// Событие несёт UID владельца токена, чтобы подписчики могли отличить
// чужой выход от своего.
func (s *AuthService) Logout(_ context.Context, token string) error {
	if err := s.sessions.Invalidate(sessionKey(token)); err != nil {
		s.log.Warn("failed to invalidate session record", slog.Any("err", err))
	}
	event := authbus.Event{Type: authbus.EventSignedOut}
	if claims, err := s.jwtMaker.ParseToken(token); err == nil {
		event.UserUID = claims.UserUID
		event.Email = claims.Email
	}
	s.bus.Publish(event)
	return nil
}

// Refresh выпускает новый токен по действующему, не меняя личность
// пользователя, и публикует событие token_refreshed.
func (s *AuthService) Refresh(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, claims.UserUID)
	if err != nil {
		return nil, err
	}

	newToken, err := s.jwtMaker.GenerateToken(profile.UID, profile.Email, profile.IsAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Invalidate(sessionKey(token)); err != nil {
		s.log.Warn("failed to invalidate old session record", slog.Any("err", err))
	}

	session := &models.Session{
		AccessToken: newToken,
		UserUID:     profile.UID,
		Email:       profile.Email,
		IsAdmin:     profile.IsAdmin,
		ExpiresAt:   time.Now().Add(s.tokenTTL),
	}
	if err := s.sessions.Set(sessionKey(newToken), session, s.tokenTTL); err != nil {
		s.log.Warn("failed to store session record", slog.Any("err", err))
	}

	s.bus.Publish(authbus.Event{
		Type:        authbus.EventTokenRefreshed,
		UserUID:     profile.UID,
		Email:       profile.Email,
		AccessToken: newToken,
	})
	return session, nil
}

// ValidateToken проверяет JWT и возвращает сессию без обращения к базе.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.Session, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, false, err
	}
	session := &models.Session{
		AccessToken: token,
		UserUID:     claims.UserUID,
		Email:       claims.Email,
		IsAdmin:     claims.IsAdmin,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, true, nil
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}
