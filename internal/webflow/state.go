package webflow

import (
	"sync"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// SessionStore хранит текущую сессию и профиль. Чистый контейнер
// состояния без валидации. Clear дополнительно вызывает dropArtifact,
// чтобы протухший токен нельзя было воспроизвести.
//
// Первая установленная сессия защёлкивает владельца хранилища: события
// авторизации чужой личности сценарий обязан игнорировать, иначе
// конкурентный вход другого пользователя подменил бы сессию этого.
type SessionStore struct {
	mu      sync.RWMutex
	session *models.Session
	profile *models.Profile
	owner   string

	// dropArtifact удаляет локально сохранённый токен (серверный
	// ключ сессии). Может быть nil.
	dropArtifact func(accessToken string)
}

// NewSessionStore создает новый экземпляр SessionStore.
func NewSessionStore(dropArtifact func(accessToken string)) *SessionStore {
	return &SessionStore{dropArtifact: dropArtifact}
}

// SetSession заменяет текущую сессию. Первая непустая сессия
// привязывает владельца; Clear владельца не снимает.
func (s *SessionStore) SetSession(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	if session != nil && s.owner == "" {
		s.owner = session.UserUID
	}
}

// Owner возвращает UID владельца хранилища или пустую строку,
// если личность ещё не установлена.
func (s *SessionStore) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// Session возвращает текущую сессию или nil.
func (s *SessionStore) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SetProfile заменяет текущий профиль.
func (s *SessionStore) SetProfile(profile *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
}

// Profile возвращает текущий профиль или nil.
func (s *SessionStore) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Clear сбрасывает сессию и профиль и удаляет локальный токен.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.profile = nil
	drop := s.dropArtifact
	s.mu.Unlock()

	if drop != nil && session != nil {
		drop(session.AccessToken)
	}
}
