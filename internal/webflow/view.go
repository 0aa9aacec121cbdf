package webflow

import (
	"net/url"
	"strings"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// View именованное представление приложения.
type View string

// Представления приложения.
const (
	ViewHome           View = "home"
	ViewAuth           View = "auth"
	ViewPricing        View = "pricing"
	ViewDashboard      View = "dashboard"
	ViewMensajes       View = "mensajes"
	ViewLoadingProfile View = "loading-profile"
)

// IsPublic сообщает, доступно ли представление без сессии.
func (v View) IsPublic() bool {
	switch v {
	case ViewHome, ViewAuth, ViewPricing:
		return true
	}
	return false
}

// ViewForPath сопоставляет путь страницы с представлением (deep link).
// Неизвестные пути ведут на главную.
func ViewForPath(path string) View {
	path = strings.TrimSuffix(path, "/")
	switch {
	case path == "" || path == "/":
		return ViewHome
	case path == "/precios":
		return ViewPricing
	case path == "/ingresar":
		return ViewAuth
	case path == "/panel" || strings.HasPrefix(path, "/panel/"):
		return ViewDashboard
	case path == "/mensajes" || strings.HasPrefix(path, "/mensajes/"):
		return ViewMensajes
	}
	return ViewHome
}

func pagePath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "/"
	}
	return u.Path
}

// Resolve выбирает представление по состоянию сессии и профиля.
// Сессия без профиля никогда не трактуется как "разлогинен":
// такой запрос отдаёт промежуточный экран загрузки профиля.
func Resolve(session *models.Session, profile *models.Profile, requested View) View {
	if requested.IsPublic() {
		return requested
	}
	if session == nil {
		return ViewAuth
	}
	if profile == nil {
		return ViewLoadingProfile
	}
	return requested
}
