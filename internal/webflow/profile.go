package webflow

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
)

// loadProfile загружает профиль в хранилище под защёлкой координатора.
// Отказ загрузки логируется и оставляет профиль отсутствующим; второй
// конкурентный вызов для той же загрузки просто не получает защёлку.
func loadProfile(ctx context.Context, gateway Gateway, store *SessionStore,
	coord *Coordinator, log *slog.Logger, userUID string) {
	const op = "webflow.loadProfile"

	if !coord.TryClaimProfileLoad() {
		return
	}
	defer coord.ReleaseProfileLoad()

	profile, err := gateway.GetProfile(ctx, userUID)
	if err != nil {
		log.Error("failed to load profile", slog.String("op", op), sl.UID(userUID), sl.Err(err))
		return
	}
	store.SetProfile(profile)
}
