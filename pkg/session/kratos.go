package session

import (
	"context"
	"time"

	"github.com/goliatone/go-authui/pkg/kratos"
)

// FromKratos records the outcome of a whoami call and reports whether the
// session is active. Sessions without an expiry get DefaultLifetime.
func FromKratos(ctx context.Context, rec Recorder, sess *kratos.Session, now time.Time) bool {
	if sess == nil || !sess.ActiveAt(now) {
		rec.RecordInactive(ctx)
		return false
	}
	expiresAt := now.Add(DefaultLifetime)
	if sess.ExpiresAt != nil {
		expiresAt = *sess.ExpiresAt
	}
	rec.RecordActive(ctx, expiresAt)
	return true
}
