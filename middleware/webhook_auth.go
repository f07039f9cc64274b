package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/sirupsen/logrus"
)

// WebhookAuth rejects webhook deliveries whose secret token header does not
// match the one registered with setWebhook. An empty secret disables the
// check (local development without a public URL).
func WebhookAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
				if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
					logrus.Warnf("webhook: rejected delivery from %s: bad secret token", r.RemoteAddr)
					http.Error(w, "Forbidden", http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
