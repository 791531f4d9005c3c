package gateway

import (
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
)

// TOTPHeader carries the one-time code on REST calls. Browsers cannot set
// headers on WebSocket upgrades, so the "code" query parameter is accepted
// as well.
const TOTPHeader = "X-TOTP-Code"

// RequireTOTP rejects requests without a valid TOTP code for secret.
// An empty secret disables the gate.
func RequireTOTP(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			code := strings.TrimSpace(r.Header.Get(TOTPHeader))
			if code == "" {
				code = r.URL.Query().Get("code")
			}
			if code == "" || !totp.Validate(code, secret) {
				writeError(w, http.StatusUnauthorized, "invalid or missing TOTP code")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
