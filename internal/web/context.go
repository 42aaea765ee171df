package web

import (
	"context"
	"net/http"

	"github.com/Varen-6/tabular-viewer-test-task/internal/session"
)

// sessionCookie identifies the caller's session across requests.
const sessionCookie = "tv_session"

type contextKey int

const sessionContextKey contextKey = iota

func withSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// sessionFrom returns the request's session. The session middleware
// guarantees one on every /api route.
func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionContextKey).(*session.Session)
	return s
}

// withSessionCookie resolves the caller's session from the tv_session
// cookie, creating a session (and setting the cookie) on first contact
// or when the presented id is unknown or malformed.
func (s *Server) withSessionCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}

		sess, isNew := s.sessions.GetOrCreate(id)
		if isNew {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

// clearSessionCookie expires the cookie after session teardown.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
