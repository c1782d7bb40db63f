package http

import (
	"net/http"
	"sync/atomic"

	"finzen/internal/auth"
	"finzen/internal/log"
)

func (s *Server) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	mode := "signin"
	if r.URL.Query().Get("mode") == "signup" {
		mode = "signup"
	}
	s.render(w, r, http.StatusOK, "auth", authData{Mode: mode})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.authFailed(w, r, authData{Mode: "signin"}, http.StatusBadRequest, "Formato de solicitud no válido")
		return
	}

	email := p.Get("email")
	sess, err := s.auth.SignIn(r.Context(), email, p.GetRaw("password"))
	if err != nil {
		s.authError(w, r, authData{Mode: "signin", Email: email}, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.signIns, 1)
	s.startSession(w, r, sess)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.authFailed(w, r, authData{Mode: "signup"}, http.StatusBadRequest, "Formato de solicitud no válido")
		return
	}

	in := auth.SignUpInput{
		Email:    p.Get("email"),
		Password: p.GetRaw("password"),
		FullName: p.Get("full_name"),
	}
	sess, err := s.auth.SignUp(r.Context(), in)
	if err != nil {
		s.authError(w, r, authData{Mode: "signup", Email: in.Email, Name: in.FullName}, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.signUps, 1)
	s.startSession(w, r, sess)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w, s.secure)
	if user, ok := auth.UserFromContext(r.Context()); ok {
		s.dashboard.Invalidate(user.ID)
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
			InfoContext(r.Context(), "User signed out", log.FieldUserID, user.ID)
	}

	switch {
	case wantsJSON(r):
		w.WriteHeader(http.StatusNoContent)
	case isHTMX(r):
		NewHTMXResponse().Redirect("/auth").Write(w)
	default:
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	auth.SetCookie(w, sess, s.secure)
	switch {
	case wantsJSON(r):
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	case isHTMX(r):
		NewHTMXResponse().Redirect("/").Write(w)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) authError(w http.ResponseWriter, r *http.Request, data authData, err error) {
	status := statusFor(err)
	msg := userMessage(err, "Ocurrió un error")
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).ErrorContext(r.Context(), "Authentication failed",
			log.NewFields().WithOperation(data.Mode).WithError(err).ToSlice()...)
	}
	s.authFailed(w, r, data, status, msg)
}

// authFailed re-renders the form with the message; htmx callers get the
// error fragment only.
func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, data authData, status int, msg string) {
	atomic.AddInt64(&s.appMetrics.authFailures, 1)
	switch {
	case wantsJSON(r):
		writeJSONError(w, status, msg)
	case isHTMX(r):
		ErrorResponse(status, msg).Write(w)
	default:
		data.Error = msg
		s.render(w, r, status, "auth", data)
	}
}
