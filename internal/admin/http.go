package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"StudioMemories/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20
	loginLimit   = 5
	loginWindow  = time.Minute
)

// Session is the part of the catalog store the admin endpoints drive.
type Session interface {
	Login(ctx context.Context)
	Logout(ctx context.Context)
	IsAuthenticated() bool
}

type Server struct {
	Log     *zap.Logger
	Session Session
	Creds   *Credentials

	limiter *kit.IPRateLimiter
}

func NewServer(session Session, creds *Credentials, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Log:     log,
		Session: session,
		Creds:   creds,
		limiter: kit.NewIPRateLimiter(loginLimit, loginWindow),
	}
}

// Register mounts the session endpoints on r under /admin.
func (s *Server) Register(r chi.Router) {
	r.With(s.limiter.Middleware).Post("/admin/login", s.handleLogin)
	r.Post("/admin/logout", s.handleLogout)
	r.Get("/admin/session", s.handleSession)
}

// RequireSession rejects requests while no admin is logged in.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Session.IsAuthenticated() {
			kit.WriteError(w, r, http.StatusUnauthorized, "admin login required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResp struct {
	Authenticated bool `json:"authenticated"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !kit.DecodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	if err := s.Creds.Verify(req.Username, req.Password); err != nil {
		s.Log.Info("admin login rejected", zap.String("remote", r.RemoteAddr))
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid username or password", nil)
		return
	}

	s.Session.Login(r.Context())
	s.Log.Info("admin logged in", zap.String("remote", r.RemoteAddr))
	kit.WriteJSON(w, http.StatusOK, sessionResp{Authenticated: true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Session.Logout(r.Context())
	kit.WriteJSON(w, http.StatusOK, sessionResp{Authenticated: false})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, sessionResp{Authenticated: s.Session.IsAuthenticated()})
}
