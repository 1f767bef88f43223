package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"finflow/internal/auth"
	"finflow/internal/cache"
	"finflow/internal/log"
	"finflow/internal/services"
	appweb "finflow/web"
)

const sessionCookie = "finflow_session"

type contextKey string

const userIDKey contextKey = "user_id"

// Options collects the dependencies the server needs.
type Options struct {
	Addr           string
	Finance        *services.FinanceService
	Auth           *auth.Service
	Sessions       *auth.SessionManager
	Logger         *log.Logger
	CurrencyPrefix string
}

type Server struct {
	http.Server
	templates *template.Template
	finance   *services.FinanceService
	authSvc   *auth.Service
	sessions  *auth.SessionManager
	logger    *log.Logger

	loginLimiter *rateLimiter
	dashCache    *cache.LRUCache[dashboardView]
	cacheJanitor *cache.Janitor

	currencyPrefix string
	shutdownOnce   sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr: opts.Addr,
		},
		finance:        opts.Finance,
		authSvc:        opts.Auth,
		sessions:       opts.Sessions,
		logger:         logger,
		loginLimiter:   newRateLimiter(10),
		dashCache:      cache.NewLRUCache[dashboardView](200, 2*time.Minute),
		currencyPrefix: opts.CurrencyPrefix,
	}

	s.cacheJanitor = cache.NewJanitor(s.dashCache)
	s.cacheJanitor.Start(10 * time.Minute)

	// Every request carries a context logger tagged with a request ID;
	// handlers pick it up through log.FromContext.
	s.Server.Handler = log.Middleware(logger)(log.RequestIDMiddleware(requestIDFor)(mux))

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err.Error())
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.handleLogout))

	mux.HandleFunc("/finance/dashboard", s.withSecurityHeaders(s.requireAuth(s.handleDashboard)))
	mux.HandleFunc("/finance/income", s.withSecurityHeaders(s.requireAuth(s.handleIncome)))
	mux.HandleFunc("/finance/income/delete", s.withSecurityHeaders(s.requireAuth(s.handleDeleteIncome)))
	mux.HandleFunc("/finance/expenses", s.withSecurityHeaders(s.requireAuth(s.handleExpenses)))
	mux.HandleFunc("/finance/expenses/delete", s.withSecurityHeaders(s.requireAuth(s.handleDeleteExpense)))
	mux.HandleFunc("/finance/recurring", s.withSecurityHeaders(s.requireAuth(s.handleRecurring)))
	mux.HandleFunc("/finance/recurring/delete", s.withSecurityHeaders(s.requireAuth(s.handleDeleteRecurring)))
	mux.HandleFunc("/finance/budget", s.withSecurityHeaders(s.requireAuth(s.handleBudget)))
	mux.HandleFunc("/finance/reports", s.withSecurityHeaders(s.requireAuth(s.handleReports)))
	mux.HandleFunc("/finance/export", s.withSecurityHeaders(s.requireAuth(s.handleExport)))

	mux.HandleFunc("/api/summary", s.withSecurityHeaders(s.requireAuth(s.handleAPISummary)))

	return s
}

// requestIDFor honors an upstream X-Request-ID, minting one otherwise.
func requestIDFor(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return sanitizeInput(id)
	}
	return generateRequestID()
}

// withSecurityHeaders adds security headers and request logging. Login-path
// rate limiting happens here so the limiter sees the resolved client IP.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)

		httpLog := log.NewHTTPLogger(log.FromContext(ctx))
		httpLog.LogStart(ctx, r, clientIP)

		if s.isAuthAttempt(r) && !s.loginLimiter.allow(clientIP) {
			log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		httpLog.LogEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

func (s *Server) isAuthAttempt(r *http.Request) bool {
	return r.Method == http.MethodPost && (r.URL.Path == "/login" || r.URL.Path == "/register")
}

// requireAuth resolves the session cookie into a user ID. Browsers get a
// redirect to the login page, API clients a 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			s.rejectUnauthenticated(w, r)
			return
		}

		userID, err := s.sessions.Resolve(cookie.Value)
		if err != nil {
			s.rejectUnauthenticated(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		respondJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// currentUser returns the authenticated user ID placed by requireAuth.
func currentUser(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if _, err := s.sessions.Resolve(cookie.Value); err == nil {
			http.Redirect(w, r, "/finance/dashboard", http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// render executes a template, falling back to a 500 when templates failed
// to parse at startup.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(),
			"template", name)
	}
}

// invalidateUserCaches drops cached views after a write.
func (s *Server) invalidateUserCaches(userID int64) {
	s.dashCache.DeletePrefix(cacheKeyPrefix(userID))
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.loginLimiter != nil {
			s.loginLimiter.stop()
		}
		if s.cacheJanitor != nil {
			s.cacheJanitor.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
