package log

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewarePutsLoggerInContext(t *testing.T) {
	logger := New(Config{Component: ComponentHTTP})

	var got *Logger
	handler := Middleware(logger)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != logger {
		t.Error("FromContext did not return the injected logger")
	}
}

func TestFromContextFallsBack(t *testing.T) {
	logger := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	if logger == nil || logger.Logger == nil {
		t.Fatal("FromContext must always return a usable logger")
	}
	if logger.Component() != "unknown" {
		t.Errorf("fallback component = %q, want unknown", logger.Component())
	}
}

func TestRequestIDMiddlewareTagsLogger(t *testing.T) {
	logger := New(Config{Component: ComponentHTTP})

	var inner, tagged *Logger
	chain := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string {
		return "req_test"
	})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		tagged = FromContext(r.Context())
	})))

	inner = logger
	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if tagged == nil {
		t.Fatal("handler did not run")
	}
	// The request-scoped logger is a child of the injected one, carrying
	// the request ID attribute.
	if tagged == inner {
		t.Error("request logger should be derived, not the shared instance")
	}
	if tagged.Component() != inner.Component() {
		t.Errorf("component = %q, want %q", tagged.Component(), inner.Component())
	}
}
