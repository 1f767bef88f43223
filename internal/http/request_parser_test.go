package http

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParserForm(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("amount=42.50&category=Food&note="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.IsJSON() {
		t.Error("IsJSON() = true for form body")
	}
	if got := p.Get("amount"); got != "42.50" {
		t.Errorf("Get(amount) = %q, want 42.50", got)
	}
	if got := p.Get("category"); got != "Food" {
		t.Errorf("Get(category) = %q, want Food", got)
	}
	if v := p.Value("missing"); v != nil {
		t.Errorf("Value(missing) = %v, want nil", v)
	}
	if v := p.Value("note"); v != "" {
		t.Errorf("Value(note) = %v, want empty string", v)
	}
}

func TestRequestBodyParserJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount": 42.5, "category": "Food"}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !p.IsJSON() {
		t.Error("IsJSON() = false for JSON body")
	}

	// JSON numbers stay numeric so the amount parser sees them losslessly.
	v, ok := p.Value("amount").(float64)
	if !ok {
		t.Fatalf("Value(amount) = %T, want float64", p.Value("amount"))
	}
	if v != 42.5 {
		t.Errorf("Value(amount) = %v, want 42.5", v)
	}
	if got := p.Get("category"); got != "Food" {
		t.Errorf("Get(category) = %q, want Food", got)
	}
}

func TestRequestBodyParserEmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := p.Get("anything"); got != "" {
		t.Errorf("Get on empty body = %q, want empty", got)
	}
}

func TestRequestBodyParserSanitizesControlChars(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("note=hello%00world%09tab"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := p.Get("note"); got != "helloworld\ttab" {
		t.Errorf("Get(note) = %q, want control chars stripped but tab kept", got)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:4321",
			want:       "203.0.113.7",
		},
		{
			name:       "xff honored from trusted proxy",
			remoteAddr: "10.0.0.5:4321",
			xff:        "198.51.100.9, 10.0.0.5",
			want:       "198.51.100.9",
		},
		{
			name:       "xff ignored from untrusted peer",
			remoteAddr: "203.0.113.7:4321",
			xff:        "198.51.100.9",
			want:       "203.0.113.7",
		},
		{
			name:       "real ip honored from trusted proxy",
			remoteAddr: "127.0.0.1:4321",
			realIP:     "198.51.100.9",
			want:       "198.51.100.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestIDFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "upstream-123")
	if got := requestIDFor(req); got != "upstream-123" {
		t.Errorf("requestIDFor() = %q, want upstream header honored", got)
	}

	req.Header.Del("X-Request-ID")
	if got := requestIDFor(req); !strings.HasPrefix(got, "req_") {
		t.Errorf("requestIDFor() = %q, want generated req_ prefix", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("192.0.2.1") {
			t.Fatalf("attempt %d unexpectedly blocked", i+1)
		}
	}
	if rl.allow("192.0.2.1") {
		t.Error("4th attempt should be blocked")
	}
	// A different client has its own counter.
	if !rl.allow("192.0.2.2") {
		t.Error("separate client should not be blocked")
	}
}
