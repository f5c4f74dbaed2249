package security

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finplan/internal/log"
)

func quietDetector() *Detector {
	return NewDetector(log.New(log.Config{Output: &bytes.Buffer{}}))
}

func TestDetectSuspiciousRequest(t *testing.T) {
	cases := []struct {
		name       string
		method     string
		target     string
		userAgent  string
		forwarded  string
		suspicious bool
	}{
		{"projection", http.MethodPost, "/api/projection?export=true", "curl/8.5.0", "", false},
		{"health check", http.MethodGet, "/healthz", "kube-probe/1.29", "", false},
		{"path traversal", http.MethodGet, "/api/../../etc/passwd", "", "", true},
		{"dotenv", http.MethodGet, "/.env", "", "", true},
		{"traversal in query", http.MethodGet, "/api/projection?file=../secret", "", "", true},
		{"scanner", http.MethodGet, "/", "sqlmap/1.7", "", true},
		{"trace method", "TRACE", "/", "", "", true},
		{"long url", http.MethodGet, "/?q=" + strings.Repeat("a", maxURLLength), "", "", true},
		{"many hops", http.MethodGet, "/", "", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7", true},
	}
	d := quietDetector()
	want := int64(0)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(tc.method, tc.target, nil)
			r.Header.Set("User-Agent", tc.userAgent)
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.suspicious, d.DetectSuspiciousRequest(r))
		})
		if tc.suspicious {
			want++
		}
	}
	assert.Equal(t, want, d.GetMetrics().SuspiciousRequests)
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "203.0.113.7:5123", nil, "203.0.113.7"},
		{"untrusted forwarder ignored", "203.0.113.7:5123", map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"trusted proxy", "10.0.0.2:80", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "198.51.100.1"},
		{"real ip header", "127.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"garbage forwarded", "192.168.1.1:80", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.168.1.1"},
		{"no port", "198.51.100.4", nil, "198.51.100.4"},
	}
	d := quietDetector()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, d.ExtractClientIP(r))
		})
	}
	assert.Equal(t, int64(1), d.GetMetrics().InvalidIPAttempts)
}

func TestAddTrustedProxy(t *testing.T) {
	d := quietDetector()
	require.Error(t, d.AddTrustedProxy("nope"))
	require.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:5123"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "198.51.100.1", d.ExtractClientIP(r))
}

func TestDetectorMiddlewareLogs(t *testing.T) {
	var buf bytes.Buffer
	d := NewDetector(log.New(log.Config{Format: log.FormatJSON, Output: &buf}))
	called := 0
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called++ }))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/.git/config", nil))
	assert.Equal(t, 2, called)
	assert.Contains(t, buf.String(), `"path":"/.git/config"`)
	assert.Contains(t, buf.String(), `"component":"security"`)
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", rr.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}
