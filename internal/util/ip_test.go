package util

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "192.0.2.10:54321", nil, "192.0.2.10"},
		{"forwarded", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "192.0.2.20"}, "192.0.2.20"},
		{"forwarded chain", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "192.0.2.30, 10.0.0.2"}, "192.0.2.30"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "192.0.2.40"}, "192.0.2.40"},
		{"forwarded wins over real ip", "10.0.0.1:80",
			map[string]string{"X-Forwarded-For": "192.0.2.50", "X-Real-IP": "192.0.2.60"}, "192.0.2.50"},
		{"no port", "192.0.2.70", nil, "192.0.2.70"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = tt.remoteAddr
		for k, v := range tt.headers {
			r.Header.Set(k, v)
		}
		if got := ClientIP(r); got != tt.want {
			t.Errorf("%s: ClientIP = %q, want %q", tt.name, got, tt.want)
		}
	}
}
