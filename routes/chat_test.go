package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestCheckWsOrigin(t *testing.T) {
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/chat/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	// no allowlist configured, everything passes
	os.Unsetenv("ALLOWED_ORIGINS")
	if !checkWsOrigin(request("https://evil.example")) {
		t.Error("expected open origin check without ALLOWED_ORIGINS")
	}

	os.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	defer os.Unsetenv("ALLOWED_ORIGINS")

	if !checkWsOrigin(request("https://app.example.com")) {
		t.Error("allowed origin rejected")
	}
	if !checkWsOrigin(request("https://admin.example.com")) {
		t.Error("second allowed origin rejected")
	}
	if checkWsOrigin(request("https://evil.example")) {
		t.Error("unlisted origin accepted")
	}

	// non-browser clients send no Origin header
	if !checkWsOrigin(request("")) {
		t.Error("request without Origin header rejected")
	}
}
