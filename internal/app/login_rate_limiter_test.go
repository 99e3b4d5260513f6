package app

import (
	"context"
	"testing"
	"time"
)

func TestLoginRateLimiterDisabledWithoutClient(t *testing.T) {
	limiter := NewLoginRateLimiter(nil, "", 10, time.Minute)

	for i := 0; i < 100; i++ {
		allowed, retryAfter, err := limiter.Allow(context.Background(), "a@x.com", "127.0.0.1:1234")
		if err != nil {
			t.Fatalf("Allow returned error: %v", err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatal("limiter without a redis client must never throttle")
		}
	}
}

func TestLoginRateLimiterDisabledWithZeroLimit(t *testing.T) {
	limiter := NewLoginRateLimiter(nil, "minibank:rate_limit", 0, time.Minute)

	allowed, _, err := limiter.Allow(context.Background(), "a@x.com", "127.0.0.1:1234")
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if !allowed {
		t.Fatal("limiter with a zero limit must never throttle")
	}
}

func TestClientHostIgnoresEphemeralPort(t *testing.T) {
	// Reconnecting with a new source port must not reset the window, so the
	// key subject has to be identical across ports.
	first := clientHost("203.0.113.7:49152")
	second := clientHost("203.0.113.7:50001")
	if first != second {
		t.Fatalf("same host on different ports produced distinct subjects: %q vs %q", first, second)
	}
	if first != "203.0.113.7" {
		t.Fatalf("expected bare host, got %q", first)
	}
}

func TestClientHost(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ipv4 with port", input: "192.0.2.1:5001", want: "192.0.2.1"},
		{name: "ipv6 with port", input: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "bare host passes through", input: "192.0.2.1", want: "192.0.2.1"},
		{name: "surrounding whitespace", input: " 192.0.2.1:80 ", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clientHost(tt.input); got != tt.want {
				t.Fatalf("clientHost(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoginRateLimiterNilReceiver(t *testing.T) {
	var limiter *LoginRateLimiter

	allowed, _, err := limiter.Allow(context.Background(), "a@x.com", "127.0.0.1:1234")
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if !allowed {
		t.Fatal("nil limiter must never throttle")
	}
}
