package fetch

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

// TestNewHTTPClient tests HTTP client construction.
func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("direct client does not follow redirects", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(ClientOptions{ResponseHeaderTimeout: time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.CheckRedirect == nil {
			t.Fatal("expected CheckRedirect to be set")
		}
		if err := client.CheckRedirect(nil, nil); !errors.Is(err, http.ErrUseLastResponse) {
			t.Errorf("expected ErrUseLastResponse, got %v", err)
		}
		if client.Timeout != 0 {
			t.Errorf("expected no overall client timeout, got %v", client.Timeout)
		}
	})

	t.Run("sets response header timeout", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(ClientOptions{ResponseHeaderTimeout: 7 * time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		transport, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("expected *http.Transport, got %T", client.Transport)
		}
		if transport.ResponseHeaderTimeout != 7*time.Second {
			t.Errorf("expected 7s, got %v", transport.ResponseHeaderTimeout)
		}
	})

	t.Run("proxy client uses dialer", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(ClientOptions{ProxyAddress: "127.0.0.1:9050"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		transport, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("expected *http.Transport, got %T", client.Transport)
		}
		if transport.DialContext == nil {
			t.Error("expected DialContext to be set")
		}
		if transport.Proxy != nil {
			t.Error("expected environment proxy to be disabled")
		}
	})

	t.Run("invalid proxy address", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHTTPClient(ClientOptions{ProxyAddress: "localhost"}); !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

// TestIsValidProxyAddress tests proxy address validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    bool
	}{
		{"127.0.0.1:9050", true},
		{"localhost:1080", true},
		{"[::1]:9050", true},
		{"localhost", false},
		{":9050", false},
		{"host:0", false},
		{"host:65536", false},
		{"host:abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tt.address); got != tt.want {
				t.Errorf("isValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}
