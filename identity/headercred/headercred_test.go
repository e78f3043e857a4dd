package headercred

import (
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	r := httptest.NewRequest("POST", "/oauth/authorize", nil)
	r.SetBasicAuth("alice@example.com", "pw")

	got, err := New().Resolve(r)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "alice@example.com" {
		t.Errorf("Resolve() = %q, want alice@example.com", got)
	}
}

func TestResolve_NoCredentials(t *testing.T) {
	r := httptest.NewRequest("POST", "/oauth/authorize", nil)

	if _, err := New().Resolve(r); err == nil {
		t.Error("Resolve() without credentials should fail")
	}
}
