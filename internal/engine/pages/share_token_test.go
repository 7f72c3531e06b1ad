package pages

import "testing"

func TestNewShareToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := NewShareToken()
		if err != nil {
			t.Fatal(err)
		}
		if !IsShareToken(token) {
			t.Fatalf("token %q is not a valid share token", token)
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}

	for _, bad := range []string{"", "abc", "../etc/passwd", "0b5f7c1e8e1a4f0a9d0e6f3c2b1a0d9e"} {
		if IsShareToken(bad) {
			t.Errorf("IsShareToken(%q) = true", bad)
		}
	}
}
