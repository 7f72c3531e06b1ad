package models

import (
	"testing"
	"time"
)

func TestStringListRoundTrip(t *testing.T) {
	in := StringList{"read_users", "ban_users"}
	v, err := in.Value()
	if err != nil {
		t.Fatal(err)
	}

	var out StringList
	if err := out.Scan(v); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || !out.Contains("ban_users") {
		t.Errorf("unexpected list %v", out)
	}

	var fromBytes StringList
	if err := fromBytes.Scan([]byte(`["a"]`)); err != nil || !fromBytes.Contains("a") {
		t.Errorf("scan []byte: %v %v", fromBytes, err)
	}

	var empty StringList
	if err := empty.Scan(nil); err != nil || len(empty) != 0 {
		t.Errorf("scan nil: %v %v", empty, err)
	}

	if v, _ := StringList(nil).Value(); v != "[]" {
		t.Errorf("nil list value = %v", v)
	}
}

func TestAdminLockState(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	future := now.Add(time.Hour).Unix()
	past := now.Add(-time.Second).Unix()
	exact := now.Unix()

	tests := []struct {
		name        string
		lockUntil   *int64
		wantLocked  bool
		wantExpired bool
	}{
		{"no lock", nil, false, false},
		{"locked", &future, true, false},
		{"elapsed", &past, false, true},
		{"boundary", &exact, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Admin{LockUntil: tt.lockUntil}
			if got := a.IsLocked(now); got != tt.wantLocked {
				t.Errorf("IsLocked() = %v, want %v", got, tt.wantLocked)
			}
			if got := a.LockExpired(now); got != tt.wantExpired {
				t.Errorf("LockExpired() = %v, want %v", got, tt.wantExpired)
			}
		})
	}
}
