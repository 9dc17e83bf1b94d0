package models

import (
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"parent", RoleParent},
		{"provider", RoleProvider},
		{"admin", RoleAdmin},
		{" Provider ", RoleProvider},
		{"ADMIN", RoleAdmin},
		{"", RoleParent},
		{"superuser", RoleParent},
	}
	for _, tc := range cases {
		if got := ParseRole(tc.in); got != tc.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDefaultFullName(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "alice"},
		{"new.user@x.com", "new.user"},
		{"@example.com", "New User"},
		{"", "New User"},
		{"no-at-sign", "New User"},
	}
	for _, tc := range cases {
		if got := DefaultFullName(tc.email); got != tc.want {
			t.Errorf("DefaultFullName(%q) = %q, want %q", tc.email, got, tc.want)
		}
	}
}

func TestCodeUsable(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	fresh := ProviderSignupCode{ExpiresAt: now.Add(time.Hour)}
	if !fresh.Usable(now) {
		t.Fatal("expected unexpired unused code to be usable")
	}

	expired := ProviderSignupCode{ExpiresAt: now.Add(-time.Second)}
	if expired.Usable(now) {
		t.Fatal("expected expired code to be unusable")
	}

	used := ProviderSignupCode{ExpiresAt: now.Add(time.Hour), Used: true}
	if used.Usable(now) {
		t.Fatal("expected used code to be unusable")
	}
}
