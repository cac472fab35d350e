//go:build unit

package auth

import (
	"go-comments-app/internal/logger"
	"testing"
)

func TestSeedDefaultPolicies(t *testing.T) {
	e, err := NewMemoryEnforcer()
	if err != nil {
		t.Fatalf("NewMemoryEnforcer failed: %v", err)
	}
	if err := SeedDefaultPolicies(e, logger.Nop()); err != nil {
		t.Fatalf("SeedDefaultPolicies failed: %v", err)
	}
	// Seeding twice must not fail or duplicate anything.
	if err := SeedDefaultPolicies(e, logger.Nop()); err != nil {
		t.Fatalf("second SeedDefaultPolicies failed: %v", err)
	}
	if err := GrantAdmin(e, "alice"); err != nil {
		t.Fatalf("GrantAdmin failed: %v", err)
	}

	page := "/api/pages/2b1c7c4e-2f0e-4f7a-9c7e-0a3d9e1c5b11"
	tests := []struct {
		sub, obj, act string
		want          bool
	}{
		{RoleAnonymous, page + "/comments", "GET", true},
		{RoleAnonymous, page + "/comments", "POST", true},
		{RoleAnonymous, page + "/comments/abc", "GET", true},
		{RoleAnonymous, page + "/comments_count", "GET", true},
		{RoleAnonymous, "/api/login", "POST", true},
		{RoleAnonymous, page + "/comments/abc", "PATCH", false},
		{RoleAnonymous, "/api/pages", "GET", false},
		{RoleAnonymous, page, "DELETE", false},
		{RoleAnonymous, "/api/logout", "GET", false},
		{"alice", "/api/pages", "POST", true},
		{"alice", page, "PATCH", true},
		{"alice", page + "/comments/abc", "PATCH", true},
		{"alice", page + "/comments", "GET", true},
		{"alice", "/api/logout", "GET", true},
		{"bob", "/api/pages", "GET", false},
	}
	for _, tt := range tests {
		got, err := e.Enforce(tt.sub, tt.obj, tt.act)
		if err != nil {
			t.Fatalf("Enforce(%s, %s, %s) failed: %v", tt.sub, tt.obj, tt.act, err)
		}
		if got != tt.want {
			t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.sub, tt.obj, tt.act, got, tt.want)
		}
	}

	if err := RevokeAll(e, "alice"); err != nil {
		t.Fatalf("RevokeAll failed: %v", err)
	}
	if ok, _ := e.Enforce("alice", "/api/pages", "GET"); ok {
		t.Error("expected revoked user to lose access")
	}
}
