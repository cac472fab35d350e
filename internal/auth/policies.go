package auth

import (
	"fmt"
	"go-comments-app/internal/logger"

	"github.com/casbin/casbin/v2"
)

const (
	// RoleAnonymous is the subject of every request without a logged-in user.
	RoleAnonymous = "anonymous"
	// RoleAdmin is granted to every account created through the CLI.
	RoleAdmin = "admin"
)

// SeedDefaultPolicies ensures that the application has a baseline set of authorization rules.
// It checks if each default policy exists before adding it, making the operation idempotent
// and safe to run on every application start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) error {
	log.Info("Seeding default authorization policies...")

	policies := [][]string{
		// Visitors read, post and count comments, and may log in.
		{RoleAnonymous, "/api/login", "POST"},
		{RoleAnonymous, "/api/pages/:page/comments", "GET"},
		{RoleAnonymous, "/api/pages/:page/comments", "POST"},
		{RoleAnonymous, "/api/pages/:page/comments/:comment", "GET"},
		{RoleAnonymous, "/api/pages/:page/comments_count", "GET"},

		// Admins manage pages and moderate comments.
		{RoleAdmin, "/api/logout", "GET"},
		{RoleAdmin, "/api/pages", "GET"},
		{RoleAdmin, "/api/pages", "POST"},
		{RoleAdmin, "/api/pages/:page", "PATCH"},
		{RoleAdmin, "/api/pages/:page", "DELETE"},
		{RoleAdmin, "/api/pages/:page/comments/:comment", "PATCH"},
	}
	for _, p := range policies {
		has, err := e.HasPolicy(p)
		if err != nil {
			return fmt.Errorf("failed to check policy %v: %w", p, err)
		}
		if has {
			continue
		}
		if _, err := e.AddPolicy(p); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}

	// Admins can do everything anonymous users can.
	if has, _ := e.HasRoleForUser(RoleAdmin, RoleAnonymous); !has {
		if _, err := e.AddRoleForUser(RoleAdmin, RoleAnonymous); err != nil {
			return fmt.Errorf("failed to add role '%s' -> '%s': %w", RoleAdmin, RoleAnonymous, err)
		}
	}
	log.Info("Policy seeding complete.")
	return nil
}

// GrantAdmin gives a user the admin role.
func GrantAdmin(e casbin.IEnforcer, username string) error {
	if _, err := e.AddRoleForUser(username, RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant '%s' to %s: %w", RoleAdmin, username, err)
	}
	return nil
}

// RevokeAll removes every role held by a user.
func RevokeAll(e casbin.IEnforcer, username string) error {
	if _, err := e.DeleteRolesForUser(username); err != nil {
		return fmt.Errorf("failed to revoke roles of %s: %w", username, err)
	}
	return nil
}
