package admins

import (
	"fmt"
	"net"

	apperrors "zettanote/internal/pkg/errors"
	"zettanote/internal/platform/models"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleModerator  = "moderator"
)

const (
	PermReadUsers     = "read_users"
	PermWriteUsers    = "write_users"
	PermDeleteUsers   = "delete_users"
	PermBanUsers      = "ban_users"
	PermReadPages     = "read_pages"
	PermDeletePages   = "delete_pages"
	PermReadAnalytics = "read_analytics"
	PermManageAdmins  = "manage_admins"
	PermSystemConfig  = "system_config"
)

var AllPermissions = []string{
	PermReadUsers, PermWriteUsers, PermDeleteUsers, PermBanUsers,
	PermReadPages, PermDeletePages, PermReadAnalytics,
	PermManageAdmins, PermSystemConfig,
}

var roleDefaults = map[string][]string{
	RoleSuperAdmin: AllPermissions,
	RoleAdmin: {
		PermReadUsers, PermWriteUsers, PermDeleteUsers, PermBanUsers,
		PermReadPages, PermDeletePages, PermReadAnalytics,
	},
	RoleModerator: {PermReadUsers, PermBanUsers, PermReadPages, PermReadAnalytics},
}

func ValidRole(role string) bool {
	_, ok := roleDefaults[role]
	return ok
}

func DefaultPermissions(role string) models.StringList {
	return append(models.StringList{}, roleDefaults[role]...)
}

// HasPermission reports whether a may perform actions guarded by perm.
// A super_admin passes every check regardless of its stored permissions.
func HasPermission(a *models.Admin, perm string) bool {
	if a == nil {
		return false
	}
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.Permissions.Contains(perm)
}

func ValidatePermissions(perms []string) (models.StringList, error) {
	seen := make(map[string]bool, len(perms))
	out := models.StringList{}
	for _, p := range perms {
		if !isPermission(p) {
			return nil, apperrors.New(apperrors.KindValidation, fmt.Sprintf("unknown permission %q", p))
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func isPermission(p string) bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// ValidateAllowlist accepts plain IP addresses and CIDR ranges.
func ValidateAllowlist(entries []string) (models.StringList, error) {
	out := models.StringList{}
	for _, e := range entries {
		if net.ParseIP(e) == nil {
			if _, _, err := net.ParseCIDR(e); err != nil {
				return nil, apperrors.New(apperrors.KindValidation, fmt.Sprintf("invalid IP allowlist entry %q", e))
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// IPAllowed reports whether ip is permitted by allowlist. An empty
// allowlist permits every address.
func IPAllowed(allowlist []string, ip string) bool {
	if len(allowlist) == 0 {
		return true
	}
	addr := net.ParseIP(ip)
	if addr == nil {
		return false
	}
	for _, entry := range allowlist {
		if allowed := net.ParseIP(entry); allowed != nil {
			if allowed.Equal(addr) {
				return true
			}
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil && network.Contains(addr) {
			return true
		}
	}
	return false
}
