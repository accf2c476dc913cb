// Package policy decides whether an actor may perform an action, independent
// of any HTTP plumbing. Roles are checked against an explicit capability
// table rather than compared as privilege levels, because admin and
// super_admin are overlapping capability sets, not a hierarchy.
package policy

import (
	"credtrack/internal/domain/model"
)

type Action string

const (
	// ActionListCredentials lists/views credentials. All roles hold it;
	// recruiters are additionally scoped to their own rows.
	ActionListCredentials Action = "credentials.list"
	// ActionViewAnyCredential views credentials regardless of owner.
	ActionViewAnyCredential Action = "credentials.view_any"
	// ActionWriteCredential creates, updates, or deletes credentials.
	ActionWriteCredential Action = "credentials.write"
	// ActionTriggerEmails fires reminder/summary email batches.
	ActionTriggerEmails Action = "emails.trigger"
	// ActionManageUsers lists, creates, updates, and deletes users.
	ActionManageUsers Action = "users.manage"
)

var capabilities = map[model.Role]map[Action]bool{
	model.RoleRecruiter: {
		ActionListCredentials: true,
	},
	model.RoleAdmin: {
		ActionListCredentials:   true,
		ActionViewAnyCredential: true,
		ActionWriteCredential:   true,
		ActionTriggerEmails:     true,
	},
	model.RoleSuperAdmin: {
		ActionListCredentials:   true,
		ActionViewAnyCredential: true,
		ActionWriteCredential:   true,
		ActionTriggerEmails:     true,
		ActionManageUsers:       true,
	},
}

// Allows reports whether the role holds the capability. Unknown roles hold
// nothing.
func Allows(role model.Role, action Action) bool {
	return capabilities[role][action]
}

// CanAccessCredential reports whether the actor may touch a credential owned
// by ownerID. Roles that can view any credential always may; recruiters only
// when the row is their own.
func CanAccessCredential(role model.Role, actorID, ownerID string) bool {
	if Allows(role, ActionViewAnyCredential) {
		return true
	}
	return Allows(role, ActionListCredentials) && actorID == ownerID
}

// CanDeleteUser forbids self-deletion regardless of role; otherwise user
// deletion is governed by ActionManageUsers.
func CanDeleteUser(role model.Role, actorID, targetID string) bool {
	if actorID == targetID {
		return false
	}
	return Allows(role, ActionManageUsers)
}

// CanChangeRole forbids a super_admin demoting themselves out of super_admin,
// which would otherwise allow a total lockout. Changing anyone else's role,
// including demoting another super_admin, is allowed for user managers.
func CanChangeRole(actorRole model.Role, actorID, targetID string, newRole model.Role) bool {
	if !Allows(actorRole, ActionManageUsers) {
		return false
	}
	if actorID == targetID && actorRole == model.RoleSuperAdmin && newRole != model.RoleSuperAdmin {
		return false
	}
	return true
}
