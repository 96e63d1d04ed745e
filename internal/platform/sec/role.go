// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// UserRole is the "role" claim issued by the identity provider.
type UserRole string

// Roles ordered from least to most privileged. Catalog writes need RoleAdmin.
const (
	RoleMember UserRole = "member"
	RoleEditor UserRole = "editor"
	RoleAdmin  UserRole = "admin"
)

var roleRank = map[UserRole]int{
	RoleMember: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// AtLeast reports whether r grants everything target grants. Unknown roles grant nothing.
func (r UserRole) AtLeast(target UserRole) bool {
	return roleRank[r] >= roleRank[target] && roleRank[r] > 0
}
