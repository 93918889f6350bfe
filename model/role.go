package model

// Role describes a user's relationship to an artifact. It is computed from
// the contributor list plus provider moderator membership, never persisted
// on its own.
type Role string

const (
	RoleCreator      Role = "creator"
	RoleAdmin        Role = "admin"
	RoleWrite        Role = "write"
	RoleRead         Role = "read"
	RoleModerator    Role = "moderator"
	RoleUnaffiliated Role = "unaffiliated"
)

// IsContributor reports whether the role stems from a contributor record.
func (r Role) IsContributor() bool {
	switch r {
	case RoleCreator, RoleAdmin, RoleWrite, RoleRead:
		return true
	}
	return false
}

// CanAdminister reports whether the role may trigger admin-only transitions
// such as submit or withdraw-request.
func (r Role) CanAdminister() bool {
	return r == RoleCreator || r == RoleAdmin
}
