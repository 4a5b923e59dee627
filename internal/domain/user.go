package domain

// Role identifies a chat participant's privilege level.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

var roleRank = map[Role]int{
	RoleUser:       0,
	RoleAdmin:      1,
	RoleSuperAdmin: 2,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants at least the privileges of other.
// Unknown roles rank below every known role.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// IsModerator reports whether the role may restrict users and mutate
// other users' messages.
func (r Role) IsModerator() bool {
	return r.AtLeast(RoleAdmin)
}

// ChatUser is the presence record for a connected identity. It exists only
// while at least one live connection exists for the identity; the Restricted
// flag is sourced from the durable restriction record at join time and kept
// current by the room coordinator afterwards.
type ChatUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	Restricted  bool   `json:"restricted"`
}
