package constants

const (
	Admin  = "admin"
	Viewer = "viewer"
)

// ValidRoles is the set of roles a passcode can unlock.
var ValidRoles = []string{Viewer, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
