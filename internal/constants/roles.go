package constants

// StaffRole is the role carried by an operator session
type StaffRole string

const (
	RoleStaff StaffRole = "staff"
	RoleAdmin StaffRole = "admin"
)

func (r StaffRole) String() string { return string(r) }
