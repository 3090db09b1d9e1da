package domain

import "slices"

type Capability string

const (
	CanManageRooms         Capability = "rooms:manage"
	CanViewAllReservations Capability = "reservations:view_all"
)

func ParseCapability(s string) (Capability, bool) {
	switch Capability(s) {
	case CanManageRooms, CanViewAllReservations:
		return Capability(s), true
	default:
		return "", false
	}
}

// Employee is a staff member. What they may do is decided by their
// capability set, never by a role name.
type Employee struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Position     string       `json:"position"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	Capabilities []Capability `json:"capabilities"`
}

func NewEmployee(id, name, position string, caps ...Capability) Employee {
	return Employee{ID: id, Name: name, Position: position, Capabilities: slices.Clone(caps)}
}

// NewAdmin is an employee holding every capability.
func NewAdmin(id, name string) Employee {
	return NewEmployee(id, name, "Administrator", CanManageRooms, CanViewAllReservations)
}

func (e Employee) String() string {
	return e.Name + " - " + e.Position
}

func (e Employee) Can(c Capability) bool {
	return slices.Contains(e.Capabilities, c)
}

// CapabilityNames is the wire form used in tokens.
func (e Employee) CapabilityNames() []string {
	out := make([]string, len(e.Capabilities))
	for i, c := range e.Capabilities {
		out[i] = string(c)
	}
	return out
}
