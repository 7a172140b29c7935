package role

// Role is the capacity a sender is acting under in a conversation.
type Role string

const (
	Tenant          Role = "tenant"
	FacilityManager Role = "facility_manager"
	PropertyOwner   Role = "property_owner"
	Unknown         Role = "unknown"
)

// Selectable lists the roles an account can hold, in menu order.
func Selectable() []Role {
	return []Role{Tenant, FacilityManager, PropertyOwner}
}

func Parse(s string) (Role, bool) {
	switch Role(s) {
	case Tenant, FacilityManager, PropertyOwner, Unknown:
		return Role(s), true
	}
	return Unknown, false
}

// Label is the human name shown on role selection buttons.
func (r Role) Label() string {
	switch r {
	case Tenant:
		return "Tenant"
	case FacilityManager:
		return "Facility Manager"
	case PropertyOwner:
		return "Landlord"
	default:
		return "Guest"
	}
}

const selectionPrefix = "select_role:"

// SelectionID is the button id that picks r on the role selection menu.
func (r Role) SelectionID() string {
	return selectionPrefix + string(r)
}

// FromSelectionID parses a role selection button id.
func FromSelectionID(id string) (Role, bool) {
	if len(id) <= len(selectionPrefix) || id[:len(selectionPrefix)] != selectionPrefix {
		return Unknown, false
	}
	r, ok := Parse(id[len(selectionPrefix):])
	if !ok || r == Unknown {
		return Unknown, false
	}
	return r, true
}
