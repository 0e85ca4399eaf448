package auth

import "strings"

// PermissionSet is the set of "module:action" capabilities granted to a
// principal for the lifetime of one request. Admin principals hold every
// capability implicitly.
type PermissionSet struct {
	admin   bool
	actions map[string]struct{}
}

func NewPermissionSet(actions []string, admin bool) PermissionSet {
	set := PermissionSet{admin: admin, actions: make(map[string]struct{}, len(actions))}
	for _, action := range actions {
		trimmed := strings.TrimSpace(action)
		if trimmed != "" {
			set.actions[trimmed] = struct{}{}
		}
	}
	return set
}

func (p PermissionSet) Has(moduleAction string) bool {
	if p.admin {
		return true
	}
	_, ok := p.actions[moduleAction]
	return ok
}

func (p PermissionSet) IsAdmin() bool {
	return p.admin
}

// Actions returns the granted capabilities, admin or not. Used to echo the
// permission list back to the caller at login.
func (p PermissionSet) Actions() []string {
	out := make([]string, 0, len(p.actions))
	for action := range p.actions {
		out = append(out, action)
	}
	return out
}
