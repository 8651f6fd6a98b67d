package domain

import "fmt"

// Role is the closed set of account privilege levels.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

// Level maps a role onto the strict total order user < admin < owner.
// Unknown roles order below everything.
func (r Role) Level() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleOwner:
		return 3
	default:
		return 0
	}
}

func (r Role) Valid() bool { return r.Level() > 0 }

// AtLeast reports whether r sits at or above other in the privilege order.
func (r Role) AtLeast(other Role) bool { return r.Level() >= other.Level() }

// ParseRole validates a wire-supplied role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleDecision is the outcome of a permission matrix check.
type RoleDecision struct {
	Allowed bool
	Reason  string
}

func allow() RoleDecision             { return RoleDecision{Allowed: true} }
func deny(reason string) RoleDecision { return RoleDecision{Allowed: false, Reason: reason} }

// ValidateRoleTransition decides whether actor may set target's role to
// desired. actorIsTarget marks a self-referential change.
//
// The matrix:
//   - owner: any transition, including on itself, except demoting itself.
//     Giving up ownership goes through the ownership transfer operation so
//     exactly one owner exists at every instant.
//   - admin: may not touch accounts at admin level or above, and may only
//     assign the user role.
//   - user: nothing.
//
// Any change targeting the current owner is rejected unless the actor is
// that owner.
func ValidateRoleTransition(actor, target, desired Role, actorIsTarget bool) RoleDecision {
	if !actor.Valid() || !target.Valid() || !desired.Valid() {
		return deny("unknown role")
	}

	if target == RoleOwner && !actorIsTarget {
		return deny("cannot modify the owner account")
	}

	switch actor {
	case RoleOwner:
		if actorIsTarget && desired != RoleOwner {
			return deny("owner cannot demote itself; use ownership transfer")
		}
		if desired == RoleOwner && !actorIsTarget {
			return deny("ownership is granted only via ownership transfer")
		}
		return allow()
	case RoleAdmin:
		if target.AtLeast(RoleAdmin) {
			return deny("admins cannot modify admin or owner accounts")
		}
		if desired != RoleUser {
			return deny("admins can only assign the user role")
		}
		return allow()
	default:
		return deny("insufficient privileges")
	}
}

// ValidateBanChange decides whether actor may change target's banned flag.
// Ban rights ride the same order as role rights: an actor may ban exactly
// the accounts it outranks, and nobody bans the owner.
func ValidateBanChange(actor, target Role, actorIsTarget bool) RoleDecision {
	if !actor.Valid() || !target.Valid() {
		return deny("unknown role")
	}
	if actorIsTarget {
		return deny("cannot change own banned state")
	}
	if target == RoleOwner {
		return deny("cannot modify the owner account")
	}
	if !actor.AtLeast(RoleAdmin) {
		return deny("insufficient privileges")
	}
	if actor == RoleAdmin && target.AtLeast(RoleAdmin) {
		return deny("admins cannot modify admin or owner accounts")
	}
	return allow()
}
