package auth

// Role is a privilege tier. The set is closed; the hierarchy below is a
// partial order used for "role-or-higher" checks.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleRider    Role = "rider"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// DefaultRole is assigned to every newly registered account.
const DefaultRole = RoleCustomer

// roleChildren lists the roles each role directly subsumes, besides itself.
// Customer and rider are siblings; staff oversees both; admin oversees staff.
var roleChildren = map[Role][]Role{
	RoleAdmin: {RoleStaff},
	RoleStaff: {RoleCustomer, RoleRider},
}

// roleClosure is the reflexive transitive closure of roleChildren, computed
// once at startup so Subsumes is a single map lookup.
var roleClosure = buildRoleClosure()

func buildRoleClosure() map[Role]map[Role]struct{} {
	closure := make(map[Role]map[Role]struct{}, len(AllRoles()))
	var expand func(root, current Role)
	expand = func(root, current Role) {
		if _, seen := closure[root][current]; seen {
			return
		}
		closure[root][current] = struct{}{}
		for _, child := range roleChildren[current] {
			expand(root, child)
		}
	}
	for _, role := range AllRoles() {
		closure[role] = make(map[Role]struct{})
		expand(role, role)
	}
	return closure
}

// AllRoles returns the closed role set.
func AllRoles() []Role {
	return []Role{RoleCustomer, RoleRider, RoleStaff, RoleAdmin}
}

// ValidRole reports whether r is a member of the closed set.
func ValidRole(r Role) bool {
	_, ok := roleClosure[r]
	return ok
}

// Subsumes reports whether r sits at or above other in the hierarchy.
func (r Role) Subsumes(other Role) bool {
	_, ok := roleClosure[r][other]
	return ok
}
