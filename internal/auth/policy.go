package auth

// AccessPolicy evaluates the static permission catalog against a principal.
// Evaluation is a pure function of (role, action, resource, conditions): no
// I/O, no locks, safe for concurrent use.
type AccessPolicy struct {
	catalog map[Role][]Permission
}

// NewAccessPolicy returns a policy over the default catalog.
func NewAccessPolicy() *AccessPolicy {
	return NewAccessPolicyWithCatalog(DefaultCatalog)
}

// NewAccessPolicyWithCatalog returns a policy over a caller-supplied catalog.
// The catalog must not be mutated after this call.
func NewAccessPolicyWithCatalog(catalog map[Role][]Permission) *AccessPolicy {
	return &AccessPolicy{catalog: catalog}
}

// PermissionCheck describes the action a principal is attempting, with the
// runtime facts conditional catalog entries are evaluated against.
type PermissionCheck struct {
	Action     string
	Resource   string
	Conditions map[string]string
}

// Resource describes a concrete resource instance for access checks that do
// not carry an explicit conditions object.
type Resource struct {
	Type    string
	ID      string
	OwnerID string
}

// HasPermission reports whether the principal's role grants the checked
// action. A catalog entry matches when action and resource are identical and
// every declared condition is satisfied; an entry without conditions matches
// unconditionally.
func (p *AccessPolicy) HasPermission(principal Principal, check PermissionCheck) bool {
	for _, perm := range p.catalog[principal.Role] {
		if perm.Action != check.Action || perm.Resource != check.Resource {
			continue
		}
		if conditionsSatisfied(principal, perm.Conditions, check.Conditions) {
			return true
		}
	}
	return false
}

// HasRole reports exact role equality.
func (p *AccessPolicy) HasRole(principal Principal, role Role) bool {
	return principal.Role == role
}

// HasAnyRole reports membership in the given role set.
func (p *AccessPolicy) HasAnyRole(principal Principal, roles ...Role) bool {
	for _, role := range roles {
		if principal.Role == role {
			return true
		}
	}
	return false
}

// HasRoleOrHigher reports whether the principal's role subsumes minimum in
// the precomputed hierarchy.
func (p *AccessPolicy) HasRoleOrHigher(principal Principal, minimum Role) bool {
	return principal.Role.Subsumes(minimum)
}

// CanAccessResource reports whether the principal may read the resource.
// Ownership conditions declared in the catalog are enforced even though the
// caller supplies no conditions object: a resource owned by someone else is
// denied when the only matching entries are owner-scoped.
func (p *AccessPolicy) CanAccessResource(principal Principal, res Resource) bool {
	for _, perm := range p.catalog[principal.Role] {
		if perm.Action != ActionRead || perm.Resource != res.Type {
			continue
		}
		if owner, ok := perm.Conditions["owner"]; ok && owner == condSelf {
			if res.OwnerID != "" && res.OwnerID != principal.ID {
				continue
			}
		}
		// Other declared conditions (status, assignment) are runtime facts the
		// resource reference does not carry, so such entries cannot match here.
		if onlyOwnerCondition(perm.Conditions) {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the catalog entries for role.
func (p *AccessPolicy) PermissionsForRole(role Role) []Permission {
	entries := p.catalog[role]
	out := make([]Permission, len(entries))
	copy(out, entries)
	return out
}

func conditionsSatisfied(principal Principal, declared, supplied map[string]string) bool {
	for key, want := range declared {
		got, ok := supplied[key]
		if !ok {
			return false
		}
		switch {
		case key == "owner" && want == condSelf:
			if got != principal.ID {
				return false
			}
		case key == "assignedTo" && want == condSelf:
			if got != principal.ID {
				return false
			}
		default:
			if got != want {
				return false
			}
		}
	}
	return true
}

func onlyOwnerCondition(conditions map[string]string) bool {
	for key := range conditions {
		if key != "owner" {
			return false
		}
	}
	return true
}
