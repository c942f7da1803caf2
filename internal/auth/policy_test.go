package auth

import "testing"

func principalOf(id string, role Role) Principal {
	return Principal{ID: id, Email: id + "@example.com", Role: role}
}

func TestHasPermissionCatalogLookup(t *testing.T) {
	policy := NewAccessPolicy()

	cases := []struct {
		name  string
		role  Role
		check PermissionCheck
		want  bool
	}{
		{"admin creates product", RoleAdmin, PermissionCheck{Action: ActionCreate, Resource: ResourceProduct}, true},
		{"customer cannot create product", RoleCustomer, PermissionCheck{Action: ActionCreate, Resource: ResourceProduct}, false},
		{"customer reads product", RoleCustomer, PermissionCheck{Action: ActionRead, Resource: ResourceProduct}, true},
		{"customer creates order", RoleCustomer, PermissionCheck{Action: ActionCreate, Resource: ResourceOrder}, true},
		{"staff updates order unconditionally", RoleStaff, PermissionCheck{Action: ActionUpdate, Resource: ResourceOrder}, true},
		{"rider cannot delete product", RoleRider, PermissionCheck{Action: ActionDelete, Resource: ResourceProduct}, false},
		{"unknown role has nothing", Role("ghost"), PermissionCheck{Action: ActionRead, Resource: ResourceProduct}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.HasPermission(principalOf("U1", tc.role), tc.check); got != tc.want {
				t.Fatalf("HasPermission = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasPermissionConditionsAreANDed(t *testing.T) {
	policy := NewAccessPolicy()
	customer := principalOf("U1", RoleCustomer)

	// owner:self + status:pending both declared on customer order update.
	check := PermissionCheck{
		Action:     ActionUpdate,
		Resource:   ResourceOrder,
		Conditions: map[string]string{"owner": "U1", "status": "pending"},
	}
	if !policy.HasPermission(customer, check) {
		t.Fatalf("expected all-conditions-satisfied to pass")
	}

	check.Conditions = map[string]string{"owner": "U1", "status": "delivered"}
	if policy.HasPermission(customer, check) {
		t.Fatalf("status mismatch must fail even when ownership holds")
	}

	check.Conditions = map[string]string{"owner": "U2", "status": "pending"}
	if policy.HasPermission(customer, check) {
		t.Fatalf("foreign ownership must fail even when status matches")
	}

	check.Conditions = map[string]string{"owner": "U1"}
	if policy.HasPermission(customer, check) {
		t.Fatalf("missing declared condition key must fail")
	}
}

func TestHasPermissionAssignedToSelf(t *testing.T) {
	policy := NewAccessPolicy()
	rider := principalOf("R1", RoleRider)

	check := PermissionCheck{
		Action:     ActionRead,
		Resource:   ResourceDelivery,
		Conditions: map[string]string{"assignedTo": "R1"},
	}
	if !policy.HasPermission(rider, check) {
		t.Fatalf("expected assigned rider to read the delivery")
	}

	check.Conditions = map[string]string{"assignedTo": "R2"}
	if policy.HasPermission(rider, check) {
		t.Fatalf("expected unassigned rider to be denied")
	}
}

func TestHasPermissionIsPure(t *testing.T) {
	policy := NewAccessPolicy()
	admin := principalOf("A1", RoleAdmin)
	check := PermissionCheck{Action: ActionCreate, Resource: ResourceProduct}

	first := policy.HasPermission(admin, check)
	for i := 0; i < 100; i++ {
		if policy.HasPermission(admin, check) != first {
			t.Fatalf("identical inputs must yield identical results")
		}
	}
}

func TestRoleChecks(t *testing.T) {
	policy := NewAccessPolicy()
	staff := principalOf("S1", RoleStaff)

	if !policy.HasRole(staff, RoleStaff) || policy.HasRole(staff, RoleAdmin) {
		t.Fatalf("HasRole must be exact equality")
	}
	if !policy.HasAnyRole(staff, RoleAdmin, RoleStaff) {
		t.Fatalf("expected membership in role set")
	}
	if policy.HasAnyRole(staff, RoleAdmin, RoleRider) {
		t.Fatalf("expected no membership")
	}
}

func TestHasRoleOrHigher(t *testing.T) {
	policy := NewAccessPolicy()

	cases := []struct {
		role    Role
		minimum Role
		want    bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleStaff, true},
		{RoleAdmin, RoleCustomer, true},
		{RoleAdmin, RoleRider, true},
		{RoleStaff, RoleCustomer, true},
		{RoleStaff, RoleRider, true},
		{RoleStaff, RoleAdmin, false},
		{RoleCustomer, RoleCustomer, true},
		{RoleCustomer, RoleRider, false},
		{RoleRider, RoleCustomer, false},
	}
	for _, tc := range cases {
		got := policy.HasRoleOrHigher(principalOf("U1", tc.role), tc.minimum)
		if got != tc.want {
			t.Fatalf("HasRoleOrHigher(%s, %s) = %v, want %v", tc.role, tc.minimum, got, tc.want)
		}
	}
}

func TestCanAccessResourceEnforcesOwnership(t *testing.T) {
	policy := NewAccessPolicy()

	// A customer may read their own order but not someone else's, even
	// though the role carries general read access to orders.
	customer := principalOf("U2", RoleCustomer)
	if policy.CanAccessResource(customer, Resource{Type: ResourceOrder, OwnerID: "U1"}) {
		t.Fatalf("foreign order must be denied")
	}
	if !policy.CanAccessResource(customer, Resource{Type: ResourceOrder, OwnerID: "U2"}) {
		t.Fatalf("own order must be allowed")
	}

	// Staff order access is unconditional.
	staff := principalOf("S1", RoleStaff)
	if !policy.CanAccessResource(staff, Resource{Type: ResourceOrder, OwnerID: "U1"}) {
		t.Fatalf("staff read must be unconditional")
	}

	// No read entry at all.
	if policy.CanAccessResource(customer, Resource{Type: ResourceUser, OwnerID: "U2"}) {
		t.Fatalf("customer has no user read entry")
	}

	// Products carry no ownership; plain read entries match.
	if !policy.CanAccessResource(customer, Resource{Type: ResourceProduct}) {
		t.Fatalf("product read must be allowed")
	}
}

func TestPermissionsForRoleReturnsCopy(t *testing.T) {
	policy := NewAccessPolicy()

	perms := policy.PermissionsForRole(RoleAdmin)
	if len(perms) == 0 {
		t.Fatalf("expected admin catalog entries")
	}
	perms[0] = Permission{Action: "x", Resource: "y"}

	again := policy.PermissionsForRole(RoleAdmin)
	if again[0].Action == "x" {
		t.Fatalf("catalog must not be mutable through the accessor")
	}
}

func TestRoleHierarchyIsReflexiveAndAcyclic(t *testing.T) {
	for _, role := range AllRoles() {
		if !role.Subsumes(role) {
			t.Fatalf("hierarchy must be reflexive: %s", role)
		}
	}
	// No two distinct roles subsume each other.
	for _, a := range AllRoles() {
		for _, b := range AllRoles() {
			if a != b && a.Subsumes(b) && b.Subsumes(a) {
				t.Fatalf("cycle between %s and %s", a, b)
			}
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range AllRoles() {
		if !ValidRole(role) {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if ValidRole(Role("ghost")) || ValidRole(Role("")) {
		t.Fatalf("unknown roles must be invalid")
	}
}
