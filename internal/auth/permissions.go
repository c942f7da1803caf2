package auth

// Permission grants an action on a resource, optionally gated by conditions
// evaluated against runtime facts supplied by the caller.
//
// Recognized condition keys:
//
//	owner: "self"      — the supplied owner must equal the principal id
//	assignedTo: "self" — the supplied assignee must equal the principal id
//	status: <value>    — the supplied status must equal the value exactly
//
// Any other key is matched by strict equality against the supplied value.
type Permission struct {
	Action     string            `json:"action"`
	Resource   string            `json:"resource"`
	Conditions map[string]string `json:"conditions,omitempty"`
}

const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const (
	ResourceProduct   = "product"
	ResourceOrder     = "order"
	ResourceDelivery  = "delivery"
	ResourceProfile   = "profile"
	ResourcePromotion = "promotion"
	ResourceUser      = "user"
)

const condSelf = "self"

// DefaultCatalog is the static role→permission table. It is built once at
// process start and treated as read-only thereafter; AccessPolicy copies
// nothing and relies on nobody mutating it.
var DefaultCatalog = map[Role][]Permission{
	RoleCustomer: {
		{Action: ActionRead, Resource: ResourceProduct},
		{Action: ActionRead, Resource: ResourcePromotion},
		{Action: ActionCreate, Resource: ResourceOrder},
		{Action: ActionRead, Resource: ResourceOrder, Conditions: map[string]string{"owner": condSelf}},
		{Action: ActionUpdate, Resource: ResourceOrder, Conditions: map[string]string{"owner": condSelf, "status": "pending"}},
		{Action: ActionRead, Resource: ResourceProfile, Conditions: map[string]string{"owner": condSelf}},
		{Action: ActionUpdate, Resource: ResourceProfile, Conditions: map[string]string{"owner": condSelf}},
	},
	RoleRider: {
		{Action: ActionRead, Resource: ResourceOrder, Conditions: map[string]string{"assignedTo": condSelf}},
		{Action: ActionUpdate, Resource: ResourceOrder, Conditions: map[string]string{"assignedTo": condSelf, "status": "assigned"}},
		{Action: ActionRead, Resource: ResourceDelivery, Conditions: map[string]string{"assignedTo": condSelf}},
		{Action: ActionUpdate, Resource: ResourceDelivery, Conditions: map[string]string{"assignedTo": condSelf}},
		{Action: ActionRead, Resource: ResourceProfile, Conditions: map[string]string{"owner": condSelf}},
		{Action: ActionUpdate, Resource: ResourceProfile, Conditions: map[string]string{"owner": condSelf}},
	},
	RoleStaff: {
		{Action: ActionRead, Resource: ResourceProduct},
		{Action: ActionUpdate, Resource: ResourceProduct},
		{Action: ActionRead, Resource: ResourceOrder},
		{Action: ActionUpdate, Resource: ResourceOrder},
		{Action: ActionRead, Resource: ResourceDelivery},
		{Action: ActionUpdate, Resource: ResourceDelivery},
		{Action: ActionRead, Resource: ResourceUser},
		{Action: ActionRead, Resource: ResourceProfile, Conditions: map[string]string{"owner": condSelf}},
		{Action: ActionUpdate, Resource: ResourceProfile, Conditions: map[string]string{"owner": condSelf}},
	},
	RoleAdmin: {
		{Action: ActionCreate, Resource: ResourceProduct},
		{Action: ActionRead, Resource: ResourceProduct},
		{Action: ActionUpdate, Resource: ResourceProduct},
		{Action: ActionDelete, Resource: ResourceProduct},
		{Action: ActionCreate, Resource: ResourcePromotion},
		{Action: ActionRead, Resource: ResourcePromotion},
		{Action: ActionUpdate, Resource: ResourcePromotion},
		{Action: ActionDelete, Resource: ResourcePromotion},
		{Action: ActionRead, Resource: ResourceOrder},
		{Action: ActionUpdate, Resource: ResourceOrder},
		{Action: ActionDelete, Resource: ResourceOrder},
		{Action: ActionRead, Resource: ResourceDelivery},
		{Action: ActionUpdate, Resource: ResourceDelivery},
		{Action: ActionRead, Resource: ResourceUser},
		{Action: ActionUpdate, Resource: ResourceUser},
		{Action: ActionDelete, Resource: ResourceUser},
		{Action: ActionRead, Resource: ResourceProfile},
		{Action: ActionUpdate, Resource: ResourceProfile},
	},
}
