package auth

import "github.com/spec-kit/workorder-engine/internal/domain"

// Actor is the authenticated caller passed explicitly into every engine
// operation, together with the tenant it acts within.
type Actor struct {
	ID   string
	Role domain.Role
}

// Action names each operation gated by the capability table.
type Action string

const (
	ActionAcknowledge      Action = "acknowledge"
	ActionStartWork        Action = "start_work"
	ActionComplete         Action = "complete"
	ActionVerify           Action = "verify"
	ActionClose            Action = "close"
	ActionReject           Action = "reject"
	ActionHold             Action = "hold"
	ActionResume           Action = "resume"
	ActionSetStatus        Action = "set_status"
	ActionRequestApproval  Action = "request_approval"
	ActionApproveRequest   Action = "approve_request"
	ActionDenyRequest      Action = "deny_request"
	ActionContainEmergency Action = "contain_emergency"
	ActionResolveEmergency Action = "resolve_emergency"
)

// capabilities maps each action to the roles allowed to perform it. Actions
// listed with all four roles are additionally constrained to the ticket's
// submitter or assignee at the service layer.
var capabilities = map[Action][]domain.Role{
	ActionAcknowledge:      {domain.RoleUser, domain.RoleVendor, domain.RoleManager, domain.RoleAdmin},
	ActionStartWork:        {domain.RoleUser, domain.RoleVendor, domain.RoleManager, domain.RoleAdmin},
	ActionComplete:         {domain.RoleUser, domain.RoleVendor, domain.RoleManager, domain.RoleAdmin},
	ActionRequestApproval:  {domain.RoleUser, domain.RoleVendor, domain.RoleManager, domain.RoleAdmin},
	ActionVerify:           {domain.RoleManager, domain.RoleAdmin},
	ActionClose:            {domain.RoleManager, domain.RoleAdmin},
	ActionReject:           {domain.RoleManager, domain.RoleAdmin},
	ActionHold:             {domain.RoleManager, domain.RoleAdmin},
	ActionResume:           {domain.RoleManager, domain.RoleAdmin},
	ActionSetStatus:        {domain.RoleManager, domain.RoleAdmin},
	ActionApproveRequest:   {domain.RoleManager, domain.RoleAdmin},
	ActionDenyRequest:      {domain.RoleManager, domain.RoleAdmin},
	ActionContainEmergency: {domain.RoleManager, domain.RoleAdmin},
	ActionResolveEmergency: {domain.RoleManager, domain.RoleAdmin},
}

// Can reports whether the role may perform the action.
func Can(role domain.Role, action Action) bool {
	for _, allowed := range capabilities[action] {
		if allowed == role {
			return true
		}
	}
	return false
}
