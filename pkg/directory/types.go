package directory

import (
	"time"

	"github.com/caseward/caseward/pkg/authz"
)

// GlobalRole represents a platform-wide role, distinct from firm roles.
type GlobalRole string

const (
	GlobalRoleUser          GlobalRole = "user"
	GlobalRolePlatformAdmin GlobalRole = "platform_admin"
)

// Principal is a user identity as seen by the authorization core. The
// identity subsystem owns this data; the core reads it and never writes it.
type Principal struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	GlobalRole  GlobalRole `json:"global_role"`
	FirmID      string     `json:"firm_id,omitempty"` // empty when unaffiliated
	Independent bool       `json:"independent"`       // solo-practitioner capability
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Firm is the tenant boundary. A firm exists independently of any single
// principal.
type Firm struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Member links a principal to a firm with a role, a status, an optional
// per-member permission override, and the resource ids a departed member
// remains limited to.
type Member struct {
	FirmID              string              `json:"firm_id"`
	PrincipalID         string              `json:"principal_id"`
	Role                authz.Role          `json:"role"`
	Status              authz.MemberStatus  `json:"status"`
	Override            authz.PermissionSet `json:"override"`
	AssignedResourceIDs []string            `json:"assigned_resource_ids,omitempty"`
	JoinedAt            time.Time           `json:"joined_at"`
}
