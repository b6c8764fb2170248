package domain

// User is the identity profile the resolver reads. Profiles are owned by the
// identity collaborator, which pushes them into the ledger's local copy.
type User struct {
	UserID       int64  `json:"userID"`
	RoleKey      string `json:"roleKey"`
	ParentUserID *int64 `json:"parentUserID,omitempty"`
}

// IdentityKind classifies a role key for billing purposes.
type IdentityKind int

const (
	IdentityOther IdentityKind = iota
	IdentityPrimary
	IdentitySub
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityPrimary:
		return "primary"
	case IdentitySub:
		return "sub"
	default:
		return "other"
	}
}

// identityIndex is built once at package init and never mutated.
var identityIndex = map[string]IdentityKind{
	"main_account": IdentityPrimary,
	"enterprise":   IdentityPrimary,
	"sub_account":  IdentitySub,
	"team_member":  IdentitySub,
	"admin":        IdentityOther,
	"guest":        IdentityOther,
}

// IdentityKindForRole returns the billing classification of a role key.
// Unknown keys classify as IdentityOther.
func IdentityKindForRole(roleKey string) IdentityKind {
	return identityIndex[roleKey]
}
