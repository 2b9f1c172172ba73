package rbac

type Role string
type Action string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleStaff   Role = "Staff"
	RoleClient  Role = "Client"
	RoleViewer  Role = "Viewer"
)

const (
	ActionRead    Action = "read"
	ActionComment Action = "comment"
	ActionReview  Action = "review"
	ActionManage  Action = "manage"
	ActionAdmin   Action = "admin"
)

// Can reports whether a role may perform an action. Client users can read
// and comment, but only on their own records — that scoping happens in the
// visibility filter, not here.
func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action == ActionRead || action == ActionComment || action == ActionReview || action == ActionManage
	case RoleStaff:
		return action == ActionRead || action == ActionComment || action == ActionReview || action == ActionManage
	case RoleClient:
		return action == ActionRead || action == ActionComment
	case RoleViewer:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleAdmin, RoleManager, RoleStaff, RoleClient, RoleViewer:
		return Role(role)
	default:
		return RoleViewer
	}
}

func All() []Role {
	return []Role{RoleAdmin, RoleManager, RoleStaff, RoleClient, RoleViewer}
}
