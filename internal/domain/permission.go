package domain

// Permission is a closed enumeration of the actions a role can grant.
// The string codes match what is stored in the roles table, so unknown
// codes loaded from storage simply never match any constant.
type Permission string

const (
	PermCheckout       Permission = "circulation.checkout"
	PermCheckin        Permission = "circulation.checkin"
	PermRenew          Permission = "circulation.renew"
	PermLoansView      Permission = "loans.view"
	PermFeesCollect    Permission = "fees.collect"
	PermReportsView    Permission = "reports.view"
	PermUsersManage    Permission = "users.manage"
	PermBooksManage    Permission = "books.manage"
	PermSettingsManage Permission = "settings.manage"
)

type Role struct {
	ID          int32        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

func (r Role) HasPermission(p Permission) bool {
	for _, have := range r.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the role holds at least one of the
// given permissions.
func (r Role) HasAnyPermission(ps ...Permission) bool {
	for _, p := range ps {
		if r.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the role holds every one of the
// given permissions.
func (r Role) HasAllPermissions(ps ...Permission) bool {
	for _, p := range ps {
		if !r.HasPermission(p) {
			return false
		}
	}
	return true
}
