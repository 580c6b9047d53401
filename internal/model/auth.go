package model

// Role is the caller's role within a shop, carried in the access token.
type Role string

const (
	RoleClient  Role = "client"
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleOwner   Role = "owner"
)

var roleRank = map[Role]int{
	RoleClient:  1,
	RoleStaff:   2,
	RoleManager: 3,
	RoleOwner:   4,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above min (client < staff < manager < owner).
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && roleRank[r] >= roleRank[min]
}
