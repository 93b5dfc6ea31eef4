package domain

const (
	RoleOwner    = "owner"
	RoleCustomer = "customer"
)

// Principal là danh tính của người gọi, được resolve từ JWT.
// Mọi thao tác trên dữ liệu tenant đều nhận Principal tường minh,
// không bao giờ dựa vào session state toàn cục.
type Principal struct {
	ID   int
	Role string
}

func (p Principal) IsZero() bool {
	return p.ID == 0
}

func (p Principal) IsOwner() bool {
	return p.Role == RoleOwner
}

func (p Principal) IsCustomer() bool {
	return p.Role == RoleCustomer
}
