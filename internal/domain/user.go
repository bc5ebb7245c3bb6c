package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	Email     string `db:"email"`
	Hash      string `db:"password_hash"`
	AvatarURL string `db:"avatar_url"`
	Phone     string `db:"phone"`
	Role      string `db:"role"`
	Active    bool   `db:"is_active"`
	CreatedAt string `db:"created_at"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

type Address struct {
	ID            int64  `db:"id" json:"id"`
	UserID        int64  `db:"user_id" json:"-"`
	RecipientName string `db:"recipient_name" json:"recipient_name"`
	Phone         string `db:"phone" json:"phone"`
	Province      string `db:"province" json:"province"`
	City          string `db:"city" json:"city"`
	District      string `db:"district" json:"district"`
	DetailAddress string `db:"detail_address" json:"detail_address"`
	IsDefault     bool   `db:"is_default" json:"is_default"`
	CreatedAt     string `db:"created_at" json:"created_at"`
}

// Snapshot copies the address into the immutable form stored on an order.
func (a Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Province:      a.Province,
		City:          a.City,
		District:      a.District,
		DetailAddress: a.DetailAddress,
	}
}
