package models

import "time"

// User is a registered marketplace user.
type User struct {
	CreatedAt time.Time `json:"createdAt,omitzero"`
	ID        ObjectID  `json:"_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	Role      string    `json:"role,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// Purchase records one user buying one model.
type Purchase struct {
	PurchasedAt time.Time `json:"purchasedAt"`
	ID          ObjectID  `json:"_id,omitempty"`
	ModelID     string    `json:"modelId"`
	ModelName   string    `json:"modelName"`
	BuyerEmail  string    `json:"buyerEmail"`
	BuyerName   string    `json:"buyerName"`
	Price       float64   `json:"price"`
}

// AdminStats is the site-wide summary served to administrators.
type AdminStats struct {
	TotalUsers     int     `json:"totalUsers"`
	TotalModels    int     `json:"totalModels"`
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalPurchases int     `json:"totalPurchases"`
}

// AdminReport bundles the admin stats with the user list.
type AdminReport struct {
	Users []User
	Stats AdminStats
}
