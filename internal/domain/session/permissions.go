package session

import "github.com/example/ec-storefront/internal/domain/user"

type Permission string

const (
	ManageProducts   Permission = "manage_products"
	ManageCategories Permission = "manage_categories"
	ManageOrders     Permission = "manage_orders"
	ManageUsers      Permission = "manage_users"
	ManageReviews    Permission = "manage_reviews"
	ViewLogs         Permission = "view_logs"
	PlaceOrders      Permission = "place_orders"
	WriteReviews     Permission = "write_reviews"
	ViewOwnOrders    Permission = "view_own_orders"
)

var permissions = map[string]map[Permission]bool{
	user.RoleAdmin: {
		ManageProducts:   true,
		ManageCategories: true,
		ManageOrders:     true,
		ManageUsers:      true,
		ManageReviews:    true,
		ViewLogs:         true,
		PlaceOrders:      true,
		WriteReviews:     true,
		ViewOwnOrders:    true,
	},
	user.RoleCustomer: {
		PlaceOrders:   true,
		WriteReviews:  true,
		ViewOwnOrders: true,
	},
}
