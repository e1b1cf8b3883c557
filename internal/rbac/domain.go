package rbac

import "github.com/google/uuid"

// Permission codes known to the application.
const (
	PermManageUsers    = "MANAGE_USERS"
	PermManageRoles    = "MANAGE_ROLES"
	PermManageProducts = "MANAGE_PRODUCTS"
	PermViewProducts   = "VIEW_PRODUCTS"
	PermCreateSale     = "CREATE_SALE"
	PermViewSales      = "VIEW_SALES"
	PermDeleteSale     = "DELETE_SALE"
	PermCreatePurchase = "CREATE_PURCHASE"
	PermViewPurchases  = "VIEW_PURCHASES"
)

// Role names known to the application.
const (
	RoleSuperUser  = "SUPER_USER"
	RoleAdmin      = "ADMIN"
	RoleNormalUser = "NORMAL_USER"
	RoleCashier    = "CASHIER"
)

// Role represents a named grouping of permissions.
type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
}

// Permission represents an atomic capability.
type Permission struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
}

// Catalogue lists every permission code with its description, in display order.
var Catalogue = []Permission{
	{Code: PermManageUsers, Description: "Create users, change their roles and activation"},
	{Code: PermManageRoles, Description: "Change which permissions a role grants"},
	{Code: PermManageProducts, Description: "Create, update and delete products"},
	{Code: PermViewProducts, Description: "Browse the product catalogue"},
	{Code: PermCreateSale, Description: "Record sales"},
	{Code: PermViewSales, Description: "Browse recorded sales"},
	{Code: PermDeleteSale, Description: "Delete sales and restore stock"},
	{Code: PermCreatePurchase, Description: "Record purchases"},
	{Code: PermViewPurchases, Description: "Browse recorded purchases"},
}

// IsKnownPermission reports whether code is part of the catalogue.
func IsKnownPermission(code string) bool {
	for _, p := range Catalogue {
		if p.Code == code {
			return true
		}
	}
	return false
}

// HasSuperRole reports whether roles contains the super-role. Holders of the
// super-role pass every permission check.
func HasSuperRole(roles []string) bool {
	for _, r := range roles {
		if r == RoleSuperUser {
			return true
		}
	}
	return false
}
