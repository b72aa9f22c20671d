package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // MANAGER, COUNTER
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleManager = "MANAGER"
	RoleCounter = "COUNTER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleManager,
		Name:        "Back-of-House Manager",
		Description: "Full access: catalog, sessions, counts, users",
	},
	{
		Code:        RoleCounter,
		Name:        "Inventory Counter",
		Description: "Counting only: view catalog, run sessions, record counts, sync",
	},
}

// CounterPrivilegeCodes are the privileges granted to the COUNTER role.
var CounterPrivilegeCodes = []string{
	"catalog:view",
	"session:view",
	"session:create",
	"session:transition",
	"count:record",
	"sync:submit",
}
