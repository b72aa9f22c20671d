package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "count:record"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Record Count"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: "user:view", Name: "View User"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:update_privilege", Name: "Update User Privileges"},
	// Catalog management (items, locations, container types)
	{Code: "catalog:view", Name: "View Catalog"},
	{Code: "catalog:manage", Name: "Manage Catalog"},
	// Counting sessions
	{Code: "session:view", Name: "View Count Session"},
	{Code: "session:create", Name: "Create Count Session"},
	{Code: "session:transition", Name: "Pause/Resume/Commit Count Session"},
	// Count submission
	{Code: "count:record", Name: "Record Count"},
	// Offline sync
	{Code: "sync:submit", Name: "Submit Offline Sync Batch"},
}
