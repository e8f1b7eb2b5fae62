package models

// All lists every persisted model in dependency order for migrations.
func All() []interface{} {
	return []interface{}{
		&Center{},
		&Role{},
		&Society{},
		&User{},
		&ActivityType{},
		&Activity{},
		&LoggedActivity{},
		&RedemptionRequest{},
		&AuditLog{},
	}
}
