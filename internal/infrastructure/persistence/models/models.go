package models

// AllModels returns every persistence model, in dependency order, for AutoMigrate
func AllModels() []any {
	return []any{
		&RoleModel{},
		&CourseModel{},
		&SyncCredentialModel{},
		&ComplianceEntityModel{},
		&ProjectModel{},
		&CostLineModel{},
		&CommissionTierModel{},
		&SwornStatementModel{},
	}
}
