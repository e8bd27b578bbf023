package repository

// Models lists every gorm model for schema migration.
func Models() []any {
	return []any{
		&tenantModel{},
		&memberModel{},
		&bookingModel{},
		&paymentModel{},
		&leadModel{},
	}
}
