package models

// ModelsToAutoMigrate lists every model for schema migration, used by tests
// and local setups. Production deployments own the canonical schema.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Transfer{},
		&File{},
		&FileFormatVersion{},
	}
}
