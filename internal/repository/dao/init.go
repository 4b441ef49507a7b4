package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Game{},
		&Player{},
	)
}

// DropTables is used by integration tests to start from an empty schema.
func DropTables(db *gorm.DB) error {
	return db.Migrator().DropTable(&Player{}, &Game{}, &User{})
}
