package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&DocumentVersion{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&CurrentPointer{}); err != nil {
		return err
	}

	return nil
}
