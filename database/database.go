package database

import (
	"fmt"

	"tipbox-backend/internal/domain/companies"
	"tipbox-backend/internal/domain/services"
	"tipbox-backend/internal/domain/staff"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init opens the connection and migrates the domain models. TranslateError
// is on so unique-key conflicts surface as gorm.ErrDuplicatedKey, which the
// ledger relies on for the siret reservation.
func Init(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	fmt.Println("✅ Connected and migrated successfully")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&companies.Company{},
		&companies.SiretReservation{},
		&services.Service{},
		&staff.Member{},
		&staff.ServiceGrant{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
