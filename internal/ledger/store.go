package ledger

import (
	"context"
	"errors"
	"fmt"

	"tipbox-backend/internal/domain/companies"

	"gorm.io/gorm"
)

var (
	ErrCompanyNotFound        = errors.New("company not found")
	ErrSiretAlreadyRegistered = errors.New("siret already registered")
)

// Store is the tenant ledger: one row per company holding plan, payment
// status and processor ids. All billing state mutations go through here.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, companyID string) (*companies.Company, error) {
	var company companies.Company
	err := s.db.WithContext(ctx).Where("id = ?", companyID).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load company %s: %w", companyID, err)
	}
	return &company, nil
}

func (s *Store) FindBySubscription(ctx context.Context, subscriptionID string) (*companies.Company, error) {
	var company companies.Company
	err := s.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", subscriptionID).
		First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load company by subscription %s: %w", subscriptionID, err)
	}
	return &company, nil
}

func (s *Store) Create(ctx context.Context, company *companies.Company) error {
	if err := s.db.WithContext(ctx).Create(company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSiretAlreadyRegistered
		}
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

// Upsert applies fields to the company row with merge semantics: columns not
// named are untouched, and the row is created when absent. Re-applying the
// same fields is a no-op, which is what makes webhook redelivery safe.
func (s *Store) Upsert(ctx context.Context, companyID string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&companies.Company{}).Where("id = ?", companyID).Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("update company %s: %w", companyID, res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := tx.Create(&companies.Company{ID: companyID}).Error; err != nil {
			return fmt.Errorf("create company %s: %w", companyID, err)
		}
		if err := tx.Model(&companies.Company{}).Where("id = ?", companyID).Updates(fields).Error; err != nil {
			return fmt.Errorf("update company %s: %w", companyID, err)
		}
		return nil
	})
}

// RegisterCompany reserves the siret and creates the company row in one
// transaction, so a failed insert never leaves the siret claimed by a ghost.
func (s *Store) RegisterCompany(ctx context.Context, company *companies.Company) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&companies.SiretReservation{
			Siret:     company.Siret,
			CompanyID: company.ID,
		}).Error; err != nil {
			return err
		}
		return tx.Create(company).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSiretAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("register company: %w", err)
	}
	return nil
}

// ReserveSiret claims a siret for a company. The reservation is a single
// insert against the primary key, so two concurrent registrations with the
// same siret cannot both succeed; the loser gets ErrSiretAlreadyRegistered.
func (s *Store) ReserveSiret(ctx context.Context, siret, companyID string) error {
	err := s.db.WithContext(ctx).Create(&companies.SiretReservation{
		Siret:     siret,
		CompanyID: companyID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSiretAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("reserve siret: %w", err)
	}
	return nil
}
