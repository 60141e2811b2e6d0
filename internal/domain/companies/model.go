package companies

import "time"

// Company is the per-tenant billing record. The ID is the identity-provider
// uid of the director who registered it, so a bearer token maps directly to
// its company row.
type Company struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Name    string `json:"hotelName"`
	Address string `json:"hotelAddress"`
	Phone   string `json:"hotelPhone"`
	Type    string `json:"hotelType"`

	// Uniqueness is partial: rows seeded by the webhook reconciler before
	// registration carry an empty siret and must not collide with each other.
	Siret string `gorm:"not null;uniqueIndex:idx_companies_siret,where:siret <> ''" json:"siret"`

	Plan          string `json:"plan"`
	PaymentStatus string `gorm:"not null;default:'unpaid'" json:"paymentStatus"`

	StripeSubscriptionID *string `gorm:"column:stripe_subscription_id;uniqueIndex:idx_companies_stripe_subscription_id" json:"-"`
	StripeAccountID      *string `gorm:"column:stripe_account_id" json:"-"`

	// Written before the connected account is created remotely; reused as the
	// Stripe idempotency key so a crash between account creation and the
	// account-id write replays the same account instead of minting a new one.
	StripeAccountSetupKey *string `gorm:"column:stripe_account_setup_key" json:"-"`

	OwnerUID string `gorm:"column:owner_uid" json:"ownerUid"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SiretReservation enforces one company per legal business id. Rows are only
// ever inserted; the primary key makes the insert the atomic check-and-set.
type SiretReservation struct {
	Siret     string    `gorm:"primaryKey"`
	CompanyID string    `gorm:"not null"`
	CreatedAt time.Time
}

// Payment statuses stored on Company.PaymentStatus.
const (
	StatusUnpaid   = "unpaid"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)
