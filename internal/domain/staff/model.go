package staff

import "time"

// Roles a staff account can hold within a company.
const (
	RoleDirector = "director"
	RoleManager  = "manager"
	RoleStaff    = "staff"
)

// Member is a provisioned staff account. The password hash only holds the
// bcrypt of the invitation's temporary password; the identity provider owns
// the credential once the member logs in and sets their own.
type Member struct {
	ID        string `gorm:"primaryKey" json:"uid"`
	CompanyID string `gorm:"not null;index:idx_staff_company_id;uniqueIndex:idx_staff_company_email" json:"hotelUid"`
	Email     string `gorm:"not null;uniqueIndex:idx_staff_company_email" json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `gorm:"not null" json:"role"`

	PasswordHash *string `gorm:"column:password_hash" json:"-"`

	Grants []ServiceGrant `gorm:"foreignKey:MemberID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ServiceGrant links a member to a service. Locked grants cannot be removed
// from the dashboard until unlocked by a director.
type ServiceGrant struct {
	MemberID  string `gorm:"primaryKey"`
	ServiceID string `gorm:"primaryKey"`
	Locked    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (m *Member) DisplayName() string {
	name := m.FirstName
	if m.LastName != "" {
		if name != "" {
			name += " "
		}
		name += m.LastName
	}
	return name
}

// ServiceIDs returns the granted service ids, locked ones included.
func (m *Member) ServiceIDs() []string {
	ids := make([]string, 0, len(m.Grants))
	for _, g := range m.Grants {
		ids = append(ids, g.ServiceID)
	}
	return ids
}

// LockedServiceIDs returns only the locked grants.
func (m *Member) LockedServiceIDs() []string {
	var ids []string
	for _, g := range m.Grants {
		if g.Locked {
			ids = append(ids, g.ServiceID)
		}
	}
	return ids
}
