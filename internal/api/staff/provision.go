package staff

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"

	"tipbox-backend/internal/domain/staff"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func generateTempPassword() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	for i, b := range bytes {
		bytes[i] = tempPasswordAlphabet[int(b)%len(tempPasswordAlphabet)]
	}
	return string(bytes)
}

// findOrProvision returns the member for (companyID, email), creating the
// account with a temporary password and sending the invitation when it does
// not exist yet.
func (h *Handler) findOrProvision(email, firstName, lastName, role, companyID string) (*staff.Member, bool, error) {
	var member staff.Member
	err := h.db.Preload("Grants").
		Where("company_id = ? AND email = ?", companyID, email).
		First(&member).Error
	if err == nil {
		return &member, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("load member: %w", err)
	}

	tempPassword := generateTempPassword()
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash temp password: %w", err)
	}
	hash := string(hashed)

	member = staff.Member{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		PasswordHash: &hash,
	}
	if err := h.db.Create(&member).Error; err != nil {
		return nil, false, fmt.Errorf("create member: %w", err)
	}

	if err := h.mailer.SendInvitation(email, tempPassword); err != nil {
		// The account exists either way; the invitation can be resent.
		log.Println("invitation email error:", err)
	}

	return &member, true, nil
}

// grantServices unions serviceIDs into the member's grants. Existing grants
// are untouched, so re-granting is a no-op.
func (h *Handler) grantServices(member *staff.Member, serviceIDs []string) error {
	existing := make(map[string]bool, len(member.Grants))
	for _, g := range member.Grants {
		existing[g.ServiceID] = true
	}
	for _, id := range serviceIDs {
		if id == "" || existing[id] {
			continue
		}
		grant := staff.ServiceGrant{MemberID: member.ID, ServiceID: id}
		if err := h.db.Create(&grant).Error; err != nil {
			return fmt.Errorf("grant service %s: %w", id, err)
		}
		member.Grants = append(member.Grants, grant)
		existing[id] = true
	}
	return nil
}

func (h *Handler) revokeService(memberID, serviceID string) error {
	return h.db.
		Where("member_id = ? AND service_id = ?", memberID, serviceID).
		Delete(&staff.ServiceGrant{}).Error
}
