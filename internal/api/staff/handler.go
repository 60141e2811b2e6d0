package staff

import (
	"errors"
	"log"
	"net/http"

	"tipbox-backend/internal/app/http/middleware"
	"tipbox-backend/internal/domain/staff"
	"tipbox-backend/internal/mail"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	mailer mail.Mailer
}

func NewHandler(db *gorm.DB, mailer mail.Mailer) *Handler {
	return &Handler{db: db, mailer: mailer}
}

// memberDoc is the wire shape the dashboard consumes.
type memberDoc struct {
	UID            string   `json:"uid"`
	Email          string   `json:"email"`
	DisplayName    string   `json:"displayName"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Role           string   `json:"role"`
	HotelUID       string   `json:"hotelUid"`
	Services       []string `json:"services"`
	LockedServices []string `json:"lockedServices"`
}

func toDoc(m *staff.Member) memberDoc {
	services := m.ServiceIDs()
	locked := m.LockedServiceIDs()
	if services == nil {
		services = []string{}
	}
	if locked == nil {
		locked = []string{}
	}
	return memberDoc{
		UID:            m.ID,
		Email:          m.Email,
		DisplayName:    m.DisplayName(),
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Role:           m.Role,
		HotelUID:       m.CompanyID,
		Services:       services,
		LockedServices: locked,
	}
}

// ListUsers returns all staff of a company.
func (h *Handler) ListUsers(c *gin.Context) {
	hotelUID := c.Query("hotelUid")
	if hotelUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hotelUid manquant"})
		return
	}
	if !middleware.RequireCompanyScope(c, hotelUID) {
		return
	}

	var members []staff.Member
	if err := h.db.Preload("Grants").Where("company_id = ?", hotelUID).Find(&members).Error; err != nil {
		log.Println("list staff error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	docs := make([]memberDoc, 0, len(members))
	for i := range members {
		docs = append(docs, toDoc(&members[i]))
	}
	c.JSON(http.StatusOK, docs)
}

// CreateUser provisions a staff account (or updates an existing one) and
// unions the requested service grants.
func (h *Handler) CreateUser(c *gin.Context) {
	var body struct {
		Email      string   `json:"email"`
		FirstName  string   `json:"firstName"`
		LastName   string   `json:"lastName"`
		Role       string   `json:"role"`
		HotelUID   string   `json:"hotelUid"`
		ServiceIDs []string `json:"serviceIds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" || body.Role == "" || body.HotelUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champs manquants"})
		return
	}
	if !middleware.RequireCompanyScope(c, body.HotelUID) {
		return
	}

	member, isNew, err := h.findOrProvision(body.Email, body.FirstName, body.LastName, body.Role, body.HotelUID)
	if err != nil {
		log.Println("create-user error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	updates := map[string]interface{}{"role": body.Role}
	if body.FirstName != "" {
		updates["first_name"] = body.FirstName
	}
	if body.LastName != "" {
		updates["last_name"] = body.LastName
	}
	if err := h.db.Model(&staff.Member{}).Where("id = ?", member.ID).Updates(updates).Error; err != nil {
		log.Println("create-user update error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if err := h.grantServices(member, body.ServiceIDs); err != nil {
		log.Println("create-user grants error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "uid": member.ID, "isNewUser": isNew})
}

// AddServiceUser grants one service, rejecting when the member already
// holds it.
func (h *Handler) AddServiceUser(c *gin.Context) {
	var body struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Role      string `json:"role"`
		ServiceID string `json:"serviceId"`
		HotelUID  string `json:"hotelUid"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" || body.Role == "" || body.ServiceID == "" || body.HotelUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tous les champs sont obligatoires"})
		return
	}
	if !middleware.RequireCompanyScope(c, body.HotelUID) {
		return
	}

	member, isNew, err := h.findOrProvision(body.Email, body.FirstName, body.LastName, body.Role, body.HotelUID)
	if err != nil {
		log.Println("add-service-user error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	for _, g := range member.Grants {
		if g.ServiceID == body.ServiceID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Utilisateur déjà assigné à ce service"})
			return
		}
	}

	if err := h.grantServices(member, []string{body.ServiceID}); err != nil {
		log.Println("add-service-user grant error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "uid": member.ID, "isNewUser": isNew})
}

// UpdateUserServices grants or revokes one service for a member.
func (h *Handler) UpdateUserServices(c *gin.Context) {
	var body struct {
		UID         string `json:"uid"`
		ServiceID   string `json:"serviceId"`
		GrantAccess bool   `json:"grantAccess"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.UID == "" || body.ServiceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid et serviceId obligatoires"})
		return
	}

	member, ok := h.loadScopedMember(c, body.UID)
	if !ok {
		return
	}

	var err error
	if body.GrantAccess {
		err = h.grantServices(member, []string{body.ServiceID})
	} else {
		err = h.revokeService(member.ID, body.ServiceID)
	}
	if err != nil {
		log.Println("update-user-services error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveServiceUser revokes one service.
func (h *Handler) RemoveServiceUser(c *gin.Context) {
	var body struct {
		UID       string `json:"uid"`
		ServiceID string `json:"serviceId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.UID == "" || body.ServiceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid et serviceId obligatoires"})
		return
	}

	member, ok := h.loadScopedMember(c, body.UID)
	if !ok {
		return
	}

	if err := h.revokeService(member.ID, body.ServiceID); err != nil {
		log.Println("remove-service-user error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LockServiceUser marks a grant as locked so it cannot be dropped from the
// dashboard.
func (h *Handler) LockServiceUser(c *gin.Context) {
	var body struct {
		UID       string `json:"uid"`
		ServiceID string `json:"serviceId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.UID == "" || body.ServiceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid et serviceId obligatoires"})
		return
	}

	member, ok := h.loadScopedMember(c, body.UID)
	if !ok {
		return
	}

	if err := h.db.Model(&staff.ServiceGrant{}).
		Where("member_id = ? AND service_id = ?", member.ID, body.ServiceID).
		Update("locked", true).Error; err != nil {
		log.Println("lock-service-user error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	var locked []string
	for _, g := range member.Grants {
		if g.Locked || g.ServiceID == body.ServiceID {
			locked = append(locked, g.ServiceID)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "lockedServices": locked})
}

func (h *Handler) loadScopedMember(c *gin.Context, uid string) (*staff.Member, bool) {
	var member staff.Member
	err := h.db.Preload("Grants").Where("id = ?", uid).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur non trouvé"})
		return nil, false
	}
	if err != nil {
		log.Println("load member error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return nil, false
	}
	if !middleware.RequireCompanyScope(c, member.CompanyID) {
		return nil, false
	}
	return &member, true
}
