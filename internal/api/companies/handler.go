package companies

import (
	"errors"
	"log"
	"net/http"
	"regexp"

	"tipbox-backend/internal/app/http/middleware"
	"tipbox-backend/internal/domain/companies"
	"tipbox-backend/internal/domain/plans"
	"tipbox-backend/internal/domain/staff"
	"tipbox-backend/internal/infra/insee"
	"tipbox-backend/internal/ledger"

	"github.com/gin-gonic/gin"
)

var siretPattern = regexp.MustCompile(`^\d{14}$`)

type Handler struct {
	store    *ledger.Store
	plans    *plans.Table
	verifier *insee.Client
}

func NewHandler(store *ledger.Store, table *plans.Table, verifier *insee.Client) *Handler {
	return &Handler{store: store, plans: table, verifier: verifier}
}

// RegisterCompany creates the tenant record for the authenticated director.
// The siret reservation is atomic: of two concurrent registrations with the
// same siret, exactly one wins.
func (h *Handler) RegisterCompany(c *gin.Context) {
	var body struct {
		HotelName    string `json:"hotelName" binding:"required"`
		HotelAddress string `json:"hotelAddress" binding:"required"`
		HotelPhone   string `json:"hotelPhone" binding:"required"`
		HotelType    string `json:"hotelType" binding:"required"`
		Siret        string `json:"siret" binding:"required"`
		Plan         string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champs manquants"})
		return
	}

	if !siretPattern.MatchString(body.Siret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "SIRET invalide"})
		return
	}

	plan, err := h.plans.Lookup(body.Plan)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	uid := c.GetString(middleware.CtxUID)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	if h.verifier != nil {
		if _, err := h.verifier.Verify(c.Request.Context(), body.Siret); err != nil {
			if errors.Is(err, insee.ErrSiretNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Entreprise non trouvée"})
				return
			}
			log.Println("INSEE verification error:", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SIRET verification unavailable"})
			return
		}
	}

	company := &companies.Company{
		ID:            uid,
		Name:          body.HotelName,
		Address:       body.HotelAddress,
		Phone:         body.HotelPhone,
		Type:          body.HotelType,
		Siret:         body.Siret,
		Plan:          plan.Name,
		PaymentStatus: companies.StatusUnpaid,
		OwnerUID:      uid,
	}

	if err := h.store.RegisterCompany(c.Request.Context(), company); err != nil {
		if errors.Is(err, ledger.ErrSiretAlreadyRegistered) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ce SIRET est déjà utilisé"})
			return
		}
		log.Println("register company error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Company registered successfully",
		"role":      staff.RoleDirector,
		"companyId": company.ID,
		"user": gin.H{
			"uid":   uid,
			"email": c.GetString(middleware.CtxEmail),
		},
	})
}
