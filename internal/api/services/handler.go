package services

import (
	"log"
	"net/http"
	"strings"

	"tipbox-backend/internal/app/http/middleware"
	"tipbox-backend/internal/domain/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateService adds a tip-collection point to a company.
func (h *Handler) CreateService(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
		UID  string `json:"uid"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" || body.UID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom et uid obligatoires"})
		return
	}
	if !middleware.RequireCompanyScope(c, body.UID) {
		return
	}

	service := services.Service{
		ID:        uuid.NewString(),
		CompanyID: body.UID,
		Name:      strings.TrimSpace(body.Name),
	}
	if err := h.db.Create(&service).Error; err != nil {
		log.Println("create service error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": service.ID, "name": service.Name, "uid": service.CompanyID})
}

// ListServices returns a company's services.
func (h *Handler) ListServices(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid manquant"})
		return
	}
	if !middleware.RequireCompanyScope(c, uid) {
		return
	}

	var list []services.Service
	if err := h.db.Where("company_id = ?", uid).Order("created_at ASC").Find(&list).Error; err != nil {
		log.Println("list services error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, list)
}
