package companies

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tipbox-backend/database"
	"tipbox-backend/internal/app/http/middleware"
	domain "tipbox-backend/internal/domain/companies"
	"tipbox-backend/internal/domain/plans"
	"tipbox-backend/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestStore(t *testing.T) *ledger.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return ledger.NewStore(db)
}

func newRegisterRouter(store *ledger.Store, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	table := plans.NewTable("price_starter", "price_standard", "price_premium")
	h := NewHandler(store, table, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.CtxUID, uid)
		c.Set(middleware.CtxEmail, uid+"@example.com")
		c.Set(middleware.CtxRole, "director")
		c.Next()
	})
	r.POST("/register-company", h.RegisterCompany)
	return r
}

func postRegister(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/register-company", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody(siret string) string {
	return fmt.Sprintf(`{
		"hotelName": "Hôtel du Lac",
		"hotelAddress": "1 rue de la Paix, Paris",
		"hotelPhone": "+33123456789",
		"hotelType": "hotel",
		"siret": %q,
		"plan": "Standard"
	}`, siret)
}

func TestRegisterCompanyValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing fields",
			body:    `{"hotelName": "Hôtel du Lac"}`,
			wantErr: "Champs manquants",
		},
		{
			name:    "siret too short",
			body:    validBody("1234567890123"),
			wantErr: "SIRET invalide",
		},
		{
			name:    "siret with letters",
			body:    validBody("1234567890123A"),
			wantErr: "SIRET invalide",
		},
		{
			name:    "unknown plan",
			body:    strings.Replace(validBody("12345678901234"), "Standard", "Diamond", 1),
			wantErr: "Unknown plan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegisterRouter(openTestStore(t), "director-1")
			w := postRegister(t, r, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantErr)
		})
	}
}

func TestRegisterCompanySuccess(t *testing.T) {
	store := openTestStore(t)
	r := newRegisterRouter(store, "director-1")

	w := postRegister(t, r, validBody("12345678901234"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"director"`)
	assert.Contains(t, w.Body.String(), `"companyId":"director-1"`)

	company, err := store.Get(context.Background(), "director-1")
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	assert.Equal(t, "Hôtel du Lac", company.Name)
	assert.Equal(t, "12345678901234", company.Siret)
	assert.Equal(t, "Standard", company.Plan)
	assert.Equal(t, domain.StatusUnpaid, company.PaymentStatus)
	assert.Equal(t, "director-1", company.OwnerUID)
}

func TestRegisterCompanyDuplicateSiret(t *testing.T) {
	store := openTestStore(t)

	first := newRegisterRouter(store, "director-1")
	w := postRegister(t, first, validBody("12345678901234"))
	assert.Equal(t, http.StatusOK, w.Code)

	second := newRegisterRouter(store, "director-2")
	w = postRegister(t, second, validBody("12345678901234"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Ce SIRET est déjà utilisé")

	// The loser left no tenant behind.
	_, err := store.Get(context.Background(), "director-2")
	assert.ErrorIs(t, err, ledger.ErrCompanyNotFound)
}
