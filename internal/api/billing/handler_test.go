package billing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tipbox-backend/database"
	"tipbox-backend/internal/app/http/middleware"
	"tipbox-backend/internal/domain/plans"
	"tipbox-backend/internal/infra/stripegateway"
	"tipbox-backend/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeGateway struct {
	subCalls  []map[string]string
	acctCalls []string // idempotency keys
	linkCalls []string // account ids
	acctID    string
	subErr    error
}

func (f *fakeGateway) CreateTipCheckout(context.Context, stripegateway.TipCheckout) (string, error) {
	return "", nil
}

func (f *fakeGateway) CreateSubscriptionCheckout(_ context.Context, priceID string, metadata map[string]string) (string, error) {
	md := map[string]string{"priceId": priceID}
	for k, v := range metadata {
		md[k] = v
	}
	f.subCalls = append(f.subCalls, md)
	if f.subErr != nil {
		return "", f.subErr
	}
	return "https://checkout.stripe.com/subscribe/cs_test", nil
}

func (f *fakeGateway) RetrieveSubscription(context.Context, string) (*stripegateway.SubscriptionSnapshot, error) {
	return nil, nil
}

func (f *fakeGateway) CreateConnectedAccount(_ context.Context, _, idempotencyKey string, _ map[string]string) (string, error) {
	f.acctCalls = append(f.acctCalls, idempotencyKey)
	if f.acctID == "" {
		f.acctID = "acct_test"
	}
	return f.acctID, nil
}

func (f *fakeGateway) CreateAccountOnboardingLink(_ context.Context, accountID string) (string, error) {
	f.linkCalls = append(f.linkCalls, accountID)
	return "https://connect.stripe.com/setup/" + accountID, nil
}

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

func asDirector(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUID, uid)
		c.Set(middleware.CtxEmail, uid+"@example.com")
		c.Set(middleware.CtxRole, "director")
		c.Next()
	}
}

func newBillingRouter(gw *fakeGateway, store *ledger.Store, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	table := plans.NewTable("price_starter", "price_standard", "price_premium")
	h := NewHandler(gw, store, table)

	r := gin.New()
	r.Use(asDirector(uid))
	r.POST("/create-subscription-session", h.CreateSubscriptionSession)
	r.POST("/create-connected-account", h.CreateConnectedAccount)
	return r
}

func post(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSubscriptionSessionUnknownPlan(t *testing.T) {
	gw := &fakeGateway{}
	r := newBillingRouter(gw, openTestStore(t), "T1")

	w := post(t, r, "/create-subscription-session", `{"plan":"Gold"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, gw.subCalls, "unknown plan must not reach the gateway")
}

func TestCreateSubscriptionSessionAttachesMetadata(t *testing.T) {
	gw := &fakeGateway{}
	r := newBillingRouter(gw, openTestStore(t), "T1")

	w := post(t, r, "/create-subscription-session", `{"plan":"Premium"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	if len(gw.subCalls) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(gw.subCalls))
	}
	call := gw.subCalls[0]
	assert.Equal(t, "price_premium", call["priceId"])
	// Metadata is the only channel correlating the webhook back to a tenant.
	assert.Equal(t, "T1", call["companyId"])
	assert.Equal(t, "Premium", call["plan"])
}

func TestCreateConnectedAccountFlow(t *testing.T) {
	gw := &fakeGateway{}
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "T1", map[string]interface{}{"plan": "Starter"}); err != nil {
		t.Fatalf("seed company: %v", err)
	}

	r := newBillingRouter(gw, store, "T1")
	w := post(t, r, "/create-connected-account", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://connect.stripe.com/setup/acct_test")

	company, err := store.Get(ctx, "T1")
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	if company.StripeAccountID == nil || *company.StripeAccountID != "acct_test" {
		t.Fatalf("account id not persisted: %+v", company.StripeAccountID)
	}
	if company.StripeAccountSetupKey == nil || *company.StripeAccountSetupKey == "" {
		t.Fatal("setup key not persisted before account creation")
	}
	assert.Equal(t, []string{*company.StripeAccountSetupKey}, gw.acctCalls,
		"stored setup key must be the idempotency key sent to the processor")
}

func TestCreateConnectedAccountReusesExisting(t *testing.T) {
	gw := &fakeGateway{}
	store := openTestStore(t)
	r := newBillingRouter(gw, store, "T1")

	if err := store.Upsert(context.Background(), "T1", map[string]interface{}{
		"stripe_account_id": "acct_existing",
	}); err != nil {
		t.Fatalf("seed company: %v", err)
	}

	w := post(t, r, "/create-connected-account", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, gw.acctCalls, "must not create a second account")
	assert.Equal(t, []string{"acct_existing"}, gw.linkCalls)
}

func TestCreateConnectedAccountUnregistered(t *testing.T) {
	gw := &fakeGateway{}
	r := newBillingRouter(gw, openTestStore(t), "T1")

	w := post(t, r, "/create-connected-account", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, gw.acctCalls)
}
