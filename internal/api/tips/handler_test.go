package tips

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tipbox-backend/internal/infra/stripegateway"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeGateway struct {
	tipCalls []stripegateway.TipCheckout
	err      error
}

func (f *fakeGateway) CreateTipCheckout(_ context.Context, in stripegateway.TipCheckout) (string, error) {
	f.tipCalls = append(f.tipCalls, in)
	if f.err != nil {
		return "", f.err
	}
	return "https://checkout.stripe.com/pay/cs_test", nil
}

func (f *fakeGateway) CreateSubscriptionCheckout(context.Context, string, map[string]string) (string, error) {
	return "", nil
}

func (f *fakeGateway) RetrieveSubscription(context.Context, string) (*stripegateway.SubscriptionSnapshot, error) {
	return nil, nil
}

func (f *fakeGateway) CreateConnectedAccount(context.Context, string, string, map[string]string) (string, error) {
	return "", nil
}

func (f *fakeGateway) CreateAccountOnboardingLink(context.Context, string) (string, error) {
	return "", nil
}

func newTipRouter(gw *fakeGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/create-checkout-session", NewHandler(gw).CreateCheckoutSession)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "amount below minimum", body: `{"amount":49,"service":"Bar"}`, wantStatus: 400},
		{name: "amount zero", body: `{"amount":0,"service":"Bar"}`, wantStatus: 400},
		{name: "amount negative", body: `{"amount":-500,"service":"Bar"}`, wantStatus: 400},
		{name: "amount non-numeric", body: `{"amount":"abc","service":"Bar"}`, wantStatus: 400},
		{name: "missing service", body: `{"amount":500}`, wantStatus: 400},
		{name: "blank service", body: `{"amount":500,"service":"   "}`, wantStatus: 400},
		{name: "amount above maximum", body: `{"amount":100001,"service":"Bar"}`, wantStatus: 400},
		{name: "amount absurdly large", body: `{"amount":1e30,"service":"Bar"}`, wantStatus: 400},
		{name: "minimum accepted", body: `{"amount":50,"service":"Bar"}`, wantStatus: 200},
		{name: "maximum accepted", body: `{"amount":100000,"service":"Bar"}`, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			w := postJSON(t, newTipRouter(gw), "/create-checkout-session", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Empty(t, gw.tipCalls, "gateway must not be called on validation failure")
			} else {
				assert.Len(t, gw.tipCalls, 1)
			}
		})
	}
}

func TestCreateCheckoutSessionEndToEnd(t *testing.T) {
	gw := &fakeGateway{}
	w := postJSON(t, newTipRouter(gw), "/create-checkout-session",
		`{"amount":500,"message":"  Merci!  ","service":"Bar","uid":"T1"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test", resp.URL)

	if len(gw.tipCalls) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(gw.tipCalls))
	}
	call := gw.tipCalls[0]
	assert.Equal(t, int64(500), call.AmountMinorUnits)
	assert.Equal(t, "Bar", call.ServiceName)
	assert.Equal(t, "Merci!", call.Message)
	assert.Equal(t, "Bar", call.Metadata["service"])
	assert.Equal(t, "Merci!", call.Metadata["message"])
	assert.Equal(t, "T1", call.Metadata["uid"])
}

func TestCreateCheckoutSessionOmitsEmptyMessage(t *testing.T) {
	for _, body := range []string{
		`{"amount":500,"service":"Bar"}`,
		`{"amount":500,"service":"Bar","message":"   "}`,
	} {
		gw := &fakeGateway{}
		w := postJSON(t, newTipRouter(gw), "/create-checkout-session", body)
		assert.Equal(t, http.StatusOK, w.Code)

		call := gw.tipCalls[0]
		assert.Empty(t, call.Message, "empty message must be omitted, not sent blank")
		_, present := call.Metadata["message"]
		assert.False(t, present, "metadata must not carry an empty message")
	}
}

func TestCreateCheckoutSessionCapsMessage(t *testing.T) {
	gw := &fakeGateway{}
	long := strings.Repeat("a", 500)
	w := postJSON(t, newTipRouter(gw), "/create-checkout-session",
		`{"amount":500,"service":"Bar","message":"`+long+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, gw.tipCalls[0].Message, maxMessageRunes)
}

func TestCreateCheckoutSessionRoundsAmount(t *testing.T) {
	gw := &fakeGateway{}
	w := postJSON(t, newTipRouter(gw), "/create-checkout-session",
		`{"amount":500.4,"service":"Bar"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(500), gw.tipCalls[0].AmountMinorUnits)
}

func TestCreateCheckoutSessionGatewayFailure(t *testing.T) {
	gw := &fakeGateway{err: stripegateway.ErrUnavailable}
	w := postJSON(t, newTipRouter(gw), "/create-checkout-session",
		`{"amount":500,"service":"Bar"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// The raw processor error must not leak to the client.
	assert.NotContains(t, w.Body.String(), "unavailable")
}
