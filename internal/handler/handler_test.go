package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oponmeta/service-checkout/internal/application"
	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/money"
	"github.com/oponmeta/service-checkout/internal/platform/middleware"
	"github.com/oponmeta/service-checkout/internal/platform/response"
)

const testAdminToken = "s3cret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router   *gin.Engine
	cart     *mockCartService
	checkout *mockCheckoutService
	coupons  *mockCouponService
	catalog  *mockCatalogService
}

func newTestAPI() *testAPI {
	api := &testAPI{
		router:   gin.New(),
		cart:     new(mockCartService),
		checkout: new(mockCheckoutService),
		coupons:  new(mockCouponService),
		catalog:  new(mockCatalogService),
	}
	v1 := api.router.Group("/api/v1")
	NewCartHandler(api.cart).RegisterRoutes(v1)
	NewCheckoutHandler(api.checkout).RegisterRoutes(v1)
	NewCouponHandler(api.coupons).RegisterRoutes(v1)
	NewAdminHandler(api.coupons, api.catalog).RegisterRoutes(v1, testAdminToken)
	return api
}

func (api *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	var env response.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

var session = map[string]string{middleware.SessionHeader: "sess-1"}

func TestCartRoutesRequireSession(t *testing.T) {
	api := newTestAPI()

	w, env := api.do(t, http.MethodGet, "/api/v1/cart", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	api.cart.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
}

func TestAddItem(t *testing.T) {
	api := newTestAPI()
	req := application.AddItemRequest{ProductID: "py-100", Region: "NG"}
	api.cart.On("AddItem", mock.Anything, "sess-1", req).Return(&application.CartDTO{
		SessionID: "sess-1",
		Lines: []application.LineDTO{{
			ProductID:      "py-100",
			Quantity:       1,
			FinalUnitPrice: money.MustParse("70.00", "USD"),
		}},
		Version: 1,
	}, nil)

	w, env := api.do(t, http.MethodPost, "/api/v1/cart/items", req, session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	api.cart.AssertExpectations(t)
}

func TestAddItem_MissingProduct(t *testing.T) {
	api := newTestAPI()

	w, _ := api.do(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"region": "NG"}, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddItem_UnknownCourse(t *testing.T) {
	api := newTestAPI()
	api.cart.On("AddItem", mock.Anything, "sess-1", mock.Anything).
		Return(nil, domain.NewNotFoundError("Course", "nope"))

	w, env := api.do(t, http.MethodPost, "/api/v1/cart/items", application.AddItemRequest{ProductID: "nope"}, session)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestUpdateQuantity(t *testing.T) {
	api := newTestAPI()
	api.cart.On("UpdateQuantity", mock.Anything, "sess-1", "py-100", 0).Return(&application.CartDTO{SessionID: "sess-1"}, nil)

	w, _ := api.do(t, http.MethodPatch, "/api/v1/cart/items/py-100", map[string]int{"quantity": 0}, session)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(t, http.MethodPatch, "/api/v1/cart/items/py-100", map[string]string{}, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	api.cart.AssertNumberOfCalls(t, "UpdateQuantity", 1)
}

func TestApplyCoupon_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown", domain.NewCouponNotFoundError("GHOST"), http.StatusNotFound, "COUPON_NOT_FOUND"},
		{"expired", domain.NewCouponExpiredOrInactiveError("OLD"), http.StatusUnprocessableEntity, "COUPON_EXPIRED_OR_INACTIVE"},
		{"race", domain.NewConflictError("retry"), http.StatusConflict, "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI()
			api.cart.On("ApplyCoupon", mock.Anything, "sess-1", mock.Anything).Return(nil, tt.err)

			w, env := api.do(t, http.MethodPost, "/api/v1/cart/coupon", application.ApplyCouponRequest{Code: "X"}, session)
			assert.Equal(t, tt.wantStatus, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestSummaryAndClear(t *testing.T) {
	api := newTestAPI()
	api.cart.On("Summary", mock.Anything, "sess-1").Return(&application.SummaryDTO{Gateway: "stripe"}, nil)
	api.cart.On("ClearCart", mock.Anything, "sess-1").Return(nil)
	api.cart.On("RemoveCoupon", mock.Anything, "sess-1").Return(&application.CartDTO{}, nil)
	api.cart.On("RemoveItem", mock.Anything, "sess-1", "py-100").Return(&application.CartDTO{}, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/cart/summary"},
		{http.MethodDelete, "/api/v1/cart"},
		{http.MethodDelete, "/api/v1/cart/coupon"},
		{http.MethodDelete, "/api/v1/cart/items/py-100"},
	} {
		w, env := api.do(t, tc.method, tc.path, nil, session)
		assert.Equal(t, http.StatusOK, w.Code, tc.path)
		assert.True(t, env.Success, tc.path)
	}
	api.cart.AssertExpectations(t)
}

func TestCheckout(t *testing.T) {
	api := newTestAPI()
	req := application.CheckoutRequest{Email: "buyer@example.com"}
	api.checkout.On("Checkout", mock.Anything, "sess-1", req).Return(&application.CheckoutResultDTO{
		PaymentID: uuid.New(), Status: "failed", FailureReason: "charge_gateway: card declined",
	}, nil)

	w, env := api.do(t, http.MethodPost, "/api/v1/checkout", req, session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, _ = api.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{"email": "not-an-email"}, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckout_EmptyCart(t *testing.T) {
	api := newTestAPI()
	api.checkout.On("Checkout", mock.Anything, "sess-1", mock.Anything).
		Return(nil, domain.NewValidationError("cart is empty"))

	w, _ := api.do(t, http.MethodPost, "/api/v1/checkout", application.CheckoutRequest{Email: "a@b.co"}, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPayment(t *testing.T) {
	api := newTestAPI()
	id := uuid.New()
	api.checkout.On("GetPayment", mock.Anything, id).Return(&application.PaymentDTO{ID: id, Status: "succeeded"}, nil)

	w, _ := api.do(t, http.MethodGet, "/api/v1/payments/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(t, http.MethodGet, "/api/v1/payments/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCouponRoutes(t *testing.T) {
	api := newTestAPI()
	api.coupons.On("ValidateCoupon", mock.Anything, mock.Anything).Return(&application.CouponValidationDTO{Valid: false, Code: "X"}, nil)
	api.coupons.On("ListActive", mock.Anything).Return([]*application.CouponDTO{{Code: "A"}}, nil)

	w, _ := api.do(t, http.MethodPost, "/api/v1/coupons/validate", map[string]any{"code": "x", "amount": "10.00", "currency": "USD"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(t, http.MethodGet, "/api/v1/coupons/active", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI()
	admin := map[string]string{middleware.AdminTokenHeader: testAdminToken}
	api.coupons.On("Deactivate", mock.Anything, "OLD").Return(&application.CouponDTO{Code: "OLD"}, nil)
	api.catalog.On("DeleteCourse", mock.Anything, "py-100").Return(nil)

	w, _ := api.do(t, http.MethodPost, "/api/v1/admin/coupons/OLD/deactivate", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(t, http.MethodPost, "/api/v1/admin/coupons/OLD/deactivate", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(t, http.MethodDelete, "/api/v1/admin/courses/py-100", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(t, http.MethodPost, "/api/v1/admin/coupons", map[string]any{"code": "NEW"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	api.coupons.AssertNotCalled(t, "CreateCoupon", mock.Anything, mock.Anything)
}
