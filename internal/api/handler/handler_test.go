package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserService struct {
	createFn func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	listFn   func(ctx context.Context) ([]domain.User, error)
	updateFn func(ctx context.Context, backendID string, p domain.UserPatch) (*domain.User, error)
	deleteFn func(ctx context.Context, id string) error
	exportFn func(ctx context.Context, w io.Writer) error
}

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}
func (s *stubUserService) List(ctx context.Context) ([]domain.User, error) { return s.listFn(ctx) }
func (s *stubUserService) Update(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	return s.updateFn(ctx, id, p)
}
func (s *stubUserService) Delete(ctx context.Context, id string) error { return s.deleteFn(ctx, id) }
func (s *stubUserService) Export(ctx context.Context, w io.Writer) error {
	return s.exportFn(ctx, w)
}

type stubOrderService struct {
	createFn       func(ctx context.Context, in ports.CreateOrderInput) (*ports.OrderResult, error)
	setStatusFn    func(ctx context.Context, in ports.SetStatusInput) (*domain.Order, error)
	listByDriverFn func(ctx context.Context, driverID string) ([]domain.Order, error)
	getFn          func(ctx context.Context, id string) (*domain.Order, error)
	listFn         func(ctx context.Context) ([]domain.Order, error)
}

func (s *stubOrderService) Create(ctx context.Context, in ports.CreateOrderInput) (*ports.OrderResult, error) {
	return s.createFn(ctx, in)
}
func (s *stubOrderService) SetStatus(ctx context.Context, in ports.SetStatusInput) (*domain.Order, error) {
	return s.setStatusFn(ctx, in)
}
func (s *stubOrderService) ListByDriver(ctx context.Context, id string) ([]domain.Order, error) {
	return s.listByDriverFn(ctx, id)
}
func (s *stubOrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.getFn(ctx, id)
}
func (s *stubOrderService) List(ctx context.Context) ([]domain.Order, error) { return s.listFn(ctx) }

type stubAdmin struct{ ok bool }

func (s stubAdmin) Validate(string, string) bool { return s.ok }

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestUserHandler_Create_Success(t *testing.T) {
	stub := &stubUserService{
		createFn: func(_ context.Context, in ports.CreateUserInput) (*domain.User, error) {
			if in.Name != "Ama" || in.Phone != "0244" || in.Role != "agent" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.Rating == nil || *in.Rating != 4.5 {
				t.Fatalf("rating not forwarded: %v", in.Rating)
			}
			return &domain.User{Name: in.Name, Phone: in.Phone, Role: in.Role, BackendID: "b_1"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/users", `{"name":"Ama","phone":"0244","role":"agent","rating":"4.5"}`)

	if err := NewUserHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		IsOk bool        `json:"isOk"`
		User domain.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.IsOk || resp.User.BackendID != "b_1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUserHandler_Create_InvalidPayload(t *testing.T) {
	stub := &stubUserService{
		createFn: func(context.Context, ports.CreateUserInput) (*domain.User, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	for _, body := range []string{`not-json`, `{"name":"Ama","role":"agent"}`, `{"name":"  ","phone":"0244","role":"agent"}`} {
		c, _ := newContext(http.MethodPost, "/users", body)
		if err := NewUserHandler(stub).Create(c); !errors.Is(err, domain.ErrInvalidPayload) {
			t.Errorf("%s: expected ErrInvalidPayload, got %v", body, err)
		}
	}
}

func TestUserHandler_Update_AcceptsLegacyKeyAndWhitelist(t *testing.T) {
	var gotID string
	var gotPatch domain.UserPatch
	stub := &stubUserService{
		updateFn: func(_ context.Context, id string, p domain.UserPatch) (*domain.User, error) {
			gotID, gotPatch = id, p
			return &domain.User{}, nil
		},
	}
	body := `{"__backendId":"b_7","updates":{"is_blocked":true,"role":"admin","rating":1}}`
	c, rec := newContext(http.MethodPost, "/users/update", body)

	if err := NewUserHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "b_7" {
		t.Errorf("expected legacy backend id, got %q", gotID)
	}
	if gotPatch.IsBlocked == nil || !*gotPatch.IsBlocked {
		t.Errorf("is_blocked not forwarded")
	}
	if gotPatch.Name != nil || gotPatch.Phone != nil || gotPatch.IsApproved != nil {
		t.Errorf("unexpected fields in patch: %+v", gotPatch)
	}
}

func TestUserHandler_Update_NotFoundPropagates(t *testing.T) {
	stub := &stubUserService{
		updateFn: func(context.Context, string, domain.UserPatch) (*domain.User, error) {
			return nil, domain.ErrNotFound
		},
	}
	c, _ := newContext(http.MethodPost, "/users/update", `{"backendId":"b_1","updates":{"name":"x"}}`)

	if err := NewUserHandler(stub).Update(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	var gotID string
	stub := &stubUserService{deleteFn: func(_ context.Context, id string) error { gotID = id; return nil }}
	c, rec := newContext(http.MethodDelete, "/users/user_1", "")
	c.SetParamNames("id")
	c.SetParamValues("user_1")

	if err := NewUserHandler(stub).Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || gotID != "user_1" {
		t.Fatalf("unexpected result: code=%d id=%q", rec.Code, gotID)
	}
}

func TestUserHandler_Export(t *testing.T) {
	stub := &stubUserService{
		exportFn: func(_ context.Context, w io.Writer) error {
			f := excelize.NewFile()
			defer f.Close()
			return f.Write(w)
		},
	}
	h := NewUserHandler(stub)
	h.now = func() time.Time { return time.Date(2026, 7, 9, 15, 0, 0, 0, time.UTC) }
	c, rec := newContext(http.MethodGet, "/users/export", "")

	if err := h.Export(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != xlsxMIME {
		t.Errorf("unexpected content type %q", got)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, "users_export_2026-07-09.xlsx") {
		t.Errorf("unexpected disposition %q", got)
	}
	if _, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Errorf("body is not a workbook: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func TestOrderHandler_Create_Success(t *testing.T) {
	stub := &stubOrderService{
		createFn: func(_ context.Context, in ports.CreateOrderInput) (*ports.OrderResult, error) {
			if in.Weight != 5 || in.Price != 20 || in.IdempotencyKey != "k1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.OrderResult{
				Order:       domain.Order{OrderID: "ORD-1-ABCDE", Status: domain.StatusPending},
				Provisional: true,
			}, nil
		},
	}
	body := `{"agent_id":"a1","goods_type":"food","weight":5,"price":"20","pickup_location":"X","drop_location":"Y"}`
	c, rec := newContext(http.MethodPost, "/orders", body)
	c.Request().Header.Set("Idempotency-Key", "k1")

	if err := NewOrderHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["isOk"] != true || resp["provisional"] != true {
		t.Fatalf("unexpected response: %+v", resp)
	}
	order := resp["order"].(map[string]any)
	if order["status"] != "pending" || order["driver_id"] != "" {
		t.Fatalf("unexpected order: %+v", order)
	}
}

func TestOrderHandler_Create_MissingWeight(t *testing.T) {
	stub := &stubOrderService{
		createFn: func(context.Context, ports.CreateOrderInput) (*ports.OrderResult, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	body := `{"agent_id":"a1","goods_type":"food","price":20,"pickup_location":"X","drop_location":"Y"}`
	c, _ := newContext(http.MethodPost, "/orders", body)

	if err := NewOrderHandler(stub).Create(c); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestOrderHandler_SetStatus(t *testing.T) {
	stub := &stubOrderService{
		setStatusFn: func(_ context.Context, in ports.SetStatusInput) (*domain.Order, error) {
			if in.OrderID != "ORD-1-ABCDE" || in.NewStatus != "accepted" || in.DriverID != "drv1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Order{OrderID: in.OrderID, Status: domain.StatusAccepted, DriverID: in.DriverID}, nil
		},
	}
	c, rec := newContext(http.MethodPut, "/orders/status", `{"order_id":"ORD-1-ABCDE","new_status":"accepted","driver_id":"drv1"}`)

	if err := NewOrderHandler(stub).SetStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.IsOk || resp.Message == "" || resp.Order.DriverID != "drv1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOrderHandler_SetStatus_Errors(t *testing.T) {
	for _, want := range []error{domain.ErrOrderNotFound, domain.ErrInvalidTransition} {
		stub := &stubOrderService{
			setStatusFn: func(context.Context, ports.SetStatusInput) (*domain.Order, error) { return nil, want },
		}
		c, _ := newContext(http.MethodPost, "/orders/status", `{"order_id":"ORD-1-ABCDE","new_status":"delivered"}`)
		if err := NewOrderHandler(stub).SetStatus(c); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	}
}

func TestOrderHandler_ListByDriver_MissingDriver(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/orders/by-driver", "")

	err := NewOrderHandler(&stubOrderService{}).ListByDriver(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest || he.Message != "missing driver_id" {
		t.Fatalf("expected 400 missing driver_id, got %v", err)
	}
}

func TestOrderHandler_ListByDriver(t *testing.T) {
	stub := &stubOrderService{
		listByDriverFn: func(_ context.Context, id string) ([]domain.Order, error) {
			return []domain.Order{{OrderID: "ORD-1-ABCDE", DriverID: id, Status: domain.StatusPicked}}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/orders/by-driver?driver_id=drv1", "")

	if err := NewOrderHandler(stub).ListByDriver(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var orders []domain.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &orders); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(orders) != 1 || orders[0].DriverID != "drv1" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

// ---------------------------------------------------------------------------
// Admin / health
// ---------------------------------------------------------------------------

func TestAdminHandler_Validate(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/admin/validate", `{"username":"root","password":"pw"}`)
	if err := NewAdminHandler(stubAdmin{ok: true}).Validate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newContext(http.MethodPost, "/admin/validate", `{"username":"root","password":"bad"}`)
	if err := NewAdminHandler(stubAdmin{}).Validate(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	c, _ = newContext(http.MethodPost, "/admin/validate", `{"username":"root"}`)
	if err := NewAdminHandler(stubAdmin{ok: true}).Validate(c); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	c, rec := newContext(http.MethodGet, "/health/ready", "")

	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Dependencies["store"].Status != "ok" || resp.Dependencies["redis"].Status != "unhealthy" {
		t.Fatalf("unexpected dependencies: %+v", resp.Dependencies)
	}
}
