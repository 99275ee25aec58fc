package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/routedesk/logistics-api/internal/core/domain"
	"github.com/routedesk/logistics-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubOrderRepo struct {
	orders    []domain.Order
	createErr error
	listErr   error
	calls     int
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.calls++
	if r.createErr != nil {
		return r.createErr
	}
	r.orders = append(r.orders, *o)
	return nil
}

func (r *stubOrderRepo) List(_ context.Context) ([]domain.Order, error) {
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.Order, len(r.orders))
	copy(out, r.orders)
	return out, nil
}

func (r *stubOrderRepo) Get(_ context.Context, id string) (*domain.Order, error) {
	r.calls++
	for _, o := range r.orders {
		if o.OrderID == id {
			return &o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

// Update mirrors the repository: only status and driver survive the mutation.
func (r *stubOrderRepo) Update(_ context.Context, id string, mutate ports.OrderMutation) (*domain.Order, error) {
	r.calls++
	for i := range r.orders {
		if r.orders[i].OrderID != id {
			continue
		}
		o := r.orders[i]
		if err := mutate(&o); err != nil {
			return nil, err
		}
		r.orders[i].Status = o.Status
		r.orders[i].DriverID = o.DriverID
		out := r.orders[i]
		return &out, nil
	}
	return nil, domain.ErrOrderNotFound
}

// stubIdempotency claims keys the way SETNX does.
type stubIdempotency struct {
	mu       sync.Mutex
	seen     map[string]ports.IdempotencyRecord
	claimErr error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{seen: map[string]ports.IdempotencyRecord{}}
}

func (s *stubIdempotency) Claim(_ context.Context, key string, rec ports.IdempotencyRecord) (*ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, false, s.claimErr
	}
	if held, ok := s.seen[key]; ok {
		return &held, false, nil
	}
	s.seen[key] = rec
	return nil, true, nil
}

func (s *stubIdempotency) Settle(_ context.Context, key string, rec ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[key] = rec
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
	return nil
}

// gatedOrderRepo holds Create until gate is closed.
type gatedOrderRepo struct {
	stubOrderRepo
	mu      sync.Mutex
	entered chan struct{}
	gate    chan struct{}
}

func (r *gatedOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.entered <- struct{}{}
	<-r.gate
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stubOrderRepo.Create(ctx, o)
}

type captureRecorder struct {
	mu      sync.Mutex
	changes []domain.StatusChange
}

func (c *captureRecorder) Record(ch domain.StatusChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, ch)
}

func validOrderInput() ports.CreateOrderInput {
	return ports.CreateOrderInput{
		AgentID: "a1", GoodsType: "food", Weight: 5, Price: 20,
		PickupLocation: "X", DropLocation: "Y",
	}
}

var orderIDPattern = regexp.MustCompile(`^ORD-\d+-[A-Z0-9]{5}$`)

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestOrderCreate_Pending(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := NewOrderService(repo, nil, nil, Options{TolerateProvisioningGap: true}, zerolog.Nop())

	res, err := svc.Create(context.Background(), validOrderInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Order.Status != domain.StatusPending {
		t.Errorf("expected pending, got %q", res.Order.Status)
	}
	if res.Order.DriverID != "" {
		t.Errorf("expected empty driver, got %q", res.Order.DriverID)
	}
	if !orderIDPattern.MatchString(res.Order.OrderID) {
		t.Errorf("order id %q does not match pattern", res.Order.OrderID)
	}
	if res.Provisional {
		t.Error("stored order must not be provisional")
	}
	if len(repo.orders) != 1 {
		t.Fatalf("expected 1 stored order, got %d", len(repo.orders))
	}
}

func TestOrderCreate_MissingFields(t *testing.T) {
	mutations := map[string]func(*ports.CreateOrderInput){
		"agent":   func(in *ports.CreateOrderInput) { in.AgentID = "" },
		"goods":   func(in *ports.CreateOrderInput) { in.GoodsType = "" },
		"weight":  func(in *ports.CreateOrderInput) { in.Weight = 0 },
		"price":   func(in *ports.CreateOrderInput) { in.Price = 0 },
		"pickup":  func(in *ports.CreateOrderInput) { in.PickupLocation = "" },
		"dropoff": func(in *ports.CreateOrderInput) { in.DropLocation = "" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			repo := &stubOrderRepo{}
			svc := NewOrderService(repo, nil, nil, Options{}, zerolog.Nop())
			in := validOrderInput()
			mutate(&in)

			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, domain.ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
			if repo.calls != 0 {
				t.Error("store contacted on invalid payload")
			}
		})
	}
}

func TestOrderCreate_AppendFailureIsProvisional(t *testing.T) {
	repo := &stubOrderRepo{createErr: domain.ErrStoreUnavailable}
	svc := NewOrderService(repo, nil, nil, Options{TolerateProvisioningGap: true}, zerolog.Nop())

	res, err := svc.Create(context.Background(), validOrderInput())
	if err != nil {
		t.Fatalf("expected soft success, got %v", err)
	}
	if !res.Provisional {
		t.Error("expected provisional result")
	}
	if res.Order.OrderID == "" {
		t.Error("expected generated order id")
	}
}

func TestOrderCreate_AppendFailureWithoutTolerance(t *testing.T) {
	repo := &stubOrderRepo{createErr: domain.ErrStoreUnavailable}
	svc := NewOrderService(repo, nil, nil, Options{}, zerolog.Nop())

	if _, err := svc.Create(context.Background(), validOrderInput()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestOrderCreate_IdempotentReplay(t *testing.T) {
	repo := &stubOrderRepo{}
	idem := newStubIdempotency()
	svc := NewOrderService(repo, idem, nil, Options{}, zerolog.Nop())

	in := validOrderInput()
	in.IdempotencyKey = "key-1"

	first, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !second.AlreadyExisted {
		t.Error("expected replay to be flagged")
	}
	if first.Order.OrderID != second.Order.OrderID {
		t.Errorf("replay returned %q, want %q", second.Order.OrderID, first.Order.OrderID)
	}
	if len(repo.orders) != 1 {
		t.Errorf("expected a single append, got %d", len(repo.orders))
	}
}

func TestOrderCreate_IdempotencyClaimFailureStillCreates(t *testing.T) {
	repo := &stubOrderRepo{}
	idem := newStubIdempotency()
	idem.claimErr = errors.New("redis down")
	svc := NewOrderService(repo, idem, nil, Options{}, zerolog.Nop())

	in := validOrderInput()
	in.IdempotencyKey = "key-1"
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.orders) != 1 {
		t.Errorf("expected order stored")
	}
}

func TestOrderCreate_OverlappingRetriesShareOneOrder(t *testing.T) {
	repo := &gatedOrderRepo{entered: make(chan struct{}, 2), gate: make(chan struct{})}
	svc := NewOrderService(repo, newStubIdempotency(), nil, Options{}, zerolog.Nop())

	in := validOrderInput()
	in.IdempotencyKey = "k1"

	type outcome struct {
		res *ports.OrderResult
		err error
	}
	firstDone := make(chan outcome, 1)
	go func() {
		res, err := svc.Create(context.Background(), in)
		firstDone <- outcome{res, err}
	}()
	<-repo.entered

	// the first request is still appending
	second, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	close(repo.gate)
	first := <-firstDone
	if first.err != nil {
		t.Fatalf("first create: %v", first.err)
	}

	if second.Order.OrderID != first.res.Order.OrderID {
		t.Errorf("retries got different ids: %q and %q", first.res.Order.OrderID, second.Order.OrderID)
	}
	if !second.AlreadyExisted || !second.Provisional {
		t.Errorf("in-flight replay should be flagged replayed and provisional: %+v", second)
	}
	if len(repo.orders) != 1 {
		t.Errorf("expected a single append, got %d", len(repo.orders))
	}

	third, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("third create: %v", err)
	}
	if third.Order.OrderID != first.res.Order.OrderID || third.Provisional {
		t.Errorf("settled replay mismatch: %+v", third)
	}
}

func TestOrderCreate_ProvisionalReplayKeepsFlag(t *testing.T) {
	repo := &stubOrderRepo{createErr: domain.ErrStoreUnavailable}
	svc := NewOrderService(repo, newStubIdempotency(), nil, Options{TolerateProvisioningGap: true}, zerolog.Nop())

	in := validOrderInput()
	in.IdempotencyKey = "k1"

	first, err := svc.Create(context.Background(), in)
	if err != nil || !first.Provisional {
		t.Fatalf("expected provisional order, got %+v, %v", first, err)
	}
	replay, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.AlreadyExisted || !replay.Provisional || replay.Order.OrderID != first.Order.OrderID {
		t.Errorf("replay lost the provisional flag: %+v", replay)
	}
}

func TestOrderCreate_FailedAppendReleasesKey(t *testing.T) {
	repo := &stubOrderRepo{createErr: domain.ErrStoreUnavailable}
	idem := newStubIdempotency()
	svc := NewOrderService(repo, idem, nil, Options{}, zerolog.Nop())

	in := validOrderInput()
	in.IdempotencyKey = "k1"

	if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, held := idem.seen["k1"]; held {
		t.Fatal("key still claimed after failed append")
	}

	repo.createErr = nil
	res, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.AlreadyExisted || len(repo.orders) != 1 {
		t.Errorf("retry should create the order: %+v, rows=%d", res, len(repo.orders))
	}
}

// ---------------------------------------------------------------------------
// SetStatus
// ---------------------------------------------------------------------------

func seededOrders() *stubOrderRepo {
	return &stubOrderRepo{orders: []domain.Order{
		{OrderID: "ORD-1-AAAAA", AgentID: "a1", Status: domain.StatusPending, Weight: 5, Price: 20},
		{OrderID: "ORD-2-BBBBB", AgentID: "a1", Status: domain.StatusDelivered, DriverID: "d1"},
	}}
}

func TestSetStatus_AcceptAssignsDriver(t *testing.T) {
	repo := seededOrders()
	rec := &captureRecorder{}
	svc := NewOrderService(repo, nil, rec, Options{StrictTransitions: true}, zerolog.Nop())

	o, err := svc.SetStatus(context.Background(), ports.SetStatusInput{
		OrderID: "ORD-1-AAAAA", NewStatus: "accepted", DriverID: "d9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != domain.StatusAccepted || o.DriverID != "d9" {
		t.Errorf("unexpected order %+v", o)
	}
	if o.Weight != 5 || o.Price != 20 {
		t.Errorf("untouched fields changed: %+v", o)
	}
	if len(rec.changes) != 1 || rec.changes[0].From != domain.StatusPending || rec.changes[0].To != domain.StatusAccepted {
		t.Errorf("unexpected recorded changes %+v", rec.changes)
	}
}

func TestSetStatus_StrictRejections(t *testing.T) {
	tests := []struct {
		name string
		in   ports.SetStatusInput
	}{
		{"unknown status", ports.SetStatusInput{OrderID: "ORD-1-AAAAA", NewStatus: "lost", DriverID: "d1"}},
		{"skip ahead", ports.SetStatusInput{OrderID: "ORD-1-AAAAA", NewStatus: "delivered", DriverID: "d1"}},
		{"backwards", ports.SetStatusInput{OrderID: "ORD-2-BBBBB", NewStatus: "pending"}},
		{"accept without driver", ports.SetStatusInput{OrderID: "ORD-1-AAAAA", NewStatus: "accepted"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := seededOrders()
			rec := &captureRecorder{}
			svc := NewOrderService(repo, nil, rec, Options{StrictTransitions: true}, zerolog.Nop())

			_, err := svc.SetStatus(context.Background(), tt.in)
			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if repo.orders[0].Status != domain.StatusPending || repo.orders[1].Status != domain.StatusDelivered {
				t.Errorf("rejected transition was written: %+v", repo.orders)
			}
			if len(rec.changes) != 0 {
				t.Errorf("rejected transition recorded")
			}
		})
	}
}

func TestSetStatus_LenientOverwritesAnything(t *testing.T) {
	repo := seededOrders()
	svc := NewOrderService(repo, nil, nil, Options{}, zerolog.Nop())

	o, err := svc.SetStatus(context.Background(), ports.SetStatusInput{OrderID: "ORD-2-BBBBB", NewStatus: "pending"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != domain.StatusPending {
		t.Errorf("expected pending, got %q", o.Status)
	}
	if o.DriverID != "d1" {
		t.Errorf("driver must be kept when not supplied, got %q", o.DriverID)
	}
}

func TestSetStatus_NotFound(t *testing.T) {
	svc := NewOrderService(seededOrders(), nil, nil, Options{StrictTransitions: true}, zerolog.Nop())

	_, err := svc.SetStatus(context.Background(), ports.SetStatusInput{OrderID: "ORD-9-ZZZZZ", NewStatus: "accepted", DriverID: "d1"})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestSetStatus_UnknownOrderBeforeUnknownStatus(t *testing.T) {
	svc := NewOrderService(seededOrders(), nil, nil, Options{StrictTransitions: true}, zerolog.Nop())

	_, err := svc.SetStatus(context.Background(), ports.SetStatusInput{OrderID: "ORD-9-ZZZZZ", NewStatus: "bogus"})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestSetStatus_MissingFields(t *testing.T) {
	repo := seededOrders()
	svc := NewOrderService(repo, nil, nil, Options{}, zerolog.Nop())

	for _, in := range []ports.SetStatusInput{{NewStatus: "accepted"}, {OrderID: "ORD-1-AAAAA"}} {
		if _, err := svc.SetStatus(context.Background(), in); !errors.Is(err, domain.ErrInvalidPayload) {
			t.Errorf("%+v: expected ErrInvalidPayload, got %v", in, err)
		}
	}
	if repo.calls != 0 {
		t.Error("store contacted on invalid payload")
	}
}

// ---------------------------------------------------------------------------
// ListByDriver
// ---------------------------------------------------------------------------

func TestListByDriver_ActiveQueueOnly(t *testing.T) {
	repo := &stubOrderRepo{orders: []domain.Order{
		{OrderID: "o1", DriverID: "d1", Status: domain.StatusPending},
		{OrderID: "o2", DriverID: "d1", Status: domain.StatusAccepted},
		{OrderID: "o3", DriverID: "d1", Status: domain.StatusPicked},
		{OrderID: "o4", DriverID: "d1", Status: domain.StatusDelivered},
		{OrderID: "o5", DriverID: "d2", Status: domain.StatusAccepted},
	}}
	svc := NewOrderService(repo, nil, nil, Options{}, zerolog.Nop())

	orders, err := svc.ListByDriver(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 || orders[0].OrderID != "o2" || orders[1].OrderID != "o3" {
		t.Errorf("unexpected queue %+v", orders)
	}
}

func TestListByDriver_MissingTableIsEmpty(t *testing.T) {
	svc := NewOrderService(&stubOrderRepo{listErr: domain.ErrTableNotFound}, nil, nil,
		Options{TolerateProvisioningGap: true}, zerolog.Nop())

	orders, err := svc.ListByDriver(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected empty queue, got %+v", orders)
	}
}

func TestListByDriver_RequiresDriver(t *testing.T) {
	svc := NewOrderService(&stubOrderRepo{}, nil, nil, Options{}, zerolog.Nop())

	if _, err := svc.ListByDriver(context.Background(), ""); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}
