package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

type fakeOrders struct {
	orders        []domain.Order
	listErr       error
	shape         domain.MutationShape
	probeErr      error
	results       []domain.FulfillmentResult
	createErrs    []error
	transitionErr error
	trackingErr   error
	products      map[string]domain.Product

	probes      int
	creates     []domain.FulfillmentInput
	shapes      []domain.MutationShape
	calls       []string
	transitions []domain.FulfillmentState
	tracking    []domain.TrackingInfo
	listOpts    domain.OrderListOptions
}

func (f *fakeOrders) ListOrders(_ context.Context, opts domain.OrderListOptions) ([]domain.Order, error) {
	f.listOpts = opts
	f.calls = append(f.calls, "list")
	return f.orders, f.listErr
}

func (f *fakeOrders) OrderByCode(_ context.Context, code string) (domain.Order, bool, error) {
	f.calls = append(f.calls, "order:"+code)
	for _, o := range f.orders {
		if o.Code == code {
			return o, true, nil
		}
	}
	return domain.Order{}, false, nil
}

func (f *fakeOrders) FulfillmentCapability(context.Context) (domain.MutationShape, error) {
	f.probes++
	return f.shape, f.probeErr
}

func (f *fakeOrders) CreateFulfillment(_ context.Context, shape domain.MutationShape, input domain.FulfillmentInput) (domain.FulfillmentResult, error) {
	i := len(f.creates)
	f.creates = append(f.creates, input)
	f.shapes = append(f.shapes, shape)
	f.calls = append(f.calls, "create:"+input.HandlerCode)
	if i < len(f.createErrs) && f.createErrs[i] != nil {
		return domain.FulfillmentResult{}, f.createErrs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return domain.FulfillmentResult{Success: true, FulfillmentID: fmt.Sprintf("F%d", i+1), State: domain.FulfillmentPending, Method: input.Method}, nil
}

func (f *fakeOrders) TransitionFulfillment(_ context.Context, id string, state domain.FulfillmentState) (domain.Fulfillment, error) {
	f.calls = append(f.calls, "transition:"+string(state))
	f.transitions = append(f.transitions, state)
	if f.transitionErr != nil {
		return domain.Fulfillment{}, f.transitionErr
	}
	return domain.Fulfillment{ID: id, State: state}, nil
}

func (f *fakeOrders) UpdateFulfillmentTracking(_ context.Context, _ string, tracking domain.TrackingInfo) error {
	f.calls = append(f.calls, "tracking")
	f.tracking = append(f.tracking, tracking)
	return f.trackingErr
}

func (f *fakeOrders) ProductByID(_ context.Context, id string) (domain.Product, bool, error) {
	p, ok := f.products["id:"+id]
	return p, ok, nil
}

func (f *fakeOrders) ProductBySlug(_ context.Context, slug string) (domain.Product, bool, error) {
	p, ok := f.products["slug:"+slug]
	return p, ok, nil
}

type fakePartner struct {
	requests []domain.PartnerOrderRequest
	errFor   map[string]error
}

func (p *fakePartner) CreateOrder(_ context.Context, req domain.PartnerOrderRequest) (domain.PartnerOrder, error) {
	p.requests = append(p.requests, req)
	if err := p.errFor[req.ExternalID]; err != nil {
		return domain.PartnerOrder{}, err
	}
	return domain.PartnerOrder{ID: "P-" + req.ExternalID, Status: "pending"}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) add(level, v string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, level+": "+v)
}

func (n *recordingNotifier) Log(v string)        { n.add("INFO", v) }
func (n *recordingNotifier) LogError(v string)   { n.add("ERROR", v) }
func (n *recordingNotifier) LogWarning(v string) { n.add("WARNING", v) }
func (n *recordingNotifier) LogSuccess(v string) { n.add("SUCCESS", v) }

type panickingNotifier struct{}

func (panickingNotifier) Log(string)        { panic("telegram down") }
func (panickingNotifier) LogError(string)   { panic("telegram down") }
func (panickingNotifier) LogWarning(string) { panic("telegram down") }
func (panickingNotifier) LogSuccess(string) { panic("telegram down") }

type memJournal struct {
	records []domain.SyncRecord
	err     error
}

func (j *memJournal) Record(_ context.Context, rec domain.SyncRecord) error {
	if j.err != nil {
		return j.err
	}
	j.records = append(j.records, rec)
	return nil
}

func (j *memJournal) Get(_ context.Context, code string) (domain.SyncRecord, bool, error) {
	for i := len(j.records) - 1; i >= 0; i-- {
		if j.records[i].OrderCode == code {
			return j.records[i], true, nil
		}
	}
	return domain.SyncRecord{}, false, nil
}

var errTransport = errors.New("connection reset by peer")
