package checkout

import (
	"context"
	"sync"
	"testing"

	artdomain "github.com/edge-gallery/storefront/internal/domain/artwork"
	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
	"github.com/edge-gallery/storefront/internal/domain/outbox"
	"github.com/edge-gallery/storefront/internal/infrastructure/memory"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu          sync.Mutex
	lastRequest *domain.SessionRequest
	session     *domain.Session
	createErr   error

	lineItems    map[string][]domain.LineItem
	lineItemsErr error
}

func (f *fakeProvider) CreateSession(_ context.Context, req domain.SessionRequest) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRequest = &req
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.session != nil {
		return f.session, nil
	}
	return &domain.Session{ID: "cs_test", PaymentStatus: "unpaid", Status: "open"}, nil
}

func (f *fakeProvider) SessionLineItems(_ context.Context, sessionID string) ([]domain.LineItem, error) {
	if f.lineItemsErr != nil {
		return nil, f.lineItemsErr
	}
	return f.lineItems[sessionID], nil
}

type fakeVerifier struct {
	event *domain.Event
	err   error
}

func (f *fakeVerifier) VerifyAndParse(_ []byte, _ string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeNotifier) SendPurchaseConfirmation(_ context.Context, email string, _ []domain.ResolvedArtwork) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, email)
	return f.err
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []outbox.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e outbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) published() []outbox.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]outbox.Event(nil), p.events...)
}

type testFixture struct {
	service   *Service
	provider  *fakeProvider
	verifier  *fakeVerifier
	notifier  *fakeNotifier
	publisher *capturingPublisher
	artworks  *memory.ArtworkRepository
	orders    *memory.OrderRepository
	processed *memory.ProcessedEventStore
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		provider:  &fakeProvider{lineItems: map[string][]domain.LineItem{}},
		verifier:  &fakeVerifier{},
		notifier:  &fakeNotifier{},
		publisher: &capturingPublisher{},
		artworks:  memory.NewArtworkRepository(),
		orders:    memory.NewOrderRepository(),
		processed: memory.NewProcessedEventStore(),
	}
	f.service = NewService(Config{
		Provider:  f.provider,
		Verifier:  f.verifier,
		Artworks:  f.artworks,
		Orders:    f.orders,
		Notifier:  f.notifier,
		Processed: f.processed,
		Publisher: f.publisher,
		ClientURL: "https://gallery.example.com",
	})
	return f
}

func (f *testFixture) seedArtwork(t *testing.T, id int64, name string, price float64, quantity int) {
	t.Helper()
	a, err := artdomain.New(id, name, price, quantity)
	require.NoError(t, err)
	require.NoError(t, f.artworks.Put(context.Background(), a))
}

func (f *testFixture) stock(t *testing.T, id int64) int {
	t.Helper()
	a, err := f.artworks.Get(context.Background(), id)
	require.NoError(t, err)
	return a.Quantity
}
