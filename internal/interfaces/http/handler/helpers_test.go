package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/application/lifecycle"
	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/domain/shared"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

type fakeListingRepo struct {
	listings map[uuid.UUID]*listing.Listing
	err      error
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[uuid.UUID]*listing.Listing)}
}

func (r *fakeListingRepo) Create(ctx context.Context, l *listing.Listing) error {
	if r.err != nil {
		return r.err
	}
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *fakeListingRepo) FindByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	if r.err != nil {
		return nil, r.err
	}
	l, ok := r.listings[id]
	if !ok {
		return nil, listing.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*listing.Listing, error) {
	for _, l := range r.listings {
		if l.PublicID == publicID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, listing.ErrListingNotFound
}

func (r *fakeListingRepo) Save(ctx context.Context, l *listing.Listing) error {
	if r.err != nil {
		return r.err
	}
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *fakeListingRepo) RecordSale(ctx context.Context, id uuid.UUID, units int, soldPrice decimal.Decimal, at time.Time) (*listing.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, listing.ErrListingNotFound
	}
	if err := l.RecordSale(units, soldPrice, at); err != nil {
		return nil, err
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) FindArchivable(ctx context.Context, cutoff time.Time, limit int) ([]listing.Listing, error) {
	var out []listing.Listing
	for _, l := range r.listings {
		if l.Status == listing.StatusSold && l.SoldAt != nil && !l.SoldAt.After(cutoff) {
			out = append(out, *l)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeListingRepo) MarkArchived(ctx context.Context, id uuid.UUID, archivedAt time.Time) (bool, error) {
	l, ok := r.listings[id]
	if !ok || l.Status != listing.StatusSold {
		return false, nil
	}
	l.Status = listing.StatusArchived
	l.UpdatedAt = archivedAt
	return true, nil
}

func (r *fakeListingRepo) FindAll(ctx context.Context, filter listing.ListingFilter) ([]listing.Listing, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []listing.Listing
	for _, l := range r.listings {
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *fakeListingRepo) Count(ctx context.Context, filter listing.ListingFilter) (int64, error) {
	items, err := r.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}

type platformKey struct {
	listingID uuid.UUID
	code      marketplace.PlatformCode
}

type fakePlatformRepo struct {
	rows map[platformKey]*marketplace.PlatformListing
}

func newFakePlatformRepo() *fakePlatformRepo {
	return &fakePlatformRepo{rows: make(map[platformKey]*marketplace.PlatformListing)}
}

func (r *fakePlatformRepo) put(pl *marketplace.PlatformListing) {
	cp := *pl
	r.rows[platformKey{pl.ListingID, pl.PlatformCode}] = &cp
}

func (r *fakePlatformRepo) Create(ctx context.Context, pl *marketplace.PlatformListing) error {
	key := platformKey{pl.ListingID, pl.PlatformCode}
	if _, ok := r.rows[key]; ok {
		return marketplace.ErrPlatformListingExists
	}
	cp := *pl
	r.rows[key] = &cp
	return nil
}

func (r *fakePlatformRepo) Find(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode) (*marketplace.PlatformListing, error) {
	pl, ok := r.rows[platformKey{listingID, code}]
	if !ok {
		return nil, marketplace.ErrPlatformListingNotFound
	}
	cp := *pl
	return &cp, nil
}

func (r *fakePlatformRepo) FindByListing(ctx context.Context, listingID uuid.UUID) ([]marketplace.PlatformListing, error) {
	var out []marketplace.PlatformListing
	for _, code := range marketplace.AllPlatformCodes() {
		if pl, ok := r.rows[platformKey{listingID, code}]; ok {
			out = append(out, *pl)
		}
	}
	return out, nil
}

func (r *fakePlatformRepo) FindByRemoteID(ctx context.Context, code marketplace.PlatformCode, remoteID string) (*marketplace.PlatformListing, error) {
	for _, pl := range r.rows {
		if pl.PlatformCode == code && pl.RemoteID == remoteID {
			cp := *pl
			return &cp, nil
		}
	}
	return nil, marketplace.ErrPlatformListingNotFound
}

func (r *fakePlatformRepo) Publish(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, remoteID string, now time.Time) error {
	pl, ok := r.rows[platformKey{listingID, code}]
	if !ok {
		return marketplace.ErrPlatformListingNotFound
	}
	return pl.Publish(remoteID, now)
}

func (r *fakePlatformRepo) MarkSold(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, now time.Time) error {
	pl, ok := r.rows[platformKey{listingID, code}]
	if !ok {
		return marketplace.ErrPlatformListingNotFound
	}
	if pl.Status == marketplace.ListingStatusSold {
		return marketplace.ErrAlreadySold
	}
	if pl.Status != marketplace.ListingStatusActive {
		return marketplace.ErrInvalidTransition
	}
	pl.Status = marketplace.ListingStatusSold
	pl.UpdatedAt = now
	return nil
}

func (r *fakePlatformRepo) ScheduleCancel(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, cancelAt time.Time, now time.Time) (bool, error) {
	pl, ok := r.rows[platformKey{listingID, code}]
	if !ok {
		return false, marketplace.ErrPlatformListingNotFound
	}
	if pl.Status.IsTerminal() {
		return false, nil
	}
	pl.CancelScheduledAt = &cancelAt
	pl.UpdatedAt = now
	return true, nil
}

func (r *fakePlatformRepo) FindCancelDue(ctx context.Context, now time.Time, cooldown time.Duration, limit int) ([]marketplace.PlatformListing, error) {
	var out []marketplace.PlatformListing
	for _, pl := range r.rows {
		if pl.RetirementDue(now) && !pl.Status.IsTerminal() {
			out = append(out, *pl)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakePlatformRepo) CompleteCancel(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, target marketplace.ListingStatus, now time.Time) (bool, error) {
	pl, ok := r.rows[platformKey{listingID, code}]
	if !ok {
		return false, marketplace.ErrPlatformListingNotFound
	}
	if pl.Status.IsTerminal() {
		return false, nil
	}
	pl.Status = target
	pl.CancelScheduledAt = nil
	pl.UpdatedAt = now
	return true, nil
}

func (r *fakePlatformRepo) RecordCancelFailure(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, cause string, now time.Time) error {
	pl, ok := r.rows[platformKey{listingID, code}]
	if !ok {
		return marketplace.ErrPlatformListingNotFound
	}
	pl.CancelAttempts++
	pl.LastCancelError = cause
	pl.LastCancelFailureAt = &now
	return nil
}

func (r *fakePlatformRepo) MarkFailed(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, cause string, now time.Time) error {
	pl, ok := r.rows[platformKey{listingID, code}]
	if !ok {
		return marketplace.ErrPlatformListingNotFound
	}
	pl.Status = marketplace.ListingStatusFailed
	pl.LastCancelError = cause
	pl.CancelScheduledAt = nil
	pl.UpdatedAt = now
	return nil
}

func (r *fakePlatformRepo) UpdateStatus(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, status marketplace.ListingStatus, now time.Time) error {
	pl, ok := r.rows[platformKey{listingID, code}]
	if !ok {
		return marketplace.ErrPlatformListingNotFound
	}
	pl.Status = status
	pl.UpdatedAt = now
	return nil
}

type fakeSyncLogRepo struct {
	entries []marketplace.SyncLogEntry
}

func (r *fakeSyncLogRepo) Append(ctx context.Context, entry *marketplace.SyncLogEntry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeSyncLogRepo) FindByListing(ctx context.Context, listingID uuid.UUID, limit int) ([]marketplace.SyncLogEntry, error) {
	var out []marketplace.SyncLogEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].ListingID == listingID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

type fakeAdapter struct {
	code       marketplace.PlatformCode
	publishID  string
	publishErr error
	updateErr  error
	delistErr  error

	delisted []string
	updated  []string
}

func (a *fakeAdapter) PlatformCode() marketplace.PlatformCode { return a.code }

func (a *fakeAdapter) Publish(ctx context.Context, l *listing.Listing) (string, error) {
	if a.publishErr != nil {
		return "", a.publishErr
	}
	return a.publishID, nil
}

func (a *fakeAdapter) UpdateStatus(ctx context.Context, remoteID string, status marketplace.ListingStatus) error {
	if a.updateErr != nil {
		return a.updateErr
	}
	a.updated = append(a.updated, remoteID)
	return nil
}

func (a *fakeAdapter) Delist(ctx context.Context, remoteID string) error {
	if a.delistErr != nil {
		return a.delistErr
	}
	a.delisted = append(a.delisted, remoteID)
	return nil
}

type fakeRegistry struct {
	adapters map[marketplace.PlatformCode]marketplace.MarketplaceAdapter
}

func newFakeRegistry(adapters ...*fakeAdapter) *fakeRegistry {
	r := &fakeRegistry{adapters: make(map[marketplace.PlatformCode]marketplace.MarketplaceAdapter)}
	for _, a := range adapters {
		r.adapters[a.code] = a
	}
	return r
}

func (r *fakeRegistry) Get(code marketplace.PlatformCode) (marketplace.MarketplaceAdapter, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, marketplace.ErrUnknownPlatform
	}
	return a, nil
}

func (r *fakeRegistry) List() []marketplace.MarketplaceAdapter {
	out := make([]marketplace.MarketplaceAdapter, 0, len(r.adapters))
	for _, code := range marketplace.AllPlatformCodes() {
		if a, ok := r.adapters[code]; ok {
			out = append(out, a)
		}
	}
	return out
}

type fakeNotifier struct {
	notifications []marketplace.Notification
}

func (n *fakeNotifier) Notify(ctx context.Context, notification marketplace.Notification) error {
	n.notifications = append(n.notifications, notification)
	return nil
}

// ---------------------------------------------------------------------------
// Test environment
// ---------------------------------------------------------------------------

// testEnv wires real services over in-memory fakes behind a gin engine.
type testEnv struct {
	engine    *gin.Engine
	listings  *fakeListingRepo
	platforms *fakePlatformRepo
	syncLog   *fakeSyncLogRepo
	notifier  *fakeNotifier
	registry  *fakeRegistry
	clock     *shared.FixedClock
}

func newTestEnv(t *testing.T, adapters ...*fakeAdapter) *testEnv {
	t.Helper()

	env := &testEnv{
		listings:  newFakeListingRepo(),
		platforms: newFakePlatformRepo(),
		syncLog:   &fakeSyncLogRepo{},
		notifier:  &fakeNotifier{},
		registry:  newFakeRegistry(adapters...),
		clock:     shared.NewFixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	}

	log := zap.NewNop()
	listingService := lifecycle.NewListingService(env.listings, env.platforms, env.registry, env.syncLog, env.clock, log)
	saleService := lifecycle.NewSaleService(env.listings, env.platforms, env.registry, env.syncLog, env.notifier, env.clock, log)
	statusSyncService := lifecycle.NewStatusSyncService(env.platforms, env.registry, env.syncLog, env.clock, log)

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewListingHandler(listingService).RegisterRoutes(api)
	NewSaleHandler(saleService, statusSyncService).RegisterRoutes(api)

	env.engine = engine
	return env
}

// addActiveListing seeds an active listing with the given quantity.
func (e *testEnv) addActiveListing(t *testing.T, title string, quantity int) *listing.Listing {
	t.Helper()
	l, err := listing.NewListing(title, decimal.NewFromFloat(45.50), quantity, e.clock.Now())
	require.NoError(t, err)
	require.NoError(t, l.Activate(e.clock.Now()))
	require.NoError(t, e.listings.Create(context.Background(), l))
	return l
}

// addPlatformRow seeds one active platform copy with a remote id.
func (e *testEnv) addPlatformRow(t *testing.T, listingID uuid.UUID, code marketplace.PlatformCode, remoteID string) {
	t.Helper()
	pl, err := marketplace.NewPlatformListing(listingID, code, e.clock.Now())
	require.NoError(t, err)
	require.NoError(t, pl.Publish(remoteID, e.clock.Now()))
	e.platforms.put(pl)
}

func performRequest(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// envelope mirrors dto.Response with the data left raw for the test to decode
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Data, "expected data in response: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
	return env
}
