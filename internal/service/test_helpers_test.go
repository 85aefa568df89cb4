package service

import (
	"context"
	"errors"

	"github.com/adesina-dev/panelpay/internal/gateway"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory stand-in for the repository store. It implements
// every per-service store interface so each test wires only what it needs.
type fakeStore struct {
	profiles    map[uuid.UUID]*models.Profile
	byReferral  map[string]*models.Profile
	deposits    map[string]*models.Deposit
	withdrawals []*models.Withdrawal
	orders      []*models.Order
	referrals   map[uuid.UUID]uuid.UUID // referred -> referrer, deleted once paid
	services    map[int64]*models.Service

	settleCalls  int
	settleErr    error
	createDepErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:   make(map[uuid.UUID]*models.Profile),
		byReferral: make(map[string]*models.Profile),
		deposits:   make(map[string]*models.Deposit),
		referrals:  make(map[uuid.UUID]uuid.UUID),
		services:   make(map[int64]*models.Service),
	}
}

func (f *fakeStore) addProfile(balance string) *models.Profile {
	p := &models.Profile{
		ID:           uuid.New(),
		Email:        "user@example.com",
		Balance:      decimal.RequireFromString(balance),
		ReferralCode: "CODE" + uuid.NewString()[:4],
		Role:         "user",
	}
	f.profiles[p.ID] = p
	f.byReferral[p.ReferralCode] = p
	return p
}

func (f *fakeStore) addDeposit(owner *models.Profile, amount, reference string) *models.Deposit {
	d := &models.Deposit{
		ID:        uuid.New(),
		UserID:    owner.ID,
		Amount:    decimal.RequireFromString(amount),
		Reference: reference,
		Status:    "pending",
	}
	f.deposits[reference] = d
	return d
}

func (f *fakeStore) addService(price string, minQ, maxQ int) *models.Service {
	s := &models.Service{
		ID:                int64(len(f.services) + 1),
		Name:              "Test Service",
		PricePerUnit:      decimal.RequireFromString(price),
		MinQuantity:       minQ,
		MaxQuantity:       maxQ,
		ProviderServiceID: "p-100",
	}
	f.services[s.ID] = s
	return s
}

func (f *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeStore) GetProfileByReferralCode(_ context.Context, code string) (*models.Profile, error) {
	p, ok := f.byReferral[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeStore) CreateProfile(_ context.Context, p *models.Profile) error {
	if _, exists := f.profiles[p.ID]; exists {
		return errors.New("duplicate profile")
	}
	f.profiles[p.ID] = p
	f.byReferral[p.ReferralCode] = p
	return nil
}

func (f *fakeStore) CreateReferral(_ context.Context, referrerID, referredID uuid.UUID) error {
	f.referrals[referredID] = referrerID
	return nil
}

func (f *fakeStore) CreateDeposit(_ context.Context, d *models.Deposit) error {
	if f.createDepErr != nil {
		return f.createDepErr
	}
	f.deposits[d.Reference] = d
	return nil
}

func (f *fakeStore) GetDeposit(_ context.Context, id uuid.UUID) (*models.Deposit, error) {
	for _, d := range f.deposits {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, models.ErrNotFound
}

// SettleDeposit mirrors the transactional semantics of the real store:
// conditional transition, owner credit, one-shot referral bonus.
func (f *fakeStore) SettleDeposit(_ context.Context, reference string, amount decimal.Decimal) (*models.Settlement, error) {
	f.settleCalls++
	if f.settleErr != nil {
		return nil, f.settleErr
	}
	d, ok := f.deposits[reference]
	if !ok {
		return nil, models.ErrNotFound
	}
	settlement := &models.Settlement{Reference: reference, OwnerID: d.UserID}
	if d.Status != "pending" {
		return settlement, nil
	}
	d.Status = "successful"
	f.profiles[d.UserID].Balance = f.profiles[d.UserID].Balance.Add(amount)
	settlement.Credited = true

	if amount.GreaterThanOrEqual(decimal.RequireFromString("500")) {
		if referrerID, ok := f.referrals[d.UserID]; ok {
			f.profiles[referrerID].Balance = f.profiles[referrerID].Balance.Add(decimal.RequireFromString("100"))
			delete(f.referrals, d.UserID)
			settlement.BonusPaid = true
			settlement.ReferrerID = &referrerID
		}
	}
	return settlement, nil
}

func (f *fakeStore) CreateWithdrawal(_ context.Context, w *models.Withdrawal) error {
	f.withdrawals = append(f.withdrawals, w)
	return nil
}

func (f *fakeStore) GetService(_ context.Context, id int64) (*models.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) PlaceOrder(_ context.Context, order *models.Order) error {
	p, ok := f.profiles[order.UserID]
	if !ok {
		return models.ErrNotFound
	}
	if p.Balance.LessThan(order.TotalPrice) {
		return models.ErrInsufficientFunds
	}
	p.Balance = p.Balance.Sub(order.TotalPrice)
	f.orders = append(f.orders, order)
	return nil
}

// fakeDispatchStore tracks mark calls for dispatcher tests.
type fakeDispatchStore struct {
	pending    []models.PendingOrder
	pendingErr error

	processing map[uuid.UUID]string
	failed     map[uuid.UUID]bool
	notPending map[uuid.UUID]bool // simulates losing the conditional write
}

func newFakeDispatchStore(pending ...models.PendingOrder) *fakeDispatchStore {
	return &fakeDispatchStore{
		pending:    pending,
		processing: make(map[uuid.UUID]string),
		failed:     make(map[uuid.UUID]bool),
		notPending: make(map[uuid.UUID]bool),
	}
}

func (f *fakeDispatchStore) PendingOrders(_ context.Context, limit int32) ([]models.PendingOrder, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	if int32(len(f.pending)) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeDispatchStore) MarkOrderProcessing(_ context.Context, id uuid.UUID, providerOrderID string) (bool, error) {
	if f.notPending[id] {
		return false, nil
	}
	f.processing[id] = providerOrderID
	return true, nil
}

func (f *fakeDispatchStore) MarkOrderFailed(_ context.Context, id uuid.UUID) (bool, error) {
	if f.notPending[id] {
		return false, nil
	}
	f.failed[id] = true
	return true, nil
}

// fakeProvider scripts per-service submission results.
type fakeProvider struct {
	trackingID string
	err        error
	rejectFor  map[string]error // providerServiceID -> error
	calls      int
}

func (f *fakeProvider) SubmitOrder(ctx context.Context, providerServiceID string, quantity int, link string) (string, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := f.rejectFor[providerServiceID]; ok {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	if f.trackingID == "" {
		return "track-1", nil
	}
	return f.trackingID, nil
}

// fakePaymentGateway returns a canned checkout URL.
type fakePaymentGateway struct {
	url     string
	err     error
	lastReq gateway.ChargeRequest
	calls   int
}

func (f *fakePaymentGateway) InitializeCharge(_ context.Context, req gateway.ChargeRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	if f.url == "" {
		return "https://pay.example.com/checkout/abc", nil
	}
	return f.url, nil
}
