package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory repository fakes. They return mongo.ErrNoDocuments on misses
// so the services' error mapping behaves exactly as against the driver.

type fakePrizeRepo struct {
	mu     sync.Mutex
	prizes map[primitive.ObjectID]*models.Prize
}

func newFakePrizeRepo() *fakePrizeRepo {
	return &fakePrizeRepo{prizes: make(map[primitive.ObjectID]*models.Prize)}
}

func (r *fakePrizeRepo) add(p *models.Prize) *models.Prize {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.prizes[p.ID] = p
	return p
}

func (r *fakePrizeRepo) Create(ctx context.Context, prize *models.Prize) error {
	r.add(prize)
	return nil
}

func (r *fakePrizeRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prizes[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return p, nil
}

func (r *fakePrizeRepo) FindActiveByCategory(ctx context.Context, category models.PrizeCategory) ([]*models.Prize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Prize
	for _, p := range r.prizes {
		if p.Category == category && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePrizeRepo) Update(ctx context.Context, prize *models.Prize) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prizes[prize.ID] = prize
	return nil
}

func (r *fakePrizeRepo) IncrementAwarded(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prizes[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if p.Stock > 0 && p.AwardedCount >= p.Stock {
		return mongo.ErrNoDocuments
	}
	p.AwardedCount++
	return nil
}

func (r *fakePrizeRepo) IncrementRedeemed(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prizes[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.RedeemedCount++
	return nil
}

type fakeRouletteRepo struct {
	mu        sync.Mutex
	roulettes map[primitive.ObjectID]*models.Roulette
}

func newFakeRouletteRepo() *fakeRouletteRepo {
	return &fakeRouletteRepo{roulettes: make(map[primitive.ObjectID]*models.Roulette)}
}

func (r *fakeRouletteRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Roulette, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.roulettes[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return rt, nil
}

func (r *fakeRouletteRepo) FindDefaultByCategory(ctx context.Context, category models.PrizeCategory) (*models.Roulette, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.roulettes {
		if rt.Category == category && rt.IsDefault && rt.Active {
			return rt, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeRouletteRepo) FindByCategory(ctx context.Context, category models.PrizeCategory) ([]*models.Roulette, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Roulette
	for _, rt := range r.roulettes {
		if rt.Category == category {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (r *fakeRouletteRepo) Save(ctx context.Context, roulette *models.Roulette) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if roulette.IsDefault {
		for _, sibling := range r.roulettes {
			if sibling.Category == roulette.Category && sibling.ID != roulette.ID {
				sibling.IsDefault = false
			}
		}
	}
	if roulette.ID.IsZero() {
		roulette.ID = primitive.NewObjectID()
	}
	r.roulettes[roulette.ID] = roulette
	return nil
}

type fakeWinningRepo struct {
	mu       sync.Mutex
	winnings map[primitive.ObjectID]*models.PrizeWinning
	// updateErr fails Update for specific winnings, for sweep tests
	updateErr map[primitive.ObjectID]error
}

func newFakeWinningRepo() *fakeWinningRepo {
	return &fakeWinningRepo{
		winnings:  make(map[primitive.ObjectID]*models.PrizeWinning),
		updateErr: make(map[primitive.ObjectID]error),
	}
}

func (r *fakeWinningRepo) Create(ctx context.Context, winning *models.PrizeWinning) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if winning.ID.IsZero() {
		winning.ID = primitive.NewObjectID()
	}
	winning.CreatedAt = time.Now()
	winning.UpdatedAt = time.Now()
	r.winnings[winning.ID] = winning
	return nil
}

func (r *fakeWinningRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeWinning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.winnings[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return w, nil
}

func (r *fakeWinningRepo) Update(ctx context.Context, winning *models.PrizeWinning) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.updateErr[winning.ID]; ok {
		return err
	}
	winning.UpdatedAt = time.Now()
	r.winnings[winning.ID] = winning
	return nil
}

func (r *fakeWinningRepo) FindByClientID(ctx context.Context, clientID primitive.ObjectID, page, limit int) ([]*models.PrizeWinning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PrizeWinning
	for _, w := range r.winnings {
		if w.ClientID == clientID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WonAt.After(out[j].WonAt) })
	return out, nil
}

func (r *fakeWinningRepo) CountByPrizeSince(ctx context.Context, prizeID primitive.ObjectID, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, w := range r.winnings {
		if w.PrizeID == prizeID && !w.WonAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeWinningRepo) CountByRouletteSince(ctx context.Context, rouletteID primitive.ObjectID, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, w := range r.winnings {
		if w.RouletteID == rouletteID && !w.WonAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeWinningRepo) CountByClientAndPrize(ctx context.Context, clientID, prizeID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, w := range r.winnings {
		if w.ClientID == clientID && w.PrizeID == prizeID {
			count++
		}
	}
	return count, nil
}

func (r *fakeWinningRepo) FindLastByClientAndRoulette(ctx context.Context, clientID, rouletteID primitive.ObjectID) (*models.PrizeWinning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *models.PrizeWinning
	for _, w := range r.winnings {
		if w.ClientID != clientID || w.RouletteID != rouletteID {
			continue
		}
		if last == nil || w.WonAt.After(last.WonAt) {
			last = w
		}
	}
	if last == nil {
		return nil, mongo.ErrNoDocuments
	}
	return last, nil
}

func (r *fakeWinningRepo) FindByRedemptionCode(ctx context.Context, code string) (*models.PrizeWinning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.winnings {
		if w.RedemptionCode == code {
			return w, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeWinningRepo) ExistsActiveCode(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.winnings {
		if w.RedemptionCode == code && w.Status != models.WinningStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeWinningRepo) FindExpiredPending(ctx context.Context, asOf time.Time, limit int) ([]*models.PrizeWinning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PrizeWinning
	for _, w := range r.winnings {
		if w.Status == models.WinningStatusPending && !w.ExpiresAt.IsZero() && !w.ExpiresAt.After(asOf) {
			out = append(out, w)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeQRRepo struct {
	mu    sync.Mutex
	gates map[primitive.ObjectID]*models.QRCode
}

func newFakeQRRepo() *fakeQRRepo {
	return &fakeQRRepo{gates: make(map[primitive.ObjectID]*models.QRCode)}
}

func (r *fakeQRRepo) Create(ctx context.Context, qr *models.QRCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if qr.ID.IsZero() {
		qr.ID = primitive.NewObjectID()
	}
	r.gates[qr.ID] = qr
	return nil
}

func (r *fakeQRRepo) FindByCode(ctx context.Context, code string) (*models.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, qr := range r.gates {
		if qr.Code == code {
			return qr, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeQRRepo) Update(ctx context.Context, qr *models.QRCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gates[qr.ID] = qr
	return nil
}

func (r *fakeQRRepo) ConsumeUse(ctx context.Context, id primitive.ObjectID) (*models.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	qr, ok := r.gates[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if qr.CurrentUses >= qr.MaxUses {
		return nil, mongo.ErrNoDocuments
	}
	qr.CurrentUses++
	qr.TotalScans++
	if qr.CurrentUses >= qr.MaxUses {
		qr.Used = true
	}
	return qr, nil
}

func (r *fakeQRRepo) IncrementTotalScans(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if qr, ok := r.gates[id]; ok {
		qr.TotalScans++
	}
	return nil
}

type fakeClientRepo struct {
	mu      sync.Mutex
	clients map[primitive.ObjectID]*models.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[primitive.ObjectID]*models.Client)}
}

func (r *fakeClientRepo) add(c *models.Client) *models.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.clients[c.ID] = c
	return c
}

func (r *fakeClientRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return c, nil
}

// Collaborator fakes capture calls for assertions.

type membershipCall struct {
	ClientID primitive.ObjectID
	Days     int
}

type fakeMembership struct {
	mu    sync.Mutex
	calls []membershipCall
	err   error
}

func (f *fakeMembership) ExtendMembership(ctx context.Context, clientID primitive.ObjectID, days int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, membershipCall{ClientID: clientID, Days: days})
	return nil
}

type pointsCall struct {
	ClientID primitive.ObjectID
	Points   int
	Reason   string
}

type fakePoints struct {
	mu    sync.Mutex
	calls []pointsCall
}

func (f *fakePoints) CreditPoints(ctx context.Context, clientID primitive.ObjectID, points int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pointsCall{ClientID: clientID, Points: points, Reason: reason})
	return nil
}

type orderCall struct {
	ClientID   primitive.ObjectID
	ProductRef string
	Quantity   int
}

type fakeOrders struct {
	mu    sync.Mutex
	calls []orderCall
}

func (f *fakeOrders) CreateZeroCostOrder(ctx context.Context, clientID primitive.ObjectID, productRef string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, orderCall{ClientID: clientID, ProductRef: productRef, Quantity: quantity})
	return nil
}

type notifyCall struct {
	ClientID primitive.ObjectID
	Category string
	Priority string
	Message  string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotifier) Notify(ctx context.Context, clientID primitive.ObjectID, category, priority, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{ClientID: clientID, Category: category, Priority: priority, Message: message})
}

// stubRand replays scripted rolls; the last value repeats once a script
// is exhausted.
type stubRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (s *stubRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.fi]
	if s.fi < len(s.floats)-1 {
		s.fi++
	}
	return v
}

func (s *stubRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.ii]
	if s.ii < len(s.ints)-1 {
		s.ii++
	}
	return v % n
}

// engineFixture wires the full service graph over the fakes.
type engineFixture struct {
	prizeRepo    *fakePrizeRepo
	rouletteRepo *fakeRouletteRepo
	winningRepo  *fakeWinningRepo
	qrRepo       *fakeQRRepo
	clientRepo   *fakeClientRepo
	membership   *fakeMembership
	points       *fakePoints
	orders       *fakeOrders
	notifier     *fakeNotifier

	prizes    *PrizeServiceImpl
	winnings  *PrizeWinningServiceImpl
	roulettes *RouletteServiceImpl
	qrcodes   *QRCodeServiceImpl
}

func newEngineFixture(rng randSource) *engineFixture {
	f := &engineFixture{
		prizeRepo:    newFakePrizeRepo(),
		rouletteRepo: newFakeRouletteRepo(),
		winningRepo:  newFakeWinningRepo(),
		qrRepo:       newFakeQRRepo(),
		clientRepo:   newFakeClientRepo(),
		membership:   &fakeMembership{},
		points:       &fakePoints{},
		orders:       &fakeOrders{},
		notifier:     &fakeNotifier{},
	}
	f.prizes = NewPrizeService(f.prizeRepo, f.winningRepo)
	f.winnings = NewPrizeWinningService(
		f.prizes, f.prizeRepo, f.winningRepo, f.clientRepo,
		f.membership, f.points, f.orders, f.notifier, rng, 30,
	)
	f.roulettes = NewRouletteService(f.rouletteRepo, f.prizeRepo, f.prizes, f.winnings, rng)
	f.qrcodes = NewQRCodeService(f.qrRepo, f.roulettes, f.winnings)
	return f
}

func (f *engineFixture) addClient() *models.Client {
	return f.clientRepo.add(&models.Client{
		Name:             "Test Client",
		BirthDate:        time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC),
		RegistrationDate: time.Now().AddDate(-2, 0, 0),
		MembershipType:   "STANDARD",
	})
}

func (f *engineFixture) addPrize(mutate func(*models.Prize)) *models.Prize {
	prize := &models.Prize{
		Name:       "Protein Shake",
		Type:       models.PrizeTypeFreeProduct,
		Value:      1,
		Category:   models.CategoryBasic,
		Active:     true,
		ValidFrom:  time.Now().AddDate(0, -1, 0),
		ValidUntil: time.Now().AddDate(0, 1, 0),
		ProductRef: "SKU-SHAKE",
	}
	if mutate != nil {
		mutate(prize)
	}
	return f.prizeRepo.add(prize)
}
