package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/domain"
	productdomain "github.com/marketbay/bidengine/internal/product/domain"
	userdomain "github.com/marketbay/bidengine/internal/user/domain"
)

// memStore is an in-memory domain.AuctionStore with real per-auction
// locking and staged writes, so transactional behavior (rollback, lock
// contention, post-commit visibility) can be exercised without postgres.
type memStore struct {
	mu          sync.Mutex
	auctions    map[uuid.UUID]*domain.Auction
	bids        map[uuid.UUID][]*domain.Bid
	products    map[uuid.UUID]*memProduct
	locks       map[uuid.UUID]*sync.Mutex
	lockTimeout time.Duration

	failInsertBid bool
}

type memProduct struct {
	InAuction bool
	Stock     int
}

func newMemStore() *memStore {
	return &memStore{
		auctions:    make(map[uuid.UUID]*domain.Auction),
		bids:        make(map[uuid.UUID][]*domain.Bid),
		products:    make(map[uuid.UUID]*memProduct),
		locks:       make(map[uuid.UUID]*sync.Mutex),
		lockTimeout: 200 * time.Millisecond,
	}
}

func (s *memStore) putAuction(a *domain.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.auctions[a.ID] = &cp
	if _, ok := s.products[a.ProductID]; !ok {
		s.products[a.ProductID] = &memProduct{InAuction: true, Stock: 1}
	}
}

func (s *memStore) putBid(b *domain.Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bids[b.AuctionID] = append(s.bids[b.AuctionID], &cp)
}

func (s *memStore) auction(id uuid.UUID) *domain.Auction {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.auctions[id]
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func (s *memStore) product(id uuid.UUID) memProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	if p == nil {
		return memProduct{}
	}
	return *p
}

func (s *memStore) lockFor(id uuid.UUID) *sync.Mutex {
	if _, ok := s.locks[id]; !ok {
		s.locks[id] = &sync.Mutex{}
	}
	return s.locks[id]
}

func (s *memStore) Begin(ctx context.Context) (domain.AuctionTx, error) {
	return &memTx{store: s}, nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	a := s.auction(id)
	if a == nil {
		return nil, domain.ErrAuctionNotFound
	}
	return a, nil
}

func (s *memStore) ListBids(ctx context.Context, auctionID uuid.UUID, limit, offset int) ([]*domain.Bid, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.bids[auctionID]
	total := len(all)

	// newest first
	ordered := make([]*domain.Bid, total)
	for i, b := range all {
		cp := *b
		ordered[total-1-i] = &cp
	}
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ordered[offset:end], total, nil
}

func (s *memStore) ExpiredActiveIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for id, a := range s.auctions {
		if a.Status == domain.StatusActive && !a.EndAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type productOp struct {
	id        uuid.UUID
	inAuction *bool
	decrement bool
}

type memTx struct {
	store *memStore

	lockedID   uuid.UUID
	lock       *sync.Mutex
	released   bool
	savedA     *domain.Auction
	newBids    []*domain.Bid
	productOps []productOp
	deleted    *uuid.UUID
}

func (t *memTx) LoadForUpdate(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	t.store.mu.Lock()
	_, ok := t.store.auctions[id]
	if !ok {
		t.store.mu.Unlock()
		return nil, domain.ErrAuctionNotFound
	}
	l := t.store.lockFor(id)
	timeout := t.store.lockTimeout
	t.store.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for !l.TryLock() {
		if time.Now().After(deadline) {
			return nil, domain.ErrContention
		}
		time.Sleep(time.Millisecond)
	}
	t.lock = l
	t.lockedID = id

	// fresh snapshot now that the lock is held
	t.store.mu.Lock()
	cp := *t.store.auctions[id]
	t.store.mu.Unlock()
	return &cp, nil
}

func (t *memTx) SaveAuction(ctx context.Context, a *domain.Auction) error {
	cp := *a
	t.savedA = &cp
	return nil
}

func (t *memTx) InsertBid(ctx context.Context, b *domain.Bid) error {
	if t.store.failInsertBid {
		return errors.New("storage write failed")
	}
	cp := *b
	t.newBids = append(t.newBids, &cp)
	return nil
}

func (t *memTx) CountBids(ctx context.Context, auctionID uuid.UUID) (int, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	count := len(t.store.bids[auctionID])
	for _, b := range t.newBids {
		if b.AuctionID == auctionID {
			count++
		}
	}
	return count, nil
}

func (t *memTx) HighestBid(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var highest *domain.Bid
	for _, b := range t.store.bids[auctionID] {
		if highest == nil ||
			b.AmountMinor > highest.AmountMinor ||
			(b.AmountMinor == highest.AmountMinor && b.BidAt.Before(highest.BidAt)) {
			highest = b
		}
	}
	if highest == nil {
		return nil, nil
	}
	cp := *highest
	return &cp, nil
}

func (t *memTx) SetProductInAuction(ctx context.Context, productID uuid.UUID, inAuction bool) error {
	v := inAuction
	t.productOps = append(t.productOps, productOp{id: productID, inAuction: &v})
	return nil
}

func (t *memTx) DecrementProductStock(ctx context.Context, productID uuid.UUID) error {
	t.productOps = append(t.productOps, productOp{id: productID, decrement: true})
	return nil
}

func (t *memTx) DeleteAuction(ctx context.Context, id uuid.UUID) error {
	t.deleted = &id
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	if t.savedA != nil {
		cp := *t.savedA
		t.store.auctions[cp.ID] = &cp
	}
	for _, b := range t.newBids {
		cp := *b
		t.store.bids[cp.AuctionID] = append(t.store.bids[cp.AuctionID], &cp)
	}
	for _, op := range t.productOps {
		p, ok := t.store.products[op.id]
		if !ok {
			p = &memProduct{}
			t.store.products[op.id] = p
		}
		if op.inAuction != nil {
			p.InAuction = *op.inAuction
		}
		if op.decrement && p.Stock > 0 {
			p.Stock--
		}
	}
	if t.deleted != nil {
		delete(t.store.auctions, *t.deleted)
		delete(t.store.bids, *t.deleted)
	}
	t.store.mu.Unlock()

	t.release()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.release()
	return nil
}

func (t *memTx) release() {
	if t.lock != nil && !t.released {
		t.released = true
		t.lock.Unlock()
	}
}

// recordingPublisher captures dispatched events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) byName(name string) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// recordingBridge captures settlement calls and can be forced to fail.
type recordingBridge struct {
	mu          sync.Mutex
	created     []uuid.UUID
	synced      []uuid.UUID
	settlements []settlementCall
	noWinners   []uuid.UUID
	err         error
}

type settlementCall struct {
	AuctionID   uuid.UUID
	WinnerID    uuid.UUID
	AmountMinor int64
}

func (b *recordingBridge) CreateAuction(_ context.Context, a *domain.Auction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, a.ID)
	return b.err
}

func (b *recordingBridge) SyncAuction(_ context.Context, a *domain.Auction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.synced = append(b.synced, a.ID)
	return b.err
}

func (b *recordingBridge) BeginSettlement(_ context.Context, auctionID, winnerID uuid.UUID, amountMinor int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settlements = append(b.settlements, settlementCall{auctionID, winnerID, amountMinor})
	return b.err
}

func (b *recordingBridge) ReportNoWinner(_ context.Context, auctionID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noWinners = append(b.noWinners, auctionID)
	return b.err
}

// fakeUsers is a userdomain.Repository backed by a set.
type fakeUsers struct {
	known map[uuid.UUID]bool
}

func newFakeUsers(ids ...uuid.UUID) *fakeUsers {
	f := &fakeUsers{known: make(map[uuid.UUID]bool)}
	for _, id := range ids {
		f.known[id] = true
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*userdomain.User, error) {
	if !f.known[id] {
		return nil, nil
	}
	return &userdomain.User{ID: id}, nil
}

// fakeProducts is a productdomain.Repository view over the memStore.
type fakeProducts struct {
	store *memStore
}

func (f *fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*productdomain.Product, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	p, ok := f.store.products[id]
	if !ok {
		return nil, nil
	}
	return &productdomain.Product{ID: id, InAuction: p.InAuction, Stock: p.Stock}, nil
}
