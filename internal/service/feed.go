package service

import (
	"sync"

	"github.com/google/uuid"

	"github.com/blapoker/loyalty/internal/domain"
)

// CouponUpdate is the payload delivered to coupon subscribers.
type CouponUpdate struct {
	History   []domain.Coupon
	Available int
}

// Feed fans out user and coupon snapshots to read-side subscribers.
// Delivery is latest-wins over a buffered channel: a slow subscriber
// skips intermediate snapshots and never blocks a writer.
type Feed struct {
	mu      sync.Mutex
	nextID  int
	users   map[int]chan []domain.User
	coupons map[uuid.UUID]map[int]chan CouponUpdate
}

func NewFeed() *Feed {
	return &Feed{
		users:   make(map[int]chan []domain.User),
		coupons: make(map[uuid.UUID]map[int]chan CouponUpdate),
	}
}

// SubscribeUsers registers for full user-set snapshots. The returned
// function cancels the subscription.
func (f *Feed) SubscribeUsers() (<-chan []domain.User, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan []domain.User, 1)
	f.users[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.users, id)
	}
}

// SubscribeUserCoupons registers for one user's coupon snapshots.
func (f *Feed) SubscribeUserCoupons(userID uuid.UUID) (<-chan CouponUpdate, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan CouponUpdate, 1)
	subs, ok := f.coupons[userID]
	if !ok {
		subs = make(map[int]chan CouponUpdate)
		f.coupons[userID] = subs
	}
	subs[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(subs, id)
		if len(subs) == 0 {
			delete(f.coupons, userID)
		}
	}
}

func (f *Feed) PublishUsers(users []domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.users {
		sendLatest(ch, users)
	}
}

func (f *Feed) PublishCoupons(userID uuid.UUID, update CouponUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.coupons[userID] {
		sendLatest(ch, update)
	}
}

// sendLatest replaces a pending unread snapshot with the new one.
func sendLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
