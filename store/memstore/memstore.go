// Package memstore is an in-memory Store used by the test suite and by dev
// runs without a Mongo instance. It mirrors the mongostore normalization of
// change events so the fan-out behaves identically over either backend.
package memstore

import (
	"context"
	"log"
	"sync"

	"thangd/models"
	"thangd/store"
)

const watchBuffer = 256

type Mem struct {
	mu       sync.RWMutex
	thangs   map[string]models.Thang
	bookings map[string]models.Booking
	users    map[string]models.User

	wmu      sync.Mutex
	watchers map[store.Collection]map[chan store.Change]struct{}
}

func New() *Mem {
	return &Mem{
		thangs:   make(map[string]models.Thang),
		bookings: make(map[string]models.Booking),
		users:    make(map[string]models.User),
		watchers: make(map[store.Collection]map[chan store.Change]struct{}),
	}
}

func (m *Mem) Thangs() store.ThangStore     { return thangStore{m} }
func (m *Mem) Bookings() store.BookingStore { return bookingStore{m} }
func (m *Mem) Users() store.UserStore       { return userStore{m} }

func (m *Mem) Watch(ctx context.Context, coll store.Collection) (<-chan store.Change, error) {
	ch := make(chan store.Change, watchBuffer)
	m.wmu.Lock()
	if m.watchers[coll] == nil {
		m.watchers[coll] = make(map[chan store.Change]struct{})
	}
	m.watchers[coll][ch] = struct{}{}
	m.wmu.Unlock()

	go func() {
		<-ctx.Done()
		m.wmu.Lock()
		delete(m.watchers[coll], ch)
		close(ch)
		m.wmu.Unlock()
	}()
	return ch, nil
}

func (m *Mem) emit(coll store.Collection, c store.Change) {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	for ch := range m.watchers[coll] {
		select {
		case ch <- c:
		default:
			log.Printf("memstore: watcher on %s full, dropping %s event", coll, c.Kind)
		}
	}
}

// --- thangs ---

type thangStore struct{ m *Mem }

func (s thangStore) Get(_ context.Context, id string) (*models.Thang, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	t, ok := s.m.thangs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (s thangStore) Insert(_ context.Context, t *models.Thang) error {
	s.m.mu.Lock()
	s.m.thangs[t.ID] = *t
	s.m.mu.Unlock()
	cp := *t
	s.m.emit(store.CollThangs, store.Change{Kind: store.ChangeAdd, ID: t.ID, Thang: &cp})
	return nil
}

func (s thangStore) Replace(_ context.Context, t *models.Thang) error {
	s.m.mu.Lock()
	if _, ok := s.m.thangs[t.ID]; !ok {
		s.m.mu.Unlock()
		return store.ErrNotFound
	}
	s.m.thangs[t.ID] = *t
	s.m.mu.Unlock()
	cp := *t
	kind := store.ChangeUpdate
	if t.Deleted {
		kind = store.ChangeRemove
	}
	s.m.emit(store.CollThangs, store.Change{Kind: kind, ID: t.ID, Thang: &cp})
	return nil
}

func (s thangStore) AddUser(_ context.Context, thangID, userID string) error {
	s.m.mu.Lock()
	t, ok := s.m.thangs[thangID]
	if !ok {
		s.m.mu.Unlock()
		return store.ErrNotFound
	}
	for _, u := range t.Users {
		if u == userID {
			s.m.mu.Unlock()
			return nil
		}
	}
	t.Users = append(append([]string(nil), t.Users...), userID)
	s.m.thangs[thangID] = t
	s.m.mu.Unlock()
	cp := t
	s.m.emit(store.CollThangs, store.Change{Kind: store.ChangeUpdate, ID: thangID, Thang: &cp})
	return nil
}

func (s thangStore) SoftDelete(_ context.Context, id string) (int64, error) {
	s.m.mu.Lock()
	t, ok := s.m.thangs[id]
	if !ok || t.Deleted {
		s.m.mu.Unlock()
		return 0, nil
	}
	t.Deleted = true
	s.m.thangs[id] = t
	s.m.mu.Unlock()
	cp := t
	s.m.emit(store.CollThangs, store.Change{Kind: store.ChangeRemove, ID: id, Thang: &cp})
	return 1, nil
}

func (s thangStore) ByOwner(_ context.Context, userID string) ([]models.Thang, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.Thang
	for _, t := range s.m.thangs {
		if t.Deleted {
			continue
		}
		for _, o := range t.Owners {
			if o == userID {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

// --- bookings ---

type bookingStore struct{ m *Mem }

func (s bookingStore) Get(_ context.Context, id string) (*models.Booking, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	b, ok := s.m.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := b
	return &cp, nil
}

func (s bookingStore) Insert(_ context.Context, b *models.Booking) error {
	s.m.mu.Lock()
	s.m.bookings[b.ID] = *b
	s.m.mu.Unlock()
	cp := *b
	s.m.emit(store.CollBookings, store.Change{Kind: store.ChangeAdd, ID: b.ID, Booking: &cp})
	return nil
}

func (s bookingStore) SoftDelete(_ context.Context, id string) (int64, error) {
	s.m.mu.Lock()
	b, ok := s.m.bookings[id]
	if !ok || b.Deleted {
		s.m.mu.Unlock()
		return 0, nil
	}
	b.Deleted = true
	s.m.bookings[id] = b
	s.m.mu.Unlock()
	cp := b
	s.m.emit(store.CollBookings, store.Change{Kind: store.ChangeRemove, ID: id, Booking: &cp})
	return 1, nil
}

func (s bookingStore) InInterval(_ context.Context, thangID string, from, to int64) ([]models.Booking, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.Booking
	for _, b := range s.m.bookings {
		if b.Deleted || b.Thang != thangID {
			continue
		}
		if b.From < to && b.To > from {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s bookingStore) ForUserFrom(_ context.Context, thangID, userID string, from int64) ([]models.Booking, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []models.Booking
	for _, b := range s.m.bookings {
		if b.Deleted || b.Thang != thangID || b.Owner != userID {
			continue
		}
		if b.From >= from {
			out = append(out, b)
		}
	}
	return out, nil
}

// --- users ---

type userStore struct{ m *Mem }

func (s userStore) Get(_ context.Context, userID string) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	u, ok := s.m.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (s userStore) ByUsername(_ context.Context, username string) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, u := range s.m.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s userStore) Insert(_ context.Context, u *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.users[u.UserID] = *u
	return nil
}

func (s userStore) Update(_ context.Context, u *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[u.UserID]; !ok {
		return store.ErrNotFound
	}
	s.m.users[u.UserID] = *u
	return nil
}
