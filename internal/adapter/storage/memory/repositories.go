package memory

import (
	"context"

	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/ports"
)

// UserRepository keeps users keyed by user ID.
type UserRepository struct {
	store *Store[domain.User]
}

func NewUserRepository(flush FlushFunc[domain.User]) *UserRepository {
	return &UserRepository{store: NewStore(flush)}
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	r.store.Put(user.ID, *user)
	return nil
}

func (r *UserRepository) SaveIfAbsent(ctx context.Context, user *domain.User) (bool, error) {
	return r.store.PutIfAbsent(user.ID, *user), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.store.Get(id)
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) FindByCarID(ctx context.Context, carID string) (*domain.User, error) {
	for _, u := range r.store.All() {
		if u.Car.ID == carID {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

// PileRepository keeps piles keyed by pile ID. Local queues are copied on both
// sides of the store boundary so snapshots never share backing arrays.
type PileRepository struct {
	store *Store[domain.ChargingPile]
}

func NewPileRepository(flush FlushFunc[domain.ChargingPile]) *PileRepository {
	return &PileRepository{store: NewStore(flush)}
}

func clonePile(p domain.ChargingPile) domain.ChargingPile {
	p.LocalQueue = append([]string(nil), p.LocalQueue...)
	return p
}

func (r *PileRepository) Save(ctx context.Context, pile *domain.ChargingPile) error {
	r.store.Put(pile.ID, clonePile(*pile))
	return nil
}

func (r *PileRepository) FindByID(ctx context.Context, id string) (*domain.ChargingPile, error) {
	p, ok := r.store.Get(id)
	if !ok {
		return nil, nil
	}
	p = clonePile(p)
	return &p, nil
}

func (r *PileRepository) FindAll(ctx context.Context) ([]domain.ChargingPile, error) {
	piles := r.store.All()
	for i := range piles {
		piles[i] = clonePile(piles[i])
	}
	return piles, nil
}

// RequestRepository keeps charging requests keyed by car ID; a car has at most
// one request record at a time.
type RequestRepository struct {
	store *Store[domain.ChargingRequest]
}

func NewRequestRepository(flush FlushFunc[domain.ChargingRequest]) *RequestRepository {
	return &RequestRepository{store: NewStore(flush)}
}

func (r *RequestRepository) Save(ctx context.Context, req *domain.ChargingRequest) error {
	r.store.Put(req.CarID, *req)
	return nil
}

func (r *RequestRepository) FindByCarID(ctx context.Context, carID string) (*domain.ChargingRequest, error) {
	req, ok := r.store.Get(carID)
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (r *RequestRepository) FindAll(ctx context.Context) ([]domain.ChargingRequest, error) {
	return r.store.All(), nil
}

func (r *RequestRepository) Delete(ctx context.Context, carID string) error {
	r.store.Delete(carID)
	return nil
}

// SessionRepository keeps active sessions keyed by session ID.
type SessionRepository struct {
	store *Store[domain.ChargingSession]
}

func NewSessionRepository(flush FlushFunc[domain.ChargingSession]) *SessionRepository {
	return &SessionRepository{store: NewStore(flush)}
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.ChargingSession) error {
	r.store.Put(session.ID, *session)
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.ChargingSession, error) {
	s, ok := r.store.Get(id)
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *SessionRepository) FindByCarID(ctx context.Context, carID string) (*domain.ChargingSession, error) {
	for _, s := range r.store.All() {
		if s.CarID == carID {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (r *SessionRepository) FindAll(ctx context.Context) ([]domain.ChargingSession, error) {
	return r.store.All(), nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.store.Delete(id)
	return nil
}

// BillRepository keeps bills keyed by bill ID. Bills are append-only.
type BillRepository struct {
	store *Store[domain.Bill]
}

func NewBillRepository(flush FlushFunc[domain.Bill]) *BillRepository {
	return &BillRepository{store: NewStore(flush)}
}

func (r *BillRepository) Save(ctx context.Context, bill *domain.Bill) error {
	r.store.Put(bill.ID, *bill)
	return nil
}

func (r *BillRepository) FindByCarID(ctx context.Context, carID string) ([]domain.Bill, error) {
	var bills []domain.Bill
	for _, b := range r.store.All() {
		if b.CarID == carID {
			bills = append(bills, b)
		}
	}
	return bills, nil
}

func (r *BillRepository) FindAll(ctx context.Context) ([]domain.Bill, error) {
	return r.store.All(), nil
}

var (
	_ ports.UserRepository    = (*UserRepository)(nil)
	_ ports.PileRepository    = (*PileRepository)(nil)
	_ ports.RequestRepository = (*RequestRepository)(nil)
	_ ports.SessionRepository = (*SessionRepository)(nil)
	_ ports.BillRepository    = (*BillRepository)(nil)
)
