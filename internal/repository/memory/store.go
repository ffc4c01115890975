// Package memory implements every repository interface in process. It backs the
// service when no Postgres DSN is configured and serves as the test double.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/studio-booking/internal/domain"
	"github.com/spec-kit/studio-booking/internal/repository"
)

// Store holds all records behind one lock.
type Store struct {
	mu            sync.RWMutex
	now           func() time.Time
	users         map[string]domain.User
	bookings      map[string]domain.Booking
	reviews       map[string]domain.Review
	notifications map[string]domain.Notification
	catalog       map[string]domain.CatalogEntry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[string]domain.User),
		bookings:      make(map[string]domain.Booking),
		reviews:       make(map[string]domain.Review),
		notifications: make(map[string]domain.Notification),
		catalog:       make(map[string]domain.CatalogEntry),
	}
}

// WithClock overrides the time source; used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Users returns the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return userStore{s} }

// Bookings returns the store as a BookingRepository.
func (s *Store) Bookings() repository.BookingRepository { return bookingStore{s} }

// Reviews returns the store as a ReviewRepository.
func (s *Store) Reviews() repository.ReviewRepository { return reviewStore{s} }

// Notifications returns the store as a NotificationRepository.
func (s *Store) Notifications() repository.NotificationRepository { return notificationStore{s} }

// Catalog returns the store as a CatalogRepository.
func (s *Store) Catalog() repository.CatalogRepository { return catalogStore{s} }

// Outbox returns a snapshot of queued notifications, oldest first.
func (s *Store) Outbox() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

type userStore struct{ s *Store }

func (u userStore) Create(_ context.Context, user *domain.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(user.Email, "") {
		return repository.ErrDuplicateEmail
	}
	now := s.now()
	user.ID = uuid.NewString()
	user.Version = 1
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (u userStore) Update(_ context.Context, user *domain.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != user.Version {
		return repository.ErrStaleVersion
	}
	if s.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicateEmail
	}
	user.Version++
	user.UpdatedAt = s.now()
	s.users[user.ID] = *user
	return nil
}

func (u userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (u userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u userStore) List(_ context.Context) ([]domain.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (u userStore) Delete(_ context.Context, id string) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	for bid, b := range s.bookings {
		if b.UserID == id {
			delete(s.bookings, bid)
		}
	}
	for rid, r := range s.reviews {
		if r.UserID == id {
			delete(s.reviews, rid)
		}
	}
	return nil
}

// emailTaken must be called with the lock held.
func (s *Store) emailTaken(email, exceptID string) bool {
	for id, user := range s.users {
		if id != exceptID && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

type bookingStore struct{ s *Store }

func (b bookingStore) Create(_ context.Context, booking *domain.Booking) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[booking.UserID]; !ok {
		return repository.ErrNotFound
	}
	now := s.now()
	booking.ID = uuid.NewString()
	booking.Version = 1
	booking.CreatedAt = now
	booking.UpdatedAt = now
	s.bookings[booking.ID] = *booking
	return nil
}

func (b bookingStore) Update(_ context.Context, booking *domain.Booking) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.bookings[booking.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != booking.Version {
		return repository.ErrStaleVersion
	}
	booking.Version++
	booking.UpdatedAt = s.now()
	s.bookings[booking.ID] = *booking
	return nil
}

func (b bookingStore) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	s := b.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	booking, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &booking, nil
}

func (b bookingStore) List(_ context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	s := b.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterBookings(filter), nil
}

func (b bookingStore) ListWithOwners(_ context.Context, filter repository.BookingFilter) ([]domain.BookingWithOwner, error) {
	s := b.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	bookings := s.filterBookings(filter)
	out := make([]domain.BookingWithOwner, 0, len(bookings))
	for _, booking := range bookings {
		user, ok := s.users[booking.UserID]
		if !ok {
			continue
		}
		out = append(out, domain.BookingWithOwner{
			Booking: booking,
			Owner:   &domain.BookingOwner{ID: user.ID, Name: user.Name, Email: user.Email},
		})
	}
	return out, nil
}

func (b bookingStore) Delete(_ context.Context, id string) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// filterBookings must be called with the lock held.
func (s *Store) filterBookings(filter repository.BookingFilter) []domain.Booking {
	out := []domain.Booking{}
	for _, booking := range s.bookings {
		if filter.UserID != nil && booking.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && booking.Status != *filter.Status {
			continue
		}
		out = append(out, booking)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type reviewStore struct{ s *Store }

func (r reviewStore) Create(_ context.Context, review *domain.Review) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	review.ID = uuid.NewString()
	review.CreatedAt = now
	review.UpdatedAt = now
	s.reviews[review.ID] = *review
	return nil
}

func (r reviewStore) GetByID(_ context.Context, id string) (*domain.Review, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	review, ok := s.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &review, nil
}

func (r reviewStore) List(_ context.Context, approvedOnly bool) ([]domain.Review, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Review{}
	for _, review := range s.reviews {
		if approvedOnly && !review.Approved {
			continue
		}
		out = append(out, review)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r reviewStore) SetApproved(_ context.Context, id string, approved bool) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	review, ok := s.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	review.Approved = approved
	review.UpdatedAt = s.now()
	s.reviews[id] = review
	return nil
}

func (r reviewStore) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

type notificationStore struct{ s *Store }

func (n notificationStore) Enqueue(_ context.Context, job *domain.Notification) error {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	job.ID = uuid.NewString()
	if job.Status == "" {
		job.Status = domain.NotificationPending
	}
	if job.NextAttemptAt.IsZero() {
		job.NextAttemptAt = now
	}
	job.CreatedAt = now
	job.UpdatedAt = now
	s.notifications[job.ID] = *job
	return nil
}

func (n notificationStore) ClaimDue(_ context.Context, limit int, lease time.Duration) ([]domain.Notification, error) {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	due := []domain.Notification{}
	for _, job := range s.notifications {
		if job.Status == domain.NotificationPending && !job.NextAttemptAt.After(now) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].NextAttemptAt = now.Add(lease)
		due[i].UpdatedAt = now
		s.notifications[due[i].ID] = due[i]
	}
	return due, nil
}

func (n notificationStore) MarkSent(_ context.Context, id string) error {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := s.now()
	job.Status = domain.NotificationSent
	job.Attempts++
	job.SentAt = &now
	job.LastError = nil
	job.UpdatedAt = now
	s.notifications[id] = job
	return nil
}

func (n notificationStore) MarkFailed(_ context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string, dead bool) error {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	job.Attempts = attempts
	job.NextAttemptAt = nextAttemptAt
	job.LastError = &lastError
	job.UpdatedAt = s.now()
	if dead {
		job.Status = domain.NotificationDead
	}
	s.notifications[id] = job
	return nil
}

type catalogStore struct{ s *Store }

func (c catalogStore) Upsert(_ context.Context, entry *domain.CatalogEntry) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	entry.ID = ""
	entry.CreatedAt = now
	for id, existing := range s.catalog {
		if existing.ServiceType == entry.ServiceType && existing.PackageType == entry.PackageType {
			entry.ID = id
			entry.CreatedAt = existing.CreatedAt
			break
		}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.UpdatedAt = now
	s.catalog[entry.ID] = *entry
	return nil
}

func (c catalogStore) Find(_ context.Context, service domain.ServiceType, pkg domain.PackageType) (*domain.CatalogEntry, error) {
	s := c.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.catalog {
		if entry.ServiceType == service && entry.PackageType == pkg {
			return &entry, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (c catalogStore) List(_ context.Context, activeOnly bool) ([]domain.CatalogEntry, error) {
	s := c.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.CatalogEntry{}
	for _, entry := range s.catalog {
		if activeOnly && !entry.Active {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ServiceType != out[j].ServiceType {
			return out[i].ServiceType < out[j].ServiceType
		}
		return out[i].Price < out[j].Price
	})
	return out, nil
}

func (c catalogStore) Delete(_ context.Context, id string) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catalog[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.catalog, id)
	return nil
}
