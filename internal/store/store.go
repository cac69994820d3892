// Package store implements the in-memory mock database of users and
// products that the tool catalog operates on.
//
// The store is an explicit object injected into its consumers, not a
// package-level singleton. All state lives in process memory and is
// wiped on restart; the system has no real persistence.
//
// Thread Safety: every operation takes the store's RWMutex, so single
// field updates are atomic and snapshots are consistent. Callers only
// ever see deep copies; mutating a returned value never changes the
// store retroactively.
package store

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// UserStatus values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is a mutable record keyed by ID. Name, Email, and Status may be
// updated in place; users are created only by seeding and never deleted.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// Product is read-only after seeding: no update tool exists for it.
type Product struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Stock int      `json:"stock"`
	Tags  []string `json:"tags,omitempty"`
}

// Snapshot is a deep-copied view of both tables at a point in time.
type Snapshot struct {
	Users    []User    `json:"users"`
	Products []Product `json:"products"`
}

// Updatable user fields, checked by UpdateUserRecord. The dispatcher
// also validates against this set before calling the store, so an
// unknown field never reaches a write path.
const (
	FieldName   = "name"
	FieldEmail  = "email"
	FieldStatus = "status"
)

// UpdatableField reports whether field names a user field that
// UpdateUserRecord may write.
func UpdatableField(field string) bool {
	switch field {
	case FieldName, FieldEmail, FieldStatus:
		return true
	default:
		return false
	}
}

// emailPattern is the naive local@domain.tld check the original demo
// used. It is deliberately loose; this is seed data, not an RFC parser.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Seed content. Reset always restores exactly these records via deep
// copy, never by aliasing the seed slices.
var seedUsers = []User{
	{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com", Status: StatusActive},
	{ID: "u2", Name: "Alan Turing", Email: "alan@example.com", Status: StatusInactive},
}

var seedProducts = []Product{
	{ID: "p1", Name: "iPhone 15", Price: 999, Stock: 5, Tags: []string{"phone"}},
	{ID: "p2", Name: "Pixel 8", Price: 799, Stock: 7, Tags: []string{"phone"}},
}

// Store owns the two tables exclusively. Construct with New, inject as
// a dependency, and reset on demand.
type Store struct {
	mu       sync.RWMutex
	users    []User
	products []Product
	logger   *slog.Logger
}

// New creates a store populated with the seed data.
// A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		users:    copyUsers(seedUsers),
		products: copyProducts(seedProducts),
		logger:   logger,
	}
}

// SearchUser returns a copy of the user with the given ID, or nil when
// no user matches. "Not found" is a normal result, never an error.
func (s *Store) SearchUser(id string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u
		}
	}
	return nil
}

// SearchUsersByName returns copies of all users whose name contains the
// query, case-insensitively. An empty or whitespace-only query returns
// an empty result rather than every user; dumping the whole table by
// accident is worse than returning nothing.
func (s *Store) SearchUsersByName(query string) []User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []User{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []User{}
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Name), q) {
			matches = append(matches, u)
		}
	}
	return matches
}

// SearchProduct returns copies of all products whose name contains the
// query, case-insensitively. Unlike SearchUsersByName, an empty query
// matches every product. The asymmetry is inherited from the original
// behavior and kept on purpose; changing it is a behavior change, not
// a cleanup.
func (s *Store) SearchProduct(name string) []Product {
	q := strings.ToLower(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []Product{}
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			matches = append(matches, copyProduct(p))
		}
	}
	return matches
}

// UpdateUserRecord sets one field of one user and returns a copy of the
// updated record. A missing user yields (nil, nil); not found is not
// an error, and value validation only applies to users that exist. An
// unknown field yields ErrUnknownField; a malformed email on an
// existing user yields ErrInvalidEmail. On any error the store is
// untouched.
func (s *Store) UpdateUserRecord(id, field, value string) (*User, error) {
	if !UpdatableField(field) {
		return nil, fmt.Errorf("%w: %q (allowed: name, email, status)", ErrUnknownField, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID != id {
			continue
		}
		if field == FieldEmail && !emailPattern.MatchString(value) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, value)
		}
		switch field {
		case FieldName:
			s.users[i].Name = value
		case FieldEmail:
			s.users[i].Email = value
		case FieldStatus:
			s.users[i].Status = value
		}
		s.logger.Debug("user record updated", "id", id, "field", field)
		u := s.users[i]
		return &u, nil
	}
	return nil, nil
}

// ListUsers returns a copy of the user table in seed order.
func (s *Store) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUsers(s.users)
}

// ListProducts returns a copy of the product table in seed order.
func (s *Store) ListProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProducts(s.products)
}

// Reset restores both tables to exactly the seed content and returns
// the resulting snapshot.
func (s *Store) Reset() Snapshot {
	s.mu.Lock()
	s.users = copyUsers(seedUsers)
	s.products = copyProducts(seedProducts)
	s.mu.Unlock()

	s.logger.Debug("store reset to seed data")
	return s.Snapshot()
}

// Snapshot returns a deep copy of both tables. Mutating the returned
// value has no effect on the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Users:    copyUsers(s.users),
		Products: copyProducts(s.products),
	}
}

func copyUsers(src []User) []User {
	dst := make([]User, len(src))
	copy(dst, src)
	return dst
}

func copyProduct(p Product) Product {
	cp := p
	if p.Tags != nil {
		cp.Tags = make([]string, len(p.Tags))
		copy(cp.Tags, p.Tags)
	}
	return cp
}

func copyProducts(src []Product) []Product {
	dst := make([]Product, len(src))
	for i, p := range src {
		dst[i] = copyProduct(p)
	}
	return dst
}
