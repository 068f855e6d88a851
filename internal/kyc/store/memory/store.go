// Package memory is the in-process KYC store used when no database is
// configured and in tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"kycdesk/internal/kyc/models"
	"kycdesk/pkg/platform/sentinel"
)

// Store keeps customers, applications and documents in maps guarded by one
// RWMutex. Values are cloned on the way in and out.
type Store struct {
	mu           sync.RWMutex
	customers    map[int64]*models.Customer
	applications map[int64]*models.Application
	documents    map[int64][]models.Document
	nextCustomer int64
	nextApp      int64
	nextDoc      int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		customers:    make(map[int64]*models.Customer),
		applications: make(map[int64]*models.Application),
		documents:    make(map[int64][]models.Document),
	}
}

func cloneCustomer(c *models.Customer) *models.Customer {
	cp := *c
	return &cp
}

func (s *Store) uniqueCustomer(c *models.Customer) error {
	for _, existing := range s.customers {
		if existing.ID == c.ID {
			continue
		}
		if strings.EqualFold(existing.Email, c.Email) {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		if c.NIK != "" && existing.NIK == c.NIK {
			return fmt.Errorf("nik already registered: %w", sentinel.ErrConflict)
		}
	}
	return nil
}

func (s *Store) CreateCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.uniqueCustomer(c); err != nil {
		return err
	}
	s.nextCustomer++
	c.ID = s.nextCustomer
	s.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (s *Store) FindCustomer(_ context.Context, id int64) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCustomer(c), nil
}

func (s *Store) ListCustomers(_ context.Context) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, cloneCustomer(c))
	}
	slices.SortFunc(out, func(a, b *models.Customer) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if err := s.uniqueCustomer(c); err != nil {
		return err
	}
	s.customers[c.ID] = cloneCustomer(c)
	return nil
}

// DeleteCustomer removes the customer with its applications and documents
// and returns the file URLs of the removed documents.
func (s *Store) DeleteCustomer(_ context.Context, id int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return nil, sentinel.ErrNotFound
	}
	var urls []string
	for appID, app := range s.applications {
		if app.CustomerID != id {
			continue
		}
		for _, doc := range s.documents[appID] {
			if doc.FileURL != "" {
				urls = append(urls, doc.FileURL)
			}
		}
		delete(s.documents, appID)
		delete(s.applications, appID)
	}
	delete(s.customers, id)
	return urls, nil
}

func (s *Store) CreateApplication(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[app.CustomerID]; !ok {
		return fmt.Errorf("customer %d: %w", app.CustomerID, sentinel.ErrNotFound)
	}
	for _, existing := range s.applications {
		if app.ProviderApplicantID != "" && existing.ProviderApplicantID == app.ProviderApplicantID {
			return fmt.Errorf("provider applicant id in use: %w", sentinel.ErrConflict)
		}
	}
	s.nextApp++
	app.ID = s.nextApp
	stored := app.Clone()
	stored.Customer = nil
	stored.Documents = nil
	s.applications[app.ID] = stored
	return nil
}

// hydrate attaches the owner and documents. Caller holds at least a read lock.
func (s *Store) hydrate(app *models.Application) *models.Application {
	out := app.Clone()
	if c, ok := s.customers[app.CustomerID]; ok {
		out.Customer = cloneCustomer(c)
	}
	out.Documents = append([]models.Document{}, s.documents[app.ID]...)
	return out
}

func (s *Store) FindApplication(_ context.Context, id int64) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.hydrate(app), nil
}

// FindApplicationForUpdate is FindApplication; writers are serialised by
// the caller's transaction runner.
func (s *Store) FindApplicationForUpdate(ctx context.Context, id int64) (*models.Application, error) {
	return s.FindApplication(ctx, id)
}

func (s *Store) FindByProviderApplicantID(_ context.Context, providerID string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.applications {
		if app.ProviderApplicantID == providerID {
			return s.hydrate(app), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListApplications(_ context.Context, filter models.ApplicationFilter) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Application, 0)
	for _, app := range s.applications {
		if filter.Matches(app) {
			out = append(out, s.hydrate(app))
		}
	}
	slices.SortFunc(out, func(a, b *models.Application) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) UpdateApplication(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[app.ID]; !ok {
		return sentinel.ErrNotFound
	}
	stored := app.Clone()
	stored.Customer = nil
	stored.Documents = nil
	s.applications[app.ID] = stored
	return nil
}

func (s *Store) AddDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[doc.ApplicationID]; !ok {
		return sentinel.ErrNotFound
	}
	s.nextDoc++
	doc.ID = s.nextDoc
	s.documents[doc.ApplicationID] = append(s.documents[doc.ApplicationID], *doc)
	return nil
}
