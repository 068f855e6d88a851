package service

import (
	"context"

	"kycdesk/internal/kyc/models"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/requestcontext"
)

func (s *Service) CreateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	requestID := requestcontext.RequestID(ctx)
	now := requestcontext.Now(ctx)

	c.Normalize()
	if err := c.Validate(now); err != nil {
		return nil, err
	}
	c.ID = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		if dErrors.HasCode(storeErr(err, "customer"), dErrors.CodeConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "a customer with this email or NIK already exists")
		}
		s.logger.ErrorContext(ctx, "failed to create customer",
			"error", err,
			"request_id", requestID,
		)
		return nil, storeErr(err, "customer")
	}
	s.logger.InfoContext(ctx, "customer created",
		"customer_id", c.ID,
		"request_id", requestID,
	)
	return c, nil
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	c, err := s.store.FindCustomer(ctx, id)
	if err != nil {
		return nil, storeErr(err, "customer")
	}
	return c, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	out, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, storeErr(err, "customers")
	}
	return out, nil
}

// UpdateCustomer replaces the editable fields of customer id with c.
func (s *Service) UpdateCustomer(ctx context.Context, id int64, c *models.Customer) (*models.Customer, error) {
	now := requestcontext.Now(ctx)
	existing, err := s.store.FindCustomer(ctx, id)
	if err != nil {
		return nil, storeErr(err, "customer")
	}

	c.Normalize()
	if err := c.Validate(now); err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = now
	if err := s.store.UpdateCustomer(ctx, c); err != nil {
		if dErrors.HasCode(storeErr(err, "customer"), dErrors.CodeConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "a customer with this email or NIK already exists")
		}
		return nil, storeErr(err, "customer")
	}
	return c, nil
}

// DeleteCustomer hard-deletes the customer, its applications and their
// documents. The store reports the stored files it dropped, and they are
// removed once the transaction commits.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	requestID := requestcontext.RequestID(ctx)
	var urls []string
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		removed, err := store.DeleteCustomer(ctx, id)
		if err != nil {
			return storeErr(err, "customer")
		}
		urls = removed
		return nil
	})
	if err != nil {
		return err
	}

	for _, url := range urls {
		if err := s.files.Delete(ctx, url); err != nil {
			s.logger.WarnContext(ctx, "failed to remove stored document",
				"error", err,
				"file_url", url,
				"request_id", requestID,
			)
		}
	}
	s.logger.InfoContext(ctx, "customer deleted",
		"customer_id", id,
		"documents_removed", len(urls),
		"request_id", requestID,
	)
	return nil
}
