package screen

import (
	"context"
	"fmt"

	"kycdesk/internal/kyc/models"
)

func customerRoute(id int64) string {
	return fmt.Sprintf("%s/%d", RouteCustomers, id)
}

// Customers lists all customers.
func (d *Dispatcher) Customers(ctx context.Context) ([]*models.Customer, error) {
	if err := d.Guard(RouteCustomers); err != nil {
		return nil, err
	}
	customers, err := d.backend.ListCustomers(ctx)
	if err != nil {
		return nil, settle(err, "customers", RouteDashboard)
	}
	return customers, nil
}

// OpenCustomer loads a customer with its applications.
func (d *Dispatcher) OpenCustomer(ctx context.Context, id int64) (*CustomerView, error) {
	if err := d.Guard(customerRoute(id)); err != nil {
		return nil, err
	}
	return d.customerView(ctx, id)
}

func (d *Dispatcher) customerView(ctx context.Context, id int64) (*CustomerView, error) {
	customer, err := d.backend.GetCustomer(ctx, id)
	if err != nil {
		return nil, settle(err, "customer", RouteCustomers)
	}
	apps, err := d.backend.ListByCustomer(ctx, id)
	if err != nil {
		return nil, settle(err, "customer", RouteCustomers)
	}
	return &CustomerView{
		Customer:     customer,
		RiskLevel:    customer.RiskLevel.Label(),
		Applications: NewApplicationRows(apps),
	}, nil
}

// CreateCustomer validates locally, creates, then loads the new record.
func (d *Dispatcher) CreateCustomer(ctx context.Context, customer *models.Customer) (*CustomerView, error) {
	if err := d.Guard(RouteCustomers); err != nil {
		return nil, err
	}
	customer.Normalize()
	if err := customer.Validate(d.now()); err != nil {
		return nil, err
	}
	created, err := d.backend.CreateCustomer(ctx, customer)
	if err != nil {
		return nil, settle(err, "customer", RouteCustomers)
	}
	return d.customerView(ctx, created.ID)
}

// UpdateCustomer validates locally, saves, then reloads.
func (d *Dispatcher) UpdateCustomer(ctx context.Context, id int64, customer *models.Customer) (*CustomerView, error) {
	if err := d.Guard(customerRoute(id)); err != nil {
		return nil, err
	}
	customer.Normalize()
	if err := customer.Validate(d.now()); err != nil {
		return nil, err
	}
	if _, err := d.backend.UpdateCustomer(ctx, id, customer); err != nil {
		return nil, settle(err, "customer", RouteCustomers)
	}
	return d.customerView(ctx, id)
}

// DeleteCustomer removes a customer with its applications and returns the
// refreshed list.
func (d *Dispatcher) DeleteCustomer(ctx context.Context, id int64) ([]*models.Customer, error) {
	if err := d.Guard(customerRoute(id)); err != nil {
		return nil, err
	}
	if err := d.backend.DeleteCustomer(ctx, id); err != nil {
		return nil, settle(err, "customer", RouteCustomers)
	}
	return d.Customers(ctx)
}
