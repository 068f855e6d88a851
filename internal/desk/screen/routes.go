package screen

import (
	"errors"
	"fmt"

	"kycdesk/internal/desk/api"
)

const (
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteDashboard    = "/"
	RouteCustomers    = "/customers"
	RouteApplications = "/applications"
	RouteReviewQueue  = "/review-queue"
)

var publicRoutes = map[string]bool{
	RouteLogin:    true,
	RouteRegister: true,
}

// Redirect tells the caller to navigate elsewhere instead of rendering.
type Redirect struct {
	To string
}

func (r *Redirect) Error() string {
	return "redirect to " + r.To
}

// NotFound is the explicit missing-record state with a path back.
type NotFound struct {
	What   string
	BackTo string
}

func (n *NotFound) Error() string {
	return fmt.Sprintf("%s not found", n.What)
}

// Protected reports whether route needs a session.
func Protected(route string) bool {
	return !publicRoutes[route]
}

// Guard returns a login redirect for protected routes without a session.
func (d *Dispatcher) Guard(route string) error {
	if Protected(route) && !d.auth.IsAuthenticated() {
		return &Redirect{To: RouteLogin}
	}
	return nil
}

// settle converts backend failures into screen states. Auth failures have
// already cleared the session in the client.
func settle(err error, what, backTo string) error {
	switch {
	case err == nil:
		return nil
	case api.IsAuth(err):
		return &Redirect{To: RouteLogin}
	case api.IsNotFound(err):
		return &NotFound{What: what, BackTo: backTo}
	default:
		return err
	}
}

// IsRedirect extracts a redirect target.
func IsRedirect(err error) (string, bool) {
	var r *Redirect
	if errors.As(err, &r) {
		return r.To, true
	}
	return "", false
}
