package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycdesk/internal/agent"
	authmodels "kycdesk/internal/auth/models"
	"kycdesk/internal/kyc/models"
	"kycdesk/pkg/testutil"
)

type fakeBackend struct {
	router    chi.Router
	server    *httptest.Server
	decisions atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	f := &fakeBackend{router: chi.NewRouter()}
	f.server = httptest.NewServer(f.router)
	t.Cleanup(f.server.Close)

	reply := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				reply(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next(w, r)
		}
	}
	f.router.Post("/api/auth/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var creds authmodels.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "password123" {
			reply(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "error_description": "invalid credentials"})
			return
		}
		reply(w, http.StatusOK, authmodels.AuthResponse{
			Token: "tok", UserID: 1, Username: creds.Username, Role: authmodels.RoleAdmin,
			ExpiresAt: time.Now().Add(time.Hour),
		})
	})
	f.router.Get("/api/kyc/review-queue", authed(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []*models.Application{{
			ID: 3, Status: models.StatusUnderReview, RiskScore: models.MustRiskScore(35),
			Customer: &models.Customer{FirstName: "Siti", LastName: "Rahma"},
		}})
	}))
	f.router.Get("/api/kyc/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, models.Application{ID: 3, Status: models.StatusUnderReview})
	}))
	f.router.Post("/api/kyc/{id}/reject", authed(func(w http.ResponseWriter, r *http.Request) {
		f.decisions.Add(1)
		reply(w, http.StatusOK, models.Application{ID: 3, Status: models.StatusRejected})
	}))
	f.router.Post("/api/agent/quick/{customerId}", authed(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, agent.QuickAssessment{
			QuickAssessment: true, RiskScore: 65,
			RiskIndicators: []string{"pep_possible"}, Recommendation: "MANUAL_REVIEW",
		})
	}))
	return f
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestConsole(t *testing.T) {
	backend := newFakeBackend(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KYCDESK_SERVER", backend.server.URL)
	t.Setenv("KYCDESK_SESSION_PATH", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("KYCDESK_PASSWORD", "")

	testutil.Given(t, "no stored session", func(t *testing.T) {
		testutil.When(t, "listing the queue", func(t *testing.T) {
			code, _, stderr := runCLI(t, "queue")
			testutil.Then(t, "the operator is sent to login", func(t *testing.T) {
				assert.Equal(t, 1, code)
				assert.Contains(t, stderr, "kycdesk login")
			})
		})

		testutil.When(t, "logging in with a wrong password", func(t *testing.T) {
			code, _, stderr := runCLI(t, "login", "reviewer", "--password", "wrong-password")
			testutil.Then(t, "credentials are refused", func(t *testing.T) {
				assert.Equal(t, 1, code)
				assert.Contains(t, stderr, "Invalid username or password.")
			})
		})
	})

	testutil.Given(t, "a signed-in reviewer", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "login", "reviewer", "--password", "password123")
		require.Equal(t, 0, code)
		assert.Contains(t, stdout, "Signed in as reviewer (ADMIN)")

		testutil.When(t, "listing the queue", func(t *testing.T) {
			code, stdout, _ := runCLI(t, "queue")
			testutil.Then(t, "rows show the derived tier", func(t *testing.T) {
				assert.Equal(t, 0, code)
				assert.Contains(t, stdout, "Siti Rahma")
				assert.Contains(t, stdout, "High Risk")
			})
		})

		testutil.When(t, "rejecting without a reason", func(t *testing.T) {
			code, _, stderr := runCLI(t, "--lang", "id", "reject", "3")
			testutil.Then(t, "nothing is sent", func(t *testing.T) {
				assert.Equal(t, 1, code)
				assert.Contains(t, stderr, "Periksa kembali isian Anda")
				assert.Zero(t, backend.decisions.Load())
			})
		})

		testutil.When(t, "rejecting with a reason", func(t *testing.T) {
			code, stdout, _ := runCLI(t, "reject", "3", "--reason", "Unverifiable address")
			testutil.Then(t, "the decision is dispatched once", func(t *testing.T) {
				assert.Equal(t, 0, code)
				assert.Equal(t, int32(1), backend.decisions.Load())
				assert.Contains(t, stdout, "Application")
			})
		})

		testutil.When(t, "asking for a quick assessment", func(t *testing.T) {
			code, stdout, _ := runCLI(t, "agent", "--quick", "3")
			testutil.Then(t, "the advisory result is printed", func(t *testing.T) {
				assert.Equal(t, 0, code)
				assert.Contains(t, stdout, "MANUAL_REVIEW")
				assert.Contains(t, stdout, "pep_possible")
				assert.Contains(t, stdout, "35 (High Risk)")
			})
		})

		testutil.When(t, "logging out", func(t *testing.T) {
			code, _, _ := runCLI(t, "logout")
			require.Equal(t, 0, code)
			code, _, _ = runCLI(t, "queue")
			testutil.Then(t, "protected commands redirect again", func(t *testing.T) {
				assert.Equal(t, 1, code)
			})
		})
	})
}

func TestUnknownCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KYCDESK_SESSION_STORE", "memory")
	code, _, stderr := runCLI(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}
