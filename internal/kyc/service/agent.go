package service

import (
	"context"
	"strconv"

	"kycdesk/internal/agent"
)

// AgentHealth proxies the agent's health probe.
func (s *Service) AgentHealth(ctx context.Context) (*agent.Health, error) {
	h, err := s.agent.Health(ctx)
	if err != nil {
		return nil, agent.AsDomainError(err)
	}
	return h, nil
}

// AgentInfo proxies the agent's self-description.
func (s *Service) AgentInfo(ctx context.Context) (*agent.Info, error) {
	info, err := s.agent.Info(ctx)
	if err != nil {
		return nil, agent.AsDomainError(err)
	}
	return info, nil
}

// QuickAssess asks the agent for a single-pass screening of a customer.
// Nothing is persisted; the result is advisory.
func (s *Service) QuickAssess(ctx context.Context, customerID int64) (*agent.QuickAssessment, error) {
	c, err := s.store.FindCustomer(ctx, customerID)
	if err != nil {
		return nil, storeErr(err, "customer")
	}
	qa, err := s.agent.QuickAssess(ctx, agent.AnalyzeRequest{
		CustomerID:  strconv.FormatInt(c.ID, 10),
		Name:        c.FullName(),
		NIK:         c.IdentityNumber(),
		LinkedinURL: c.LinkedinURL,
		CompanyName: c.CompanyName,
	})
	if err != nil {
		return nil, agent.AsDomainError(err)
	}
	s.logger.InfoContext(ctx, "quick assessment returned",
		"customer_id", customerID,
		"recommendation", qa.Recommendation,
	)
	return qa, nil
}
