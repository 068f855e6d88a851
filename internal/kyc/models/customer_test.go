package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	dErrors "kycdesk/pkg/domain-errors"
)

type CustomerSuite struct {
	suite.Suite
	now time.Time
}

func TestCustomerSuite(t *testing.T) {
	suite.Run(t, new(CustomerSuite))
}

func (s *CustomerSuite) SetupTest() {
	s.now = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
}

func (s *CustomerSuite) citizen() *Customer {
	dob, err := ParseDate("1990-04-12")
	s.Require().NoError(err)
	return &Customer{
		FirstName:   " Siti ",
		LastName:    "Rahayu",
		Email:       "Siti.Rahayu@Example.com",
		DateOfBirth: dob,
		Citizenship: "wni",
		NIK:         "3174051204900001",
		PhoneNumber: "+6281234567890",
		Address:     "Jl. Melati No. 5",
		Kelurahan:   "Menteng",
		Kecamatan:   "Menteng",
		Kabupaten:   "Jakarta Pusat",
		Provinsi:    "DKI Jakarta",
	}
}

func (s *CustomerSuite) TestValidCitizen() {
	c := s.citizen()
	c.Normalize()
	s.Require().NoError(c.Validate(s.now))
	s.Equal("Siti", c.FirstName)
	s.Equal("siti.rahayu@example.com", c.Email)
	s.Equal(CitizenshipWNI, c.Citizenship)
	s.Equal("3174051204900001", c.IdentityNumber())
	s.Equal("Siti Rahayu", c.FullName())
}

func (s *CustomerSuite) TestValidationFailures() {
	cases := map[string]func(c *Customer){
		"nik too short":        func(c *Customer) { c.NIK = "317405" },
		"nik with letters":     func(c *Customer) { c.NIK = "31740512049000AB" },
		"bad email":            func(c *Customer) { c.Email = "not-an-email" },
		"future birth date":    func(c *Customer) { c.DateOfBirth = Date{Time: s.now.AddDate(1, 0, 0)} },
		"unknown citizenship":  func(c *Customer) { c.Citizenship = "XX" },
		"bad linkedin":         func(c *Customer) { c.LinkedinURL = "not a url" },
		"negative net worth":   func(c *Customer) { c.NetWorth = decimal.NewNullDecimal(decimal.NewFromInt(-5)) },
		"unknown risk level":   func(c *Customer) { c.RiskLevel = "SEVERE" },
		"foreigner without id": func(c *Customer) { c.Citizenship = CitizenshipWNA; c.NIK = "" },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			c := s.citizen()
			c.Normalize()
			mutate(c)
			err := c.Validate(s.now)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *CustomerSuite) TestForeignerUsesNationalID() {
	c := s.citizen()
	c.Citizenship = CitizenshipWNA
	c.NIK = ""
	c.NationalID = "X1234567"
	c.Normalize()
	s.Require().NoError(c.Validate(s.now))
	s.Equal("X1234567", c.IdentityNumber())
}
