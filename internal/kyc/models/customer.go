package models

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"

	dErrors "kycdesk/pkg/domain-errors"
)

// Citizenship distinguishes Indonesian citizens (WNI) from foreign nationals (WNA).
type Citizenship string

const (
	CitizenshipWNI Citizenship = "WNI"
	CitizenshipWNA Citizenship = "WNA"
)

var nikPattern = regexp.MustCompile(`^\d{16}$`)

// ValidNIK reports whether nik is a 16-digit Nomor Induk Kependudukan.
func ValidNIK(nik string) bool {
	return nikPattern.MatchString(nik)
}

const dateLayout = "2006-01-02"

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, dErrors.New(dErrors.CodeValidation, "dates must use YYYY-MM-DD")
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Customer is a person registered for verification. A customer owns its
// applications; deleting it deletes them.
type Customer struct {
	ID          int64       `json:"id"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	DateOfBirth Date        `json:"dateOfBirth"`
	Citizenship Citizenship `json:"citizenship"`
	NIK         string      `json:"nik,omitempty"`
	NationalID  string      `json:"nationalId,omitempty"`
	PhoneNumber string      `json:"phoneNumber"`

	Address    string `json:"address"`
	Kelurahan  string `json:"kelurahan,omitempty"`
	Kecamatan  string `json:"kecamatan,omitempty"`
	Kabupaten  string `json:"kabupaten,omitempty"`
	Provinsi   string `json:"provinsi,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`

	Occupation  string `json:"occupation,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	LinkedinURL string `json:"linkedinUrl,omitempty"`

	RiskLevel RiskLevel           `json:"riskLevel,omitempty"`
	NetWorth  decimal.NullDecimal `json:"netWorth"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// IdentityNumber is the NIK for citizens and the passport-like ID otherwise.
func (c *Customer) IdentityNumber() string {
	if c.Citizenship == CitizenshipWNA {
		return c.NationalID
	}
	return c.NIK
}

// Normalize trims free-text fields in place.
func (c *Customer) Normalize() {
	for _, f := range []*string{
		&c.FirstName, &c.LastName, &c.Email, &c.NIK, &c.NationalID, &c.PhoneNumber,
		&c.Address, &c.Kelurahan, &c.Kecamatan, &c.Kabupaten, &c.Provinsi, &c.PostalCode,
		&c.Occupation, &c.CompanyName, &c.LinkedinURL,
	} {
		*f = strings.TrimSpace(*f)
	}
	c.Email = strings.ToLower(c.Email)
	c.Citizenship = Citizenship(strings.ToUpper(string(c.Citizenship)))
}

// Validate checks the registration rules. It expects Normalize to have run.
func (c *Customer) Validate(now time.Time) error {
	switch {
	case c.FirstName == "":
		return dErrors.New(dErrors.CodeValidation, "firstName is required")
	case c.LastName == "":
		return dErrors.New(dErrors.CodeValidation, "lastName is required")
	case !govalidator.IsEmail(c.Email):
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	case c.PhoneNumber == "":
		return dErrors.New(dErrors.CodeValidation, "phoneNumber is required")
	case c.Address == "":
		return dErrors.New(dErrors.CodeValidation, "address is required")
	case c.DateOfBirth.IsZero():
		return dErrors.New(dErrors.CodeValidation, "dateOfBirth is required")
	case !c.DateOfBirth.Before(now):
		return dErrors.New(dErrors.CodeValidation, "dateOfBirth must be in the past")
	}

	switch c.Citizenship {
	case CitizenshipWNI:
		if !ValidNIK(c.NIK) {
			return dErrors.New(dErrors.CodeValidation, "nik must be exactly 16 digits for WNI customers")
		}
	case CitizenshipWNA:
		if c.NationalID == "" {
			return dErrors.New(dErrors.CodeValidation, "nationalId is required for WNA customers")
		}
		if c.NIK != "" && !ValidNIK(c.NIK) {
			return dErrors.New(dErrors.CodeValidation, "nik must be exactly 16 digits")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "citizenship must be WNI or WNA")
	}

	if c.LinkedinURL != "" && !govalidator.IsURL(c.LinkedinURL) {
		return dErrors.New(dErrors.CodeValidation, "linkedinUrl must be a URL")
	}
	if c.NetWorth.Valid && c.NetWorth.Decimal.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "netWorth must not be negative")
	}
	if _, err := ParseRiskLevel(string(c.RiskLevel)); err != nil {
		return err
	}
	return nil
}
