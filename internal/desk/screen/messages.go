package screen

import (
	"errors"

	"kycdesk/internal/desk/api"
	dErrors "kycdesk/pkg/domain-errors"
)

// Lang selects the message catalog.
type Lang string

const (
	English    Lang = "en"
	Indonesian Lang = "id"
)

// ParseLang falls back to English.
func ParseLang(raw string) Lang {
	if Lang(raw) == Indonesian {
		return Indonesian
	}
	return English
}

type catalog struct {
	validation  string
	auth        string
	credentials string
	notFound    string
	conflict    string
	state       string
	transient   string
	timeout     string
	rateLimited string
	unexpected  string
}

var catalogs = map[Lang]catalog{
	English: {
		validation:  "Please check your input: ",
		auth:        "Your session has ended. Please sign in again.",
		credentials: "Invalid username or password.",
		notFound:    "The requested record could not be found.",
		conflict:    "This conflicts with an existing record: ",
		state:       "This action is not available right now: ",
		transient:   "The server is unavailable. Try again in a moment.",
		timeout:     "The server took too long to respond. Try again.",
		rateLimited: "Too many attempts. Wait a minute and try again.",
		unexpected:  "Something went wrong. Try again.",
	},
	Indonesian: {
		validation:  "Periksa kembali isian Anda: ",
		auth:        "Sesi Anda telah berakhir. Silakan masuk kembali.",
		credentials: "Nama pengguna atau kata sandi salah.",
		notFound:    "Data yang diminta tidak ditemukan.",
		conflict:    "Data bertentangan dengan data yang sudah ada: ",
		state:       "Tindakan ini tidak tersedia saat ini: ",
		transient:   "Server tidak tersedia. Coba lagi sebentar lagi.",
		timeout:     "Server terlalu lama merespons. Coba lagi.",
		rateLimited: "Terlalu banyak percobaan. Tunggu satu menit lalu coba lagi.",
		unexpected:  "Terjadi kesalahan. Coba lagi.",
	},
}

// Message turns any error into a user-facing line in lang. Validation,
// conflict and state errors keep the server's detail.
func Message(err error, lang Lang) string {
	if err == nil {
		return ""
	}
	c, ok := catalogs[lang]
	if !ok {
		c = catalogs[English]
	}

	var redirect *Redirect
	if errors.As(err, &redirect) || errors.Is(err, api.ErrSessionExpired) {
		return c.auth
	}
	var missing *NotFound
	if errors.As(err, &missing) {
		return c.notFound
	}

	var de *dErrors.Error
	if !errors.As(err, &de) {
		return c.unexpected
	}
	switch de.Code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return c.validation + de.Message
	case dErrors.CodeUnauthorized:
		return c.credentials
	case dErrors.CodeForbidden:
		return c.auth
	case dErrors.CodeNotFound:
		return c.notFound
	case dErrors.CodeConflict:
		return c.conflict + de.Message
	case dErrors.CodeInvalidState:
		return c.state + de.Message
	case dErrors.CodeUnavailable:
		return c.transient
	case dErrors.CodeTimeout:
		return c.timeout
	case dErrors.CodeRateLimited:
		return c.rateLimited
	default:
		return c.unexpected
	}
}
