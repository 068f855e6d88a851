package models

import (
	"strings"
	"time"

	dErrors "kycdesk/pkg/domain-errors"
)

// DocumentType is the closed set of Indonesian KYC evidence kinds.
type DocumentType string

const (
	DocKTPFront             DocumentType = "KTP_FRONT"
	DocKTPBack              DocumentType = "KTP_BACK"
	DocPassport             DocumentType = "PASSPORT"
	DocKITAS                DocumentType = "KITAS"
	DocKITAP                DocumentType = "KITAP"
	DocSelfieWithKTP        DocumentType = "SELFIE_WITH_KTP"
	DocBankStatement        DocumentType = "BANK_STATEMENT"
	DocRekeningKoran        DocumentType = "REKENING_KORAN"
	DocSPTPajak             DocumentType = "SPT_PAJAK"
	DocSlipGaji             DocumentType = "SLIP_GAJI"
	DocKartuKeluarga        DocumentType = "KARTU_KELUARGA"
	DocSuratDomisili        DocumentType = "SURAT_DOMISILI"
	DocResume               DocumentType = "RESUME"
	DocSuratKeteranganKerja DocumentType = "SURAT_KETERANGAN_KERJA"
	DocNPWP                 DocumentType = "NPWP"
)

var documentLabels = map[DocumentType]string{
	DocKTPFront:             "KTP (Depan)",
	DocKTPBack:              "KTP (Belakang)",
	DocPassport:             "Passport",
	DocKITAS:                "KITAS",
	DocKITAP:                "KITAP",
	DocSelfieWithKTP:        "Selfie dengan KTP",
	DocBankStatement:        "Bank Statement",
	DocRekeningKoran:        "Rekening Koran",
	DocSPTPajak:             "SPT Pajak",
	DocSlipGaji:             "Slip Gaji",
	DocKartuKeluarga:        "Kartu Keluarga",
	DocSuratDomisili:        "Surat Domisili",
	DocResume:               "Resume/CV",
	DocSuratKeteranganKerja: "Surat Keterangan Kerja",
	DocNPWP:                 "NPWP",
}

// AllDocumentTypes lists every document kind.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocKTPFront, DocKTPBack, DocPassport, DocKITAS, DocKITAP, DocSelfieWithKTP,
		DocBankStatement, DocRekeningKoran, DocSPTPajak, DocSlipGaji, DocKartuKeluarga,
		DocSuratDomisili, DocResume, DocSuratKeteranganKerja, DocNPWP,
	}
}

// ParseDocumentType accepts a type name in any case.
func ParseDocumentType(raw string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := documentLabels[t]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "unknown document type: "+raw)
	}
	return t, nil
}

// Label returns the display label, or the raw value for an unknown type.
func (t DocumentType) Label() string {
	if l, ok := documentLabels[t]; ok {
		return l
	}
	return string(t)
}

// ProvesIdentity reports whether t is a primary identity document.
func (t DocumentType) ProvesIdentity() bool {
	return t == DocKTPFront || t == DocPassport
}

// IsBankStatement covers the English and Indonesian names of the same document.
func (t DocumentType) IsBankStatement() bool {
	return t == DocBankStatement || t == DocRekeningKoran
}

// Document is an uploaded evidentiary file. Immutable once stored.
type Document struct {
	ID            int64        `json:"id"`
	ApplicationID int64        `json:"applicationId"`
	DocumentType  DocumentType `json:"documentType"`
	FileName      string       `json:"fileName"`
	FileURL       string       `json:"fileUrl"`
	UploadedAt    time.Time    `json:"uploadedAt"`
}
