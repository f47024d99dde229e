package model

// LegalBasis enumerates GDPR Article 6 processing justifications.
type LegalBasis string

const (
	// BasisConsent covers data the user explicitly opted into sharing.
	BasisConsent LegalBasis = "consent"
	// BasisContract covers data required to deliver the platform service.
	BasisContract LegalBasis = "contract"
	// BasisLegitimateInterest covers operational data such as audit trails.
	BasisLegitimateInterest LegalBasis = "legitimate_interest"
)

// DataCategory describes one class of captured personal data: what is
// collected, why, where it lives, and how long it may be kept.
// RetentionDays of zero means the data is held until account deletion.
type DataCategory struct {
	Name            string
	Description     string
	DataPoints      []string
	LegalBasis      LegalBasis
	RetentionDays   int
	Storage         string
	FeedsAI         bool
	AITarget        string
	GDPRExportable  bool
	GDPRDeletable   bool
}
