package policy

import "github.com/careertrojan/ops-core/internal/model"

// DefaultCatalogue lists every data category the platform captures.
// Entries must be kept in lockstep with what the portals actually collect;
// retention and export tooling trusts this table without further checks.
func DefaultCatalogue() []model.DataCategory {
	return []model.DataCategory{
		{
			Name:           "resume_uploads",
			Description:    "Raw resumes uploaded by candidates and parsed extraction results",
			DataPoints:     []string{"file_name", "file_content", "parsed_fields", "upload_time"},
			LegalBasis:     model.BasisConsent,
			RetentionDays:  365,
			Storage:        "uploads/resumes",
			FeedsAI:        true,
			AITarget:       "resume_corpus",
			GDPRExportable: true,
			GDPRDeletable:  true,
		},
		{
			Name:           "candidate_profiles",
			Description:    "Account profile data entered by users across portals",
			DataPoints:     []string{"full_name", "email", "headline", "skills", "experience", "education"},
			LegalBasis:     model.BasisContract,
			RetentionDays:  0,
			Storage:        "database/users",
			FeedsAI:        false,
			GDPRExportable: true,
			GDPRDeletable:  true,
		},
		{
			Name:           "job_interactions",
			Description:    "Applications, saves, and views of job postings",
			DataPoints:     []string{"job_id", "action", "timestamp", "source_portal"},
			LegalBasis:     model.BasisLegitimateInterest,
			RetentionDays:  180,
			Storage:        "database/job_events",
			FeedsAI:        true,
			AITarget:       "interaction_signals",
			GDPRExportable: true,
			GDPRDeletable:  true,
		},
		{
			Name:           "assessment_feedback",
			Description:    "Mentor and reviewer feedback on candidate assessments",
			DataPoints:     []string{"assessment_id", "reviewer_id", "scores", "comments"},
			LegalBasis:     model.BasisConsent,
			RetentionDays:  730,
			Storage:        "database/feedback",
			FeedsAI:        true,
			AITarget:       "feedback_corpus",
			GDPRExportable: true,
			GDPRDeletable:  true,
		},
		{
			Name:           "mentor_sessions",
			Description:    "Scheduling and notes for mentor sessions",
			DataPoints:     []string{"mentor_id", "mentee_id", "scheduled_at", "session_notes"},
			LegalBasis:     model.BasisContract,
			RetentionDays:  365,
			Storage:        "database/sessions",
			FeedsAI:        false,
			GDPRExportable: true,
			GDPRDeletable:  true,
		},
		{
			Name:           "company_intelligence",
			Description:    "Enriched company records built from public sources",
			DataPoints:     []string{"company_name", "industry", "size_estimate", "enrichment_notes"},
			LegalBasis:     model.BasisLegitimateInterest,
			RetentionDays:  0,
			Storage:        "database/companies",
			FeedsAI:        true,
			AITarget:       "company_corpus",
			GDPRExportable: false,
			GDPRDeletable:  false,
		},
		{
			Name:           "interaction_events",
			Description:    "Append-only structured log of user and system actions",
			DataPoints:     []string{"event_id", "user_id", "action_type", "artifacts", "delta_summary"},
			LegalBasis:     model.BasisLegitimateInterest,
			RetentionDays:  90,
			Storage:        "interaction_logs",
			FeedsAI:        true,
			AITarget:       "interaction_signals",
			GDPRExportable: true,
			GDPRDeletable:  false,
		},
		{
			Name:           "account_credentials",
			Description:    "Authentication material and second-factor enrollment",
			DataPoints:     []string{"email", "password_hash", "two_factor_enrolled"},
			LegalBasis:     model.BasisContract,
			RetentionDays:  0,
			Storage:        "database/auth",
			FeedsAI:        false,
			GDPRExportable: false,
			GDPRDeletable:  true,
		},
	}
}
