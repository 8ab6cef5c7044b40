package model

// Filing is the extracted summary record for one e-filed Form 990 return.
// One Filing is produced per source document; it is never mutated after
// assembly; re-running extraction on the same document supersedes the
// earlier record.
//
// Nullable fields are pointers so that "not reported" serializes as JSON
// null rather than a zero value. Field order here is the serialization
// order and must stay stable across releases.
type Filing struct {
	ObjectID string `json:"object_id"` // IRS object ID, globally unique
	FormType string `json:"form_type"` // always "990" for this engine

	// Header / identity
	EIN            *string `json:"ein"` // may not resolve to a known organization
	TaxYear        *int64  `json:"tax_year"`
	TaxPeriodBegin *string `json:"tax_period_begin"`
	TaxPeriodEnd   *string `json:"tax_period_end"`
	OrgName        *string `json:"org_name"`
	OrgCity        *string `json:"org_city"`
	OrgState       *string `json:"org_state"`
	OrgZip         *string `json:"org_zip"`
	OrgPhone       *string `json:"org_phone"`
	Website        *string `json:"website"`
	YearFormation  *int64  `json:"year_formation"`

	// Named officers
	PrincipalOfficerName *string `json:"principal_officer_name"`
	SigningOfficerName   *string `json:"signing_officer_name"`
	SigningOfficerTitle  *string `json:"signing_officer_title"`
	SigningOfficerPhone  *string `json:"signing_officer_phone"`

	// Part I summary
	Mission                     *string `json:"mission"`
	NumVotingMembers            *int64  `json:"num_voting_members"`
	NumVotingMembersIndependent *int64  `json:"num_voting_members_independent"`
	NumEmployees                *int64  `json:"num_employees"`
	NumVolunteers               *int64  `json:"num_volunteers"`
	ContributionsGrantsCY       *int64  `json:"contributions_grants_cy"`
	ProgramServiceRevenueCY     *int64  `json:"program_service_revenue_cy"`
	InvestmentIncomeCY          *int64  `json:"investment_income_cy"`
	OtherRevenueCY              *int64  `json:"other_revenue_cy"`
	TotalRevenueCY              *int64  `json:"total_revenue_cy"`
	TotalRevenuePY              *int64  `json:"total_revenue_py"`
	GrantsSimilarCY             *int64  `json:"grants_similar_cy"`
	SalariesCY                  *int64  `json:"salaries_cy"`
	TotalExpensesCY             *int64  `json:"total_expenses_cy"`
	TotalExpensesPY             *int64  `json:"total_expenses_py"`
	RevenueLessExpensesCY       *int64  `json:"revenue_less_expenses_cy"`
	TotalAssetsBOY              *int64  `json:"total_assets_boy"`
	TotalAssetsEOY              *int64  `json:"total_assets_eoy"`
	TotalLiabilitiesBOY         *int64  `json:"total_liabilities_boy"`
	TotalLiabilitiesEOY         *int64  `json:"total_liabilities_eoy"`
	NetAssetsBOY                *int64  `json:"net_assets_boy"`
	NetAssetsEOY                *int64  `json:"net_assets_eoy"`

	// Part VIII line 1g
	NoncashContributionsTotal *int64 `json:"noncash_contributions_total"`

	// Derived: true iff the Schedule M sub-extraction yielded at least one
	// received property type; falls back to the Part IV indicator when the
	// schedule itself is absent.
	HasScheduleM *bool `json:"has_schedule_m"`

	// Set when the schema version resolver had to fall back to the default
	// version group because the document carried no usable version metadata.
	LowConfidenceVersion bool `json:"low_confidence_version"`
}
