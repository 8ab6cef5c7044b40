package model

// Organization is one 501(c)(3) record from the IRS Exempt Organizations
// Business Master File. The registry is join material for downstream
// consumers; the extraction engine itself never enforces referential
// integrity against it (orphan filings are retained).
type Organization struct {
	EIN               string  `json:"ein"`
	Name              *string `json:"name"`
	SortName          *string `json:"sort_name"`
	Street            *string `json:"street"`
	City              *string `json:"city"`
	State             *string `json:"state"`
	Zip               *string `json:"zip"`
	Subsection        *int64  `json:"subsection"`
	Classification    *string `json:"classification"`
	NTEECode          *string `json:"ntee_code"`
	FoundationCode    *int64  `json:"foundation_code"`
	Affiliation       *int64  `json:"affiliation"`
	OrganizationType  *int64  `json:"organization_type"`
	Status            *int64  `json:"status"`
	RulingDate        *string `json:"ruling_date"` // YYYY-MM
	Deductibility     *int64  `json:"deductibility"`
	AssetCode         *int64  `json:"asset_code"`
	AssetAmount       *int64  `json:"asset_amount"`
	IncomeCode        *int64  `json:"income_code"`
	IncomeAmount      *int64  `json:"income_amount"`
	RevenueAmount     *int64  `json:"revenue_amount"`
	TaxPeriod         *int64  `json:"tax_period"`
	FilingRequirement *string `json:"filing_requirement"`
	ActivityCodes     *string `json:"activity_codes"`
	GroupNumber       *string `json:"group_number"`
	AccountingPeriod  *int64  `json:"accounting_period"`
}
