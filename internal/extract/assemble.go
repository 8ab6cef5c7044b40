package extract

import (
	"context"
	"strings"

	"github.com/beevik/etree"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/concordance"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

// Engine turns one parsed return into a filing record and, when present,
// its donation-schedule record. An Engine is read-only after construction
// and safe for concurrent use by the worker pool.
type Engine struct {
	cmap *concordance.Map
	ev   *Evaluator
}

// NewEngine builds an extraction engine over a loaded field map.
func NewEngine(cmap *concordance.Map, policy model.DuplicatePolicy) *Engine {
	return &Engine{cmap: cmap, ev: NewEvaluator(cmap, policy)}
}

// Result bundles everything one document yields. Schedule is nil when the
// filing has no Schedule M attachment.
type Result struct {
	Filing   *model.Filing
	Schedule *model.ScheduleM
	Warnings []model.Warning
}

// ExtractDocument parses and assembles one e-filed return. Per-field
// problems become warnings on the result; only a document-level failure
// (unparseable XML, cancelled context) returns an error.
func (e *Engine) ExtractDocument(ctx context.Context, objectID string, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filing, warnings := e.AssembleFiling(objectID, doc)

	schedule, schedWarnings := e.AssembleSchedule(objectID, doc, filing)
	warnings = append(warnings, schedWarnings...)

	if schedule != nil {
		// The schedule itself is the stronger signal: a filer who attached
		// it but ticked no line effectively reported no in-kind receipts,
		// whatever the Part IV indicator says.
		received := schedule.AnyReceived()
		filing.HasScheduleM = &received
	}

	return &Result{Filing: filing, Schedule: schedule, Warnings: warnings}, nil
}

// AssembleFiling extracts the filing summary record. It always returns a
// record: every field is independently optional, and a document that
// matches nothing still yields a Filing with its identity fields set.
func (e *Engine) AssembleFiling(objectID string, doc *etree.Document) (*model.Filing, []model.Warning) {
	group, lowConfidence := ResolveVersion(doc)

	r := &reader{ev: e.ev, doc: doc, group: group, objectID: objectID}

	f := &model.Filing{
		ObjectID:             objectID,
		FormType:             "990",
		LowConfidenceVersion: lowConfidence,
	}

	f.EIN = normalizeEIN(r.str("ein"))
	f.TaxYear = r.integer("tax_year")
	f.TaxPeriodBegin = r.date("tax_period_begin")
	f.TaxPeriodEnd = r.date("tax_period_end")
	f.OrgName = r.str("org_name")
	f.OrgCity = r.str("org_city")
	f.OrgState = r.str("org_state")
	f.OrgZip = r.str("org_zip")
	f.OrgPhone = r.str("org_phone")
	f.Website = r.str("website")
	f.YearFormation = r.integer("year_formation")

	f.PrincipalOfficerName = r.str("principal_officer_name")
	f.SigningOfficerName = r.str("signing_officer_name")
	f.SigningOfficerTitle = r.str("signing_officer_title")
	f.SigningOfficerPhone = r.str("signing_officer_phone")

	f.Mission = r.str("mission")
	f.NumVotingMembers = r.integer("num_voting_members")
	f.NumVotingMembersIndependent = r.integer("num_voting_members_independent")
	f.NumEmployees = r.integer("num_employees")
	f.NumVolunteers = r.integer("num_volunteers")
	f.ContributionsGrantsCY = r.money("contributions_grants_cy")
	f.ProgramServiceRevenueCY = r.money("program_service_revenue_cy")
	f.InvestmentIncomeCY = r.money("investment_income_cy")
	f.OtherRevenueCY = r.money("other_revenue_cy")
	f.TotalRevenueCY = r.money("total_revenue_cy")
	f.TotalRevenuePY = r.money("total_revenue_py")
	f.GrantsSimilarCY = r.money("grants_similar_cy")
	f.SalariesCY = r.money("salaries_cy")
	f.TotalExpensesCY = r.money("total_expenses_cy")
	f.TotalExpensesPY = r.money("total_expenses_py")
	f.RevenueLessExpensesCY = r.money("revenue_less_expenses_cy")
	f.TotalAssetsBOY = r.money("total_assets_boy")
	f.TotalAssetsEOY = r.money("total_assets_eoy")
	f.TotalLiabilitiesBOY = r.money("total_liabilities_boy")
	f.TotalLiabilitiesEOY = r.money("total_liabilities_eoy")
	f.NetAssetsBOY = r.money("net_assets_boy")
	f.NetAssetsEOY = r.money("net_assets_eoy")

	f.NoncashContributionsTotal = r.money("noncash_contributions_total")

	// Provisional: the Part IV indicator. Overridden by the schedule
	// sub-extraction when the attachment is actually present.
	f.HasScheduleM = r.boolean("has_schedule_m")

	return f, r.warnings
}

// AssembleSchedule extracts the Schedule M record, or nil when the
// document carries no schedule container. Identity fields are inherited
// from the already-assembled filing.
func (e *Engine) AssembleSchedule(objectID string, doc *etree.Document, filing *model.Filing) (*model.ScheduleM, []model.Warning) {
	group, _ := ResolveVersion(doc)

	root := doc.Root()
	if root == nil {
		return nil, nil
	}
	var container *etree.Element
	for _, name := range concordance.ScheduleContainers(group) {
		if container = firstDescendant(root, name); container != nil {
			break
		}
	}
	if container == nil {
		return nil, nil
	}

	r := &reader{ev: e.ev, scope: container, group: group, objectID: objectID}

	s := &model.ScheduleM{
		ObjectID: objectID,
		TaxYear:  filing.TaxYear,
	}
	if filing.EIN != nil {
		s.EIN = *filing.EIN
	}

	for i, line := range model.PropertyLines {
		g := &s.Groups[i]
		g.Received = r.boolean(concordance.ScheduleFieldName(line.Prefix, "x"))
		g.Count = r.integer(concordance.ScheduleFieldName(line.Prefix, "count"))
		g.Amount = r.money(concordance.ScheduleFieldName(line.Prefix, "amount"))
		g.Method = r.str(concordance.ScheduleFieldName(line.Prefix, "method"))
		if line.HasDesc {
			g.Desc = r.str(concordance.ScheduleFieldName(line.Prefix, "desc"))
		}
	}

	s.NumForms8283 = r.integer("num_forms_8283")
	s.GiftAcceptancePolicy = r.boolean("gift_acceptance_policy")
	s.UsesThirdParties = r.boolean("uses_third_parties")
	s.Hold3YearsRequired = r.boolean("hold_3_years_required")

	return s, r.warnings
}

// reader wraps the evaluator with typed accessors that accumulate
// warnings. A coercion failure records the field as absent plus one
// warning; it never aborts the record.
type reader struct {
	ev       *Evaluator
	doc      *etree.Document
	scope    *etree.Element // when set, fields resolve within this element
	group    string
	objectID string
	warnings []model.Warning
}

func (r *reader) raw(field string) (string, bool) {
	var (
		raw string
		ok  bool
		err error
	)
	if r.scope != nil {
		raw, ok, err = r.ev.EvaluateWithin(r.scope, field, r.group)
	} else {
		raw, ok, err = r.ev.Evaluate(r.doc, field, r.group)
	}
	if err != nil {
		// Unknown field or group is a definition bug, not a document
		// problem. Surface it as a warning so a bad overlay cannot
		// silently zero out a whole column.
		r.warn(field, "", err)
		return "", false
	}
	return raw, ok
}

func (r *reader) str(field string) *string {
	raw, ok := r.raw(field)
	if !ok {
		return nil
	}
	s, ok := CoerceString(raw)
	if !ok {
		return nil
	}
	return &s
}

func (r *reader) integer(field string) *int64 {
	raw, ok := r.raw(field)
	if !ok {
		return nil
	}
	v, err := CoerceInt(raw)
	if err != nil {
		r.warn(field, raw, err)
		return nil
	}
	return &v
}

func (r *reader) money(field string) *int64 {
	raw, ok := r.raw(field)
	if !ok {
		return nil
	}
	v, err := CoerceMoney(raw)
	if err != nil {
		r.warn(field, raw, err)
		return nil
	}
	return &v
}

func (r *reader) boolean(field string) *bool {
	raw, ok := r.raw(field)
	if !ok {
		return nil
	}
	v, err := CoerceBool(raw)
	if err != nil {
		r.warn(field, raw, err)
		return nil
	}
	return &v
}

func (r *reader) date(field string) *string {
	raw, ok := r.raw(field)
	if !ok {
		return nil
	}
	v, err := CoerceDate(raw)
	if err != nil {
		r.warn(field, raw, err)
		return nil
	}
	return &v
}

func (r *reader) warn(field, raw string, err error) {
	r.warnings = append(r.warnings, model.Warning{
		ObjectID: r.objectID,
		Field:    field,
		Raw:      raw,
		Message:  err.Error(),
	})
}

// normalizeEIN zero-pads a numeric EIN to the canonical nine digits.
// Leading zeros are routinely lost upstream when the value passes through
// spreadsheet tooling.
func normalizeEIN(ein *string) *string {
	if ein == nil {
		return nil
	}
	s := strings.TrimSpace(*ein)
	if s == "" {
		return nil
	}
	if len(s) < 9 && allDigits(s) {
		s = strings.Repeat("0", 9-len(s)) + s
	}
	return &s
}
