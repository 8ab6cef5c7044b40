package concordance

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var fieldsYAML []byte

type yamlFile struct {
	Fields []yamlField `yaml:"fields"`
}

type yamlField struct {
	Name  string              `yaml:"name"`
	Type  string              `yaml:"type"`
	Paths map[string][]string `yaml:"paths"`
}

var validTypes = map[SemanticType]bool{
	TypeString:  true,
	TypeInt:     true,
	TypeMoney:   true,
	TypeBool:    true,
	TypeDate:    true,
	TypePercent: true,
}

// Load builds the field map from the embedded declarative table and the
// generated Schedule M entries. Any definition problem (unknown type,
// uncompilable path, a (field, group) pair with no candidates) is an
// error here, and fatal to the run: an engine with a broken map cannot
// serve any document.
func Load() (*Map, error) {
	var f yamlFile
	if err := yaml.Unmarshal(fieldsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse fields.yaml: %w", err)
	}
	if len(f.Fields) == 0 {
		return nil, fmt.Errorf("fields.yaml declares no fields")
	}

	m := &Map{
		entries: make(map[string]*Entry),
		groups:  make(map[string]bool),
	}

	for _, yf := range f.Fields {
		st := SemanticType(yf.Type)
		if !validTypes[st] {
			return nil, fmt.Errorf("field %q: unknown semantic type %q", yf.Name, yf.Type)
		}
		e := &Entry{
			Name:       yf.Name,
			Type:       st,
			candidates: make(map[string][]Candidate),
		}
		for _, g := range VersionGroups {
			raws, ok := yf.Paths[g]
			if !ok || len(raws) == 0 {
				return nil, fmt.Errorf("field %q: no candidates for group %q", yf.Name, g)
			}
			for _, raw := range raws {
				c, err := compileCandidate(raw)
				if err != nil {
					return nil, fmt.Errorf("field %q group %q: %w", yf.Name, g, err)
				}
				e.candidates[g] = append(e.candidates[g], c)
			}
		}
		for g := range yf.Paths {
			if g != VersionV2016 && g != VersionV2013 && g != VersionV2009 {
				return nil, fmt.Errorf("field %q: undeclared version group %q", yf.Name, g)
			}
		}
		if err := m.add(e); err != nil {
			return nil, err
		}
	}

	if err := addScheduleEntries(m); err != nil {
		return nil, err
	}
	return m, nil
}

// concordanceVars maps Master Concordance File variable names to our
// canonical field names, for the optional CSV overlay.
var concordanceVars = map[string]string{
	"F9_00_ORG_NAME_L1":                "org_name",
	"F9_00_ORG_ADDR_CITY":              "org_city",
	"F9_00_ORG_ADDR_STATE":             "org_state",
	"F9_00_ORG_ADDR_ZIP":               "org_zip",
	"F9_00_ORG_PHONE":                  "org_phone",
	"F9_00_ORG_WEBSITE":                "website",
	"F9_00_PRIN_OFF_NAME_PERS":         "principal_officer_name",
	"F9_00_ORG_EIN":                    "ein",
	"F9_00_TAX_YEAR":                   "tax_year",
	"F9_00_TAX_PERIOD_BEGIN_DATE":      "tax_period_begin",
	"F9_00_TAX_PERIOD_END_DATE":        "tax_period_end",
	"F9_00_YEAR_FORMATION":             "year_formation",
	"F9_02_SIGNING_OFF_NAME":           "signing_officer_name",
	"F9_02_SIGNING_OFF_TITLE":          "signing_officer_title",
	"F9_02_SIGNING_OFF_PHONE":          "signing_officer_phone",
	"F9_03_ORG_MISSION_PURPOSE":        "mission",
	"F9_01_ACT_GVRN_NUM_VOTE_MEMB":     "num_voting_members",
	"F9_01_ACT_GVRN_NUM_VOTE_MEMB_IND": "num_voting_members_independent",
	"F9_01_ACT_GVRN_EMPL_TOT":          "num_employees",
	"F9_01_ACT_GVRN_VOL_TOT":           "num_volunteers",
	"F9_01_REV_CONTR_TOT_CY":           "contributions_grants_cy",
	"F9_01_REV_PROG_TOT_CY":            "program_service_revenue_cy",
	"F9_01_REV_INVEST_TOT_CY":          "investment_income_cy",
	"F9_01_REV_OTH_CY":                 "other_revenue_cy",
	"F9_01_REV_TOT_CY":                 "total_revenue_cy",
	"F9_01_REV_TOT_PY":                 "total_revenue_py",
	"F9_01_EXP_GRANT_SIMILAR_CY":       "grants_similar_cy",
	"F9_01_EXP_SAL_ETC_CY":             "salaries_cy",
	"F9_01_EXP_TOT_CY":                 "total_expenses_cy",
	"F9_01_EXP_TOT_PY":                 "total_expenses_py",
	"F9_01_EXP_REV_LESS_EXP_CY":        "revenue_less_expenses_cy",
	"F9_01_NAFB_ASSET_TOT_BOY":         "total_assets_boy",
	"F9_01_NAFB_ASSET_TOT_EOY":         "total_assets_eoy",
	"F9_01_NAFB_LIAB_TOT_BOY":          "total_liabilities_boy",
	"F9_01_NAFB_LIAB_TOT_EOY":          "total_liabilities_eoy",
	"F9_01_NAFB_TOT_BOY":               "net_assets_boy",
	"F9_01_NAFB_TOT_EOY":               "net_assets_eoy",
}

// ApplyConcordanceCSV overlays xpaths from the Nonprofit Open Data
// Collective master concordance onto the built-in map. Overlay locations
// are appended after the built-in candidates for every version group, so
// they only widen fallback coverage and never change first-choice
// behavior. Variables outside our target set are skipped.
func ApplyConcordanceCSV(m *Map, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read concordance header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	vi, ok := col["variable_name"]
	if !ok {
		return 0, fmt.Errorf("concordance CSV missing variable_name column")
	}
	xi, ok := col["xpath"]
	if !ok {
		return 0, fmt.Errorf("concordance CSV missing xpath column")
	}

	added := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return added, fmt.Errorf("read concordance row: %w", err)
		}
		if vi >= len(row) || xi >= len(row) {
			continue
		}
		field, ok := concordanceVars[strings.TrimSpace(row[vi])]
		if !ok {
			continue
		}
		raw := normalizeXPath(row[xi])
		if raw == "" {
			continue
		}
		for _, g := range VersionGroups {
			if err := m.appendCandidates(field, g, raw); err != nil {
				return added, fmt.Errorf("overlay %s: %w", field, err)
			}
		}
		added++
	}
	return added, nil
}

// normalizeXPath rewrites a concordance xpath ("/Return/ReturnData/...")
// into the map's root-relative form.
func normalizeXPath(xpath string) string {
	s := strings.TrimSpace(xpath)
	s = strings.TrimPrefix(s, "/Return")
	s = strings.Trim(s, "/")
	if s == "" {
		return ""
	}
	return "//" + s
}
