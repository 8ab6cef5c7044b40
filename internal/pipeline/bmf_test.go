package pipeline

import "testing"

const sampleBMFCSV = `EIN,NAME,ICO,STREET,CITY,STATE,ZIP,GROUP,SUBSECTION,AFFILIATION,CLASSIFICATION,RULING,DEDUCTIBILITY,FOUNDATION,ACTIVITY,ORGANIZATION,STATUS,TAX_PERIOD,ASSET_CD,INCOME_CD,FILING_REQ_CD,PF_FILING_REQ_CD,ACCT_PD,ASSET_AMT,INCOME_AMT,REVENUE_AMT,NTEE_CD,SORT_NAME
41349349,HELPING HANDS,,123 MAIN ST,SPRINGFIELD,IL,62701,0000,03,3,1000,198703,1,15,000000000,1,1,202212,5,5,01,0,12,500000,1250000,1250000,P20,
222222222,VETERANS POST,,456 OAK AVE,PEORIA,IL,61601,0000,19,3,1000,195501,2,00,000000000,5,1,202212,3,3,01,0,12,80000,40000,40000,W30,
333333333,OLD MISSION,,789 ELM RD,CHICAGO,IL,60601,0000,3,3,1000,000000,1,15,000000000,1,1,202212,4,4,01,0,12,200000,90000,90000,X20,
`

func TestParseBMFCSVFiltersSubsection(t *testing.T) {
	orgs, err := parseBMFCSV([]byte(sampleBMFCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("expected 2 501(c)(3) rows, got %d", len(orgs))
	}

	first := orgs[0]
	if first.EIN != "041349349" {
		t.Errorf("EIN not zero-padded: %s", first.EIN)
	}
	if first.Name == nil || *first.Name != "HELPING HANDS" {
		t.Errorf("unexpected name: %v", first.Name)
	}
	if first.Subsection == nil || *first.Subsection != 3 {
		t.Errorf("unexpected subsection: %v", first.Subsection)
	}
	if first.RulingDate == nil || *first.RulingDate != "1987-03" {
		t.Errorf("ruling date not normalized: %v", first.RulingDate)
	}
	if first.AssetAmount == nil || *first.AssetAmount != 500000 {
		t.Errorf("unexpected asset amount: %v", first.AssetAmount)
	}
	if first.NTEECode == nil || *first.NTEECode != "P20" {
		t.Errorf("unexpected NTEE code: %v", first.NTEECode)
	}
	if first.SortName != nil {
		t.Errorf("blank sort name should be null, got %v", *first.SortName)
	}

	// Bare "3" subsection also qualifies; zero ruling date is null.
	second := orgs[1]
	if second.EIN != "333333333" {
		t.Errorf("unexpected second org: %s", second.EIN)
	}
	if second.RulingDate != nil {
		t.Errorf("zero ruling date should be null, got %v", *second.RulingDate)
	}
}
