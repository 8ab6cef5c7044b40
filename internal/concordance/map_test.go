package concordance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)

	// Every field resolves in every version group with at least one
	// compiled candidate.
	for _, field := range m.Fields() {
		for _, group := range VersionGroups {
			cands, err := m.Lookup(field, group)
			require.NoError(t, err, "field %q group %q", field, group)
			assert.NotEmpty(t, cands, "field %q group %q", field, group)
		}
		_, err := m.Type(field)
		require.NoError(t, err, "field %q", field)
	}
}

func TestLoadScheduleEntries(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)

	// 28 lines x 4 sub-fields, plus the description on the four Other
	// lines, plus the four summary questions.
	assert.True(t, m.Has("clothing_household_x"))
	assert.True(t, m.Has("clothing_household_count"))
	assert.True(t, m.Has("clothing_household_amount"))
	assert.True(t, m.Has("clothing_household_method"))
	assert.False(t, m.Has("clothing_household_desc"), "only Other lines carry a description")
	assert.True(t, m.Has("other_1_desc"))
	assert.True(t, m.Has("num_forms_8283"))
	assert.True(t, m.Has("hold_3_years_required"))

	typ, err := m.Type("clothing_household_amount")
	require.NoError(t, err)
	assert.Equal(t, TypeMoney, typ)

	// Schedule candidates are relative: evaluated within the container.
	cands, err := m.Lookup("clothing_household_amount", VersionV2016)
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.False(t, cands[0].Absolute())
	assert.Equal(t, []string{"ClothingAndHouseholdGoodsGrp", "NoncashContributionsRptF990Amt"}, cands[0].Segments())
}

func TestLookupCandidateOrder(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)

	// Modern groups list current conventions first; the legacy group
	// leads with its own era's names.
	modern, err := m.Lookup("org_name", VersionV2016)
	require.NoError(t, err)
	assert.Equal(t, "//ReturnHeader/Filer/BusinessName/BusinessNameLine1Txt", modern[0].Raw)

	legacy, err := m.Lookup("org_name", VersionV2009)
	require.NoError(t, err)
	assert.Equal(t, "//ReturnHeader/Filer/Name/BusinessNameLine1", legacy[0].Raw)
}

func TestLookupErrors(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)

	_, err = m.Lookup("no_such_field", VersionV2016)
	var ufe *UnknownFieldError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "no_such_field", ufe.Field)

	_, err = m.Lookup("ein", "v1999")
	var uge *UnknownVersionGroupError
	require.ErrorAs(t, err, &uge)
	assert.Equal(t, "v1999", uge.Group)
}

func TestApplyConcordanceCSV(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)

	before, err := m.Lookup("website", VersionV2016)
	require.NoError(t, err)

	csv := strings.Join([]string{
		"variable_name,description,scope,location_code,form,part,data_type,required,cardinality,rdb_table,xpath,version",
		`F9_00_ORG_WEBSITE,Org website,,,F990,PC,,,,,"/Return/ReturnData/IRS990/WebsiteAddressTxt",2016`,
		`F9_00_ORG_WEBSITE,Org website,,,F990,PC,,,,,"/Return/ReturnData/IRS990/OrganizationWebsiteTxt",2016`,
		`F9_99_UNRELATED_VAR,Something else,,,F990,PC,,,,,"/Return/ReturnData/IRS990/SomethingElse",2016`,
	}, "\n")

	added, err := ApplyConcordanceCSV(m, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, added, "rows for unmapped variables are skipped")

	after, err := m.Lookup("website", VersionV2016)
	require.NoError(t, err)
	require.Greater(t, len(after), len(before), "overlay appends a new candidate")

	// Built-in order is untouched; the overlay only widens the tail.
	for i := range before {
		assert.Equal(t, before[i].Raw, after[i].Raw)
	}
	assert.Equal(t, "//ReturnData/IRS990/OrganizationWebsiteTxt", after[len(after)-1].Raw)
}

func TestApplyConcordanceCSVMissingColumns(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)

	_, err = ApplyConcordanceCSV(m, strings.NewReader("foo,bar\n1,2\n"))
	assert.Error(t, err)
}

func TestCompileCandidate(t *testing.T) {
	abs, err := compileCandidate("//ReturnHeader/Filer/EIN")
	require.NoError(t, err)
	assert.True(t, abs.Absolute())

	rel, err := compileCandidate("WorksOfArtGrp/NonCashCheckboxInd")
	require.NoError(t, err)
	assert.False(t, rel.Absolute())
	assert.Equal(t, []string{"WorksOfArtGrp", "NonCashCheckboxInd"}, rel.Segments())

	_, err = compileCandidate("")
	assert.Error(t, err)
	_, err = compileCandidate("a//b")
	assert.Error(t, err)
}
