package extract

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/concordance"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

func loadMap(t *testing.T) *concordance.Map {
	t.Helper()
	m, err := concordance.Load()
	require.NoError(t, err)
	return m
}

func mustParse(t *testing.T, xml string) *etree.Document {
	t.Helper()
	d, err := ParseDocument([]byte(xml))
	require.NoError(t, err)
	return d
}

func TestEvaluateFirstChoice(t *testing.T) {
	ev := NewEvaluator(loadMap(t), model.DuplicateFirst)
	d := mustParse(t, `<Return>
		<ReturnData><IRS990>
			<WebsiteAddressTxt>www.example.org</WebsiteAddressTxt>
		</IRS990></ReturnData>
	</Return>`)

	raw, ok, err := ev.Evaluate(d, "website", concordance.VersionV2016)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "www.example.org", raw)
}

func TestEvaluateSecondChoiceFallback(t *testing.T) {
	ev := NewEvaluator(loadMap(t), model.DuplicateFirst)
	d := mustParse(t, `<Return>
		<ReturnData><IRS990>
			<WebsiteAddress>www.legacy.org</WebsiteAddress>
		</IRS990></ReturnData>
	</Return>`)

	raw, ok, err := ev.Evaluate(d, "website", concordance.VersionV2013)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "www.legacy.org", raw, "first candidate absent, second matches")
}

func TestEvaluateNoMatchIsNotAnError(t *testing.T) {
	ev := NewEvaluator(loadMap(t), model.DuplicateFirst)
	d := mustParse(t, `<Return><ReturnData><IRS990/></ReturnData></Return>`)

	_, ok, err := ev.Evaluate(d, "website", concordance.VersionV2016)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateWhitespaceOnlyIsNoMatch(t *testing.T) {
	ev := NewEvaluator(loadMap(t), model.DuplicateFirst)
	d := mustParse(t, `<Return>
		<ReturnData><IRS990>
			<WebsiteAddressTxt>   </WebsiteAddressTxt>
		</IRS990></ReturnData>
	</Return>`)

	_, ok, err := ev.Evaluate(d, "website", concordance.VersionV2016)
	require.NoError(t, err)
	assert.False(t, ok, "whitespace-only text does not count as a match")
}

func TestEvaluateDuplicatePolicy(t *testing.T) {
	xml := `<Return>
		<ReturnData><IRS990>
			<WebsiteAddressTxt>first.org</WebsiteAddressTxt>
			<WebsiteAddressTxt>last.org</WebsiteAddressTxt>
		</IRS990></ReturnData>
	</Return>`

	m := loadMap(t)

	raw, ok, err := NewEvaluator(m, model.DuplicateFirst).Evaluate(mustParse(t, xml), "website", concordance.VersionV2016)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first.org", raw)

	raw, ok, err = NewEvaluator(m, model.DuplicateLast).Evaluate(mustParse(t, xml), "website", concordance.VersionV2016)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "last.org", raw)
}

func TestEvaluateLocalNameFallback(t *testing.T) {
	// The leaf element exists but under a container no candidate names.
	ev := NewEvaluator(loadMap(t), model.DuplicateFirst)
	d := mustParse(t, `<Return>
		<ReturnData><IRS990EZ>
			<WebsiteAddressTxt>www.rearranged.org</WebsiteAddressTxt>
		</IRS990EZ></ReturnData>
	</Return>`)

	raw, ok, err := ev.Evaluate(d, "website", concordance.VersionV2016)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "www.rearranged.org", raw)
}

func TestEvaluateWithinScope(t *testing.T) {
	ev := NewEvaluator(loadMap(t), model.DuplicateFirst)
	d := mustParse(t, `<Return><ReturnData>
		<IRS990ScheduleM>
			<ClothingAndHouseholdGoodsGrp>
				<NonCashCheckboxInd>X</NonCashCheckboxInd>
				<ContributionCountOrItemNmbr>12</ContributionCountOrItemNmbr>
			</ClothingAndHouseholdGoodsGrp>
		</IRS990ScheduleM>
	</ReturnData></Return>`)

	scope := firstDescendant(d.Root(), "IRS990ScheduleM")
	require.NotNil(t, scope)

	raw, ok, err := ev.EvaluateWithin(scope, "clothing_household_count", concordance.VersionV2016)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "12", raw)

	_, ok, err = ev.EvaluateWithin(scope, "food_inventory_count", concordance.VersionV2016)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateUnknownField(t *testing.T) {
	ev := NewEvaluator(loadMap(t), model.DuplicateFirst)
	d := mustParse(t, `<Return/>`)

	_, _, err := ev.Evaluate(d, "no_such_field", concordance.VersionV2016)
	var ufe *concordance.UnknownFieldError
	require.ErrorAs(t, err, &ufe)
}
