package concordance

import (
	"fmt"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

// Schedule M has a fixed 28-line layout, so its concordance entries are
// generated from the line tables below instead of being written out in
// fields.yaml. All generated candidates are relative: the assembler
// locates the schedule container once and evaluates within it.

// scheduleContainers lists candidate container element names, preferred
// name first per version group.
var scheduleContainers = map[string][]string{
	VersionV2016: {"IRS990ScheduleM", "ScheduleM"},
	VersionV2013: {"IRS990ScheduleM", "ScheduleM"},
	VersionV2009: {"ScheduleM", "IRS990ScheduleM"},
}

// ScheduleContainers returns the candidate local names of the Schedule M
// container for a version group.
func ScheduleContainers(group string) []string {
	if names, ok := scheduleContainers[group]; ok {
		return names
	}
	return scheduleContainers[VersionDefault]
}

// lineElements maps each property-line prefix to its candidate group
// element names: modern ("...Grp") conventions first, then the pre-2013
// bare names. Software vendors occasionally emit either form regardless
// of schema year, so both orders keep both sets.
var lineElements = map[string]struct{ modern, legacy []string }{
	"art_works":                  {[]string{"WorksOfArtGrp", "ArtWorksOfArtGrp"}, []string{"ArtWorksOfArt"}},
	"art_historical":             {[]string{"ArtHistoricalTreasuresGrp"}, []string{"ArtHistoricalTreasures"}},
	"art_fractional":             {[]string{"ArtFractionalInterestsGrp"}, []string{"ArtFractionalInterests"}},
	"books_publications":         {[]string{"BooksAndPublicationsGrp"}, []string{"BooksAndPublications"}},
	"clothing_household":         {[]string{"ClothingAndHouseholdGoodsGrp"}, []string{"ClothingAndHouseholdGoods"}},
	"cars_vehicles":              {[]string{"CarsAndOtherVehiclesGrp"}, []string{"CarsAndOtherVehicles"}},
	"boats_planes":               {[]string{"BoatsAndPlanesGrp"}, []string{"BoatsAndPlanes"}},
	"intellectual_property":      {[]string{"IntellectualPropertyGrp"}, []string{"IntellectualProperty"}},
	"securities_publicly_traded": {[]string{"SecuritiesPubliclyTradedGrp"}, []string{"SecuritiesPubliclyTraded"}},
	"securities_closely_held":    {[]string{"SecuritiesCloselyHeldStockGrp"}, []string{"SecuritiesCloselyHeldStock"}},
	"securities_partnership":     {[]string{"SecPrtnrshpTrustInterestsGrp", "SecuritiesPartnershipGrp"}, []string{"SecPrtnrshpTrustInterests", "SecuritiesPartnership"}},
	"securities_misc":            {[]string{"SecuritiesMiscellaneousGrp"}, []string{"SecuritiesMiscellaneous"}},
	"conservation_historic":      {[]string{"QualifiedContribHistStructGrp"}, []string{"QualifiedContribHistStruct"}},
	"conservation_other":         {[]string{"QualifiedContribOtherGrp"}, []string{"QualifiedContribOther"}},
	"real_estate_residential":    {[]string{"RealEstateResidentialGrp"}, []string{"RealEstateResidential"}},
	"real_estate_commercial":     {[]string{"RealEstateCommercialGrp"}, []string{"RealEstateCommercial"}},
	"real_estate_other":          {[]string{"RealEstateOtherGrp"}, []string{"RealEstateOther"}},
	"collectibles":               {[]string{"CollectiblesGrp"}, []string{"Collectibles"}},
	"food_inventory":             {[]string{"FoodInventoryGrp"}, []string{"FoodInventory"}},
	"drugs_medical":              {[]string{"DrugsAndMedicalSuppliesGrp"}, []string{"DrugsAndMedicalSupplies"}},
	"taxidermy":                  {[]string{"TaxidermyGrp"}, []string{"Taxidermy"}},
	"historical_artifacts":       {[]string{"HistoricalArtifactsGrp"}, []string{"HistoricalArtifacts"}},
	"scientific_specimens":       {[]string{"ScientificSpecimensGrp"}, []string{"ScientificSpecimens"}},
	"archaeological_artifacts":   {[]string{"ArcheologicalArtifactsGrp"}, []string{"ArcheologicalArtifacts"}},
	"other_1":                    {[]string{"OtherNoncashContriTable25Grp"}, []string{"OtherNoncashContri25"}},
	"other_2":                    {[]string{"OtherNoncashContriTable26Grp"}, []string{"OtherNoncashContri26"}},
	"other_3":                    {[]string{"OtherNoncashContriTable27Grp"}, []string{"OtherNoncashContri27"}},
	"other_4":                    {[]string{"OtherNoncashContriTable28Grp"}, []string{"OtherNoncashContri28"}},
}

// Child element candidates inside a property-type group.
var (
	checkboxChildren = struct{ modern, legacy []string }{
		[]string{"NonCashCheckboxInd", "NoncashCheckboxInd", "ContributionCheckInd"},
		[]string{"NonCashCheckbox", "Checkbox"},
	}
	countChildren = struct{ modern, legacy []string }{
		[]string{"ContributionCountOrItemNmbr", "NoncashContributionsCnt", "ContributionsItemsCnt"},
		[]string{"NumberOfContributions", "NoncashContributions"},
	}
	amountChildren = struct{ modern, legacy []string }{
		[]string{"NoncashContributionsRptF990Amt", "NoncashContributionsAmt", "FairMarketValueAmt"},
		[]string{"NoncashContributions", "FMVReported"},
	}
	methodChildren = struct{ modern, legacy []string }{
		[]string{"MethodOfDeterminingRevenuesTxt", "MethodOfDeterminingAmt", "MethodOfDeterminationDesc"},
		[]string{"MethodOfDetermination", "NoncashContributionMethod"},
	}
	descChildren = struct{ modern, legacy []string }{
		[]string{"Desc", "TypeDesc"},
		[]string{"Description"},
	}
)

// Summary question candidates (lines 29-32), relative to the container.
var summaryQuestions = []struct {
	name   string
	typ    SemanticType
	modern []string
	legacy []string
}{
	{"num_forms_8283", TypeInt,
		[]string{"Form8283ReceivedCnt", "NumberOf8283ReceivedCnt"},
		[]string{"NumberOf8283Received"}},
	{"gift_acceptance_policy", TypeBool,
		[]string{"ReviewProcessUnusualNCGiftsInd", "GiftAcceptancePolicyInd"},
		[]string{"ReviewProcessUnusualNCGifts"}},
	{"uses_third_parties", TypeBool,
		[]string{"ThirdPartiesUsedInd", "HireOrUseThirdPartiesInd"},
		[]string{"ThirdPartiesUsed"}},
	{"hold_3_years_required", TypeBool,
		[]string{"AnyPropertyThatMustBeHeldInd", "PropertyMustBeHeldInd"},
		[]string{"AnyPropertyThatMustBeHeld"}},
}

// ScheduleFieldName returns the canonical name of one sub-field of a
// property line, e.g. ScheduleFieldName("food_inventory", "amount").
func ScheduleFieldName(prefix, sub string) string {
	return prefix + "_" + sub
}

func addScheduleEntries(m *Map) error {
	for _, line := range model.PropertyLines {
		elems, ok := lineElements[line.Prefix]
		if !ok {
			return fmt.Errorf("no schedule line elements for %q", line.Prefix)
		}
		subs := []struct {
			sub      string
			typ      SemanticType
			children struct{ modern, legacy []string }
		}{
			{"x", TypeBool, checkboxChildren},
			{"count", TypeInt, countChildren},
			{"amount", TypeMoney, amountChildren},
			{"method", TypeString, methodChildren},
		}
		if line.HasDesc {
			subs = append(subs, struct {
				sub      string
				typ      SemanticType
				children struct{ modern, legacy []string }
			}{"desc", TypeString, descChildren})
		}
		for _, s := range subs {
			e := &Entry{
				Name:       ScheduleFieldName(line.Prefix, s.sub),
				Type:       s.typ,
				candidates: make(map[string][]Candidate),
			}
			for _, g := range VersionGroups {
				raws := crossCandidates(elems, s.children, g)
				for _, raw := range raws {
					c, err := compileCandidate(raw)
					if err != nil {
						return fmt.Errorf("schedule field %q: %w", e.Name, err)
					}
					e.candidates[g] = append(e.candidates[g], c)
				}
			}
			if err := m.add(e); err != nil {
				return err
			}
		}
	}

	for _, q := range summaryQuestions {
		e := &Entry{
			Name:       q.name,
			Type:       q.typ,
			candidates: make(map[string][]Candidate),
		}
		for _, g := range VersionGroups {
			for _, n := range orderedNames(q.modern, q.legacy, g) {
				c, err := compileCandidate(n)
				if err != nil {
					return fmt.Errorf("schedule field %q: %w", q.name, err)
				}
				e.candidates[g] = append(e.candidates[g], c)
			}
		}
		if err := m.add(e); err != nil {
			return err
		}
	}
	return nil
}

// crossCandidates builds "Group/Child" relative locations in preference
// order for a version group: the era's own conventions first, the other
// era's as fallback.
func crossCandidates(elems, children struct{ modern, legacy []string }, group string) []string {
	groups := orderedNames(elems.modern, elems.legacy, group)
	childs := orderedNames(children.modern, children.legacy, group)
	out := make([]string, 0, len(groups)*len(childs))
	for _, g := range groups {
		for _, c := range childs {
			out = append(out, g+"/"+c)
		}
	}
	return out
}

func orderedNames(modern, legacy []string, group string) []string {
	if group == VersionV2009 {
		return append(append([]string{}, legacy...), modern...)
	}
	return append(append([]string{}, modern...), legacy...)
}
