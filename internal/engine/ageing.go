package engine

import (
	"censusapi/internal/models"
	"censusapi/internal/sdmx"
)

// Dimension codes the ageing indicators are defined over.
const (
	DimAge        = "AGE"
	DimSex        = "SEX"
	DimTimePeriod = "TIME_PERIOD"
)

// AgeBandDefinition names the AGE category codes making up each broad
// band. EightyPlus is the subset of Seniors counted for the 80+ share.
// Band membership is configuration, never inferred from code strings.
type AgeBandDefinition struct {
	Children   []string `yaml:"children" json:"children"`
	WorkingAge []string `yaml:"working_age" json:"working_age"`
	Seniors    []string `yaml:"seniors" json:"seniors"`
	EightyPlus []string `yaml:"eighty_plus" json:"eighty_plus"`
}

// ComputeAgeingSummary derives the ageing indicators from the records.
// A non-empty sexCode restricts the input to that SEX category first.
//
// The total only counts records whose AGE code belongs to one of the
// three bands: aggregate rows like an "_T" all-ages total would otherwise
// be summed together with their own constituents.
func ComputeAgeingSummary(records []sdmx.FlatRecord, bands AgeBandDefinition, sexCode string) models.AgeingSummary {
	children := toSet(bands.Children)
	workingAge := toSet(bands.WorkingAge)
	seniors := toSet(bands.Seniors)
	eightyPlus := toSet(bands.EightyPlus)

	s := models.AgeingSummary{Sex: sexCode}
	var eightyPlusPop float64

	for _, rec := range records {
		if sexCode != "" {
			if sex, ok := rec.Field(DimSex); !ok || sex != sexCode {
				continue
			}
		}
		age, ok := rec.Field(DimAge)
		if !ok {
			continue
		}

		inBand := false
		if children[age] {
			s.ChildrenPopulation += rec.ObsValue
			inBand = true
		}
		if workingAge[age] {
			s.WorkingAgePopulation += rec.ObsValue
			inBand = true
		}
		if seniors[age] {
			s.SeniorsPopulation += rec.ObsValue
			inBand = true
		}
		if eightyPlus[age] {
			eightyPlusPop += rec.ObsValue
		}
		if inBand {
			s.TotalPopulation += rec.ObsValue
		}
	}

	s.ShareChildren = share(s.ChildrenPopulation, s.TotalPopulation)
	s.ShareWorkingAge = share(s.WorkingAgePopulation, s.TotalPopulation)
	s.ShareSeniors = share(s.SeniorsPopulation, s.TotalPopulation)
	s.Share80Plus = share(eightyPlusPop, s.TotalPopulation)
	s.OldAgeDependencyRatio = share(s.SeniorsPopulation, s.WorkingAgePopulation)
	return s
}

// ComputeAgeingBySex produces one summary per sex category. An empty code
// stands for the unfiltered total and is reported as such.
func ComputeAgeingBySex(records []sdmx.FlatRecord, bands AgeBandDefinition, sexCodes []string) []models.AgeingSummary {
	summaries := make([]models.AgeingSummary, len(sexCodes))
	for i, code := range sexCodes {
		summaries[i] = ComputeAgeingSummary(records, bands, code)
	}
	return summaries
}

func toSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}
