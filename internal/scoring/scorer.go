// Package scoring computes the compatibility score between a company and an agent.
package scoring

import (
	"math"

	"github.com/oggyb/intro-match/internal/models"
)

// Factor weights. They sum to 1.
const (
	WeightGeo        = 0.25
	WeightIndustry   = 0.30
	WeightLanguage   = 0.20
	WeightExperience = 0.15
	WeightReputation = 0.10
)

const maxReputation = 5.0

// Breakdown holds the normalized [0,1] factors behind a score.
type Breakdown struct {
	Geo        float64
	Industry   float64
	Language   float64
	Experience float64
	Reputation float64
}

// Weighted returns Σ weight·factor.
func (b Breakdown) Weighted() float64 {
	return WeightGeo*b.Geo +
		WeightIndustry*b.Industry +
		WeightLanguage*b.Language +
		WeightExperience*b.Experience +
		WeightReputation*b.Reputation
}

// Score returns the 0-100 compatibility of two entities.
// Argument order does not matter: roles are resolved from the entities.
// Pairs that are not one company and one agent with profiles score 0.
func Score(a, b *models.Entity) int {
	bd, ok := Explain(a, b)
	if !ok {
		return 0
	}
	s := int(math.Round(100 * bd.Weighted()))
	return min(max(s, 0), 100)
}

// Explain returns the factor breakdown for a company/agent pair.
func Explain(a, b *models.Entity) (Breakdown, bool) {
	if a == nil || b == nil {
		return Breakdown{}, false
	}
	company, agent, ok := resolve(a, b)
	if !ok {
		return Breakdown{}, false
	}
	cp := company.Profile.(*models.CompanyProfile)
	ap := agent.Profile.(*models.AgentProfile)

	return Breakdown{
		Geo:        geoFactor(cp.Country, ap.Countries),
		Industry:   industryFactor(cp.Industries, ap.Specializations),
		Language:   languageFactor(company.Language, ap.Languages),
		Experience: experienceFactor(ap.ExperienceYears),
		Reputation: reputationFactor(cp.Reputation, ap.Reputation),
	}, true
}

func resolve(a, b *models.Entity) (company, agent *models.Entity, ok bool) {
	switch a.Profile.(type) {
	case *models.CompanyProfile:
		if _, isAgent := b.Profile.(*models.AgentProfile); isAgent {
			return a, b, true
		}
	case *models.AgentProfile:
		if _, isCompany := b.Profile.(*models.CompanyProfile); isCompany {
			return b, a, true
		}
	}
	return nil, nil, false
}

func geoFactor(country string, countries []string) float64 {
	c := models.NormalizeTag(country)
	if c == "" {
		return 0.3
	}
	for _, v := range countries {
		if models.NormalizeTag(v) == c {
			return 1.0
		}
	}
	return 0.3
}

func industryFactor(industries, specializations []string) float64 {
	ind := models.NormalizeTags(industries)
	spec := models.NormalizeTags(specializations)
	if len(ind) == 0 || len(spec) == 0 {
		return 0.5
	}
	overlap := overlapCount(ind, spec)
	return float64(overlap) / float64(max(len(ind), len(spec)))
}

// languageFactor compares the company's interface language with the agent's
// languages. An agent without languages is treated as speaking the company's
// interface language.
func languageFactor(companyLang string, agentLangs []string) float64 {
	var companySide []string
	if l := models.NormalizeTag(companyLang); l != "" {
		companySide = []string{l}
	}
	agentSide := models.NormalizeTags(agentLangs)
	if len(agentSide) == 0 {
		agentSide = companySide
	}

	overlap := overlapCount(companySide, agentSide)
	if overlap == 0 {
		return 0.3
	}
	return math.Min(float64(overlap)/2, 1.0)
}

func experienceFactor(years int) float64 {
	switch {
	case years >= 2 && years <= 15:
		return 1.0
	case years >= 1 && years <= 20:
		return 0.8
	case years > 20:
		return 0.6
	default:
		return 0.4
	}
}

func reputationFactor(a, b float64) float64 {
	avg := (a + b) / 2
	if math.IsNaN(avg) || avg <= 0 {
		return 0
	}
	return math.Min(avg/maxReputation, 1.0)
}

// overlapCount counts values of a present in b. Both inputs are normalized.
func overlapCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	n := 0
	for _, v := range a {
		if _, ok := set[v]; ok {
			n++
		}
	}
	return n
}
