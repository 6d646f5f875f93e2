package db

import (
	"fmt"
	"math/rand"

	"gorm.io/gorm"

	"github.com/oggyb/intro-match/internal/models"
)

var (
	seedCountries  = []string{"DE", "FR", "NL", "PL", "ES", "IT", "GB", "US"}
	seedIndustries = []string{"IT", "Finance", "Retail", "Energy", "Logistics", "Healthcare", "Manufacturing"}
	seedLanguages  = []string{"en", "de", "fr", "nl", "pl", "es"}
)

// CreateCompany inserts a company entity with its profile and industry tags.
// e.ID is filled in on success.
func CreateCompany(tx *gorm.DB, e *Entity, p *CompanyProfile, industries []string) error {
	e.Role = string(models.RoleCompany)
	if err := tx.Create(e).Error; err != nil {
		return fmt.Errorf("create entity: %w", err)
	}
	p.EntityID = e.ID
	p.Country = models.NormalizeTag(p.Country)
	if err := tx.Create(p).Error; err != nil {
		return fmt.Errorf("create company profile: %w", err)
	}
	return createTags(tx, e.ID, TagIndustry, industries)
}

// CreateAgent inserts an agent entity with its profile and tag sets.
// e.ID is filled in on success.
func CreateAgent(tx *gorm.DB, e *Entity, p *AgentProfile, countries, languages, specializations []string) error {
	e.Role = string(models.RoleAgent)
	if err := tx.Create(e).Error; err != nil {
		return fmt.Errorf("create entity: %w", err)
	}
	p.EntityID = e.ID
	if err := tx.Create(p).Error; err != nil {
		return fmt.Errorf("create agent profile: %w", err)
	}
	if err := createTags(tx, e.ID, TagCountry, countries); err != nil {
		return err
	}
	if err := createTags(tx, e.ID, TagLanguage, languages); err != nil {
		return err
	}
	return createTags(tx, e.ID, TagSpecialization, specializations)
}

func createTags(tx *gorm.DB, entityID uint64, kind string, values []string) error {
	norm := models.NormalizeTags(values)
	if len(norm) == 0 {
		return nil
	}
	tags := make([]ProfileTag, 0, len(norm))
	for _, v := range norm {
		tags = append(tags, ProfileTag{EntityID: entityID, Kind: kind, Value: v})
	}
	if err := tx.Create(&tags).Error; err != nil {
		return fmt.Errorf("create %s tags: %w", kind, err)
	}
	return nil
}

// Reset clears every table. Compatible with MySQL, Postgres and SQLite.
func Reset(db *gorm.DB) error {
	for _, table := range []string{"matches", "decisions", "profile_tags", "agent_profiles", "company_profiles", "entities"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE matches AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE entities AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('matches', 'entities')")
	}
	return nil
}

// SeedProfiles resets the database and populates it with demo companies and agents.
//
// Behavior:
//  1. Clears all tables.
//  2. Creates `companies` companies with a country, 1-2 industries and a reputation.
//  3. Creates `agents` agents covering 1-3 countries, 1-2 languages,
//     1-3 specializations and 0-25 years of experience.
//
// Decisions are not seeded here: they must go through the swipe engine so the
// match ledger stays consistent.
func SeedProfiles(db *gorm.DB, r *rand.Rand, companies, agents int) (companyIDs, agentIDs []uint64, err error) {
	if err := Reset(db); err != nil {
		return nil, nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for i := 1; i <= companies; i++ {
			e := &Entity{
				Name:     fmt.Sprintf("company%d", i),
				Language: pick(r, seedLanguages),
			}
			p := &CompanyProfile{
				Country:        pick(r, seedCountries),
				CommissionInfo: fmt.Sprintf("%d%% of first-year revenue", 5+r.Intn(11)),
				Reputation:     roundRep(r.Float64() * 5),
				ReviewCount:    r.Intn(40),
			}
			if err := CreateCompany(tx, e, p, pickN(r, seedIndustries, 1+r.Intn(2))); err != nil {
				return err
			}
			companyIDs = append(companyIDs, e.ID)
		}

		for i := 1; i <= agents; i++ {
			e := &Entity{
				Name:     fmt.Sprintf("agent%d", i),
				Language: pick(r, seedLanguages),
			}
			p := &AgentProfile{
				ExperienceYears: r.Intn(26),
				Reputation:      roundRep(r.Float64() * 5),
			}
			err := CreateAgent(tx, e, p,
				pickN(r, seedCountries, 1+r.Intn(3)),
				pickN(r, seedLanguages, 1+r.Intn(2)),
				pickN(r, seedIndustries, 1+r.Intn(3)),
			)
			if err != nil {
				return err
			}
			agentIDs = append(agentIDs, e.ID)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to seed profiles: %w", err)
	}
	return companyIDs, agentIDs, nil
}

func pick(r *rand.Rand, from []string) string {
	return from[r.Intn(len(from))]
}

func pickN(r *rand.Rand, from []string, n int) []string {
	idx := r.Perm(len(from))
	n = min(n, len(from))
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, from[i])
	}
	return out
}

func roundRep(v float64) float64 {
	return float64(int(v*10)) / 10
}
