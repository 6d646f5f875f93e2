package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/intro-match/internal/db"
	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
)

// ProfileRepository reads entities together with their role-specific profile.
// From the engine's point of view it is read-only; the create methods exist for
// onboarding and seeding.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// CandidateQuery describes one candidate-pool lookup.
type CandidateQuery struct {
	RequesterID uint64
	Role        models.Role
	Filters     models.Filters
	Limit       int
}

// GetEntity loads an entity and its profile.
//
// Behavior:
//   - Returns errors.ErrNotFound when the entity does not exist.
//   - An entity without role, or whose profile row is missing, is returned
//     with a nil Profile; callers decide whether that is acceptable.
func (r *ProfileRepository) GetEntity(ctx context.Context, id uint64) (*models.Entity, error) {
	entities, err := r.GetEntities(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("entity %d: %w", id, svcErr.ErrNotFound)
	}
	return &entities[0], nil
}

// GetEntities loads entities by id, preserving the order of ids.
// Unknown ids are skipped.
func (r *ProfileRepository) GetEntities(ctx context.Context, ids []uint64) ([]models.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx)

	var rows []db.Entity
	if err := q.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var companies []db.CompanyProfile
	if err := q.Where("entity_id IN ?", ids).Find(&companies).Error; err != nil {
		return nil, err
	}
	var agents []db.AgentProfile
	if err := q.Where("entity_id IN ?", ids).Find(&agents).Error; err != nil {
		return nil, err
	}
	var tags []db.ProfileTag
	if err := q.Where("entity_id IN ?", ids).Order("entity_id, kind, value").Find(&tags).Error; err != nil {
		return nil, err
	}

	companyByID := make(map[uint64]*db.CompanyProfile, len(companies))
	for i := range companies {
		companyByID[companies[i].EntityID] = &companies[i]
	}
	agentByID := make(map[uint64]*db.AgentProfile, len(agents))
	for i := range agents {
		agentByID[agents[i].EntityID] = &agents[i]
	}
	tagsByID := make(map[uint64]map[string][]string)
	for _, t := range tags {
		if tagsByID[t.EntityID] == nil {
			tagsByID[t.EntityID] = make(map[string][]string)
		}
		tagsByID[t.EntityID][t.Kind] = append(tagsByID[t.EntityID][t.Kind], t.Value)
	}

	rowByID := make(map[uint64]*db.Entity, len(rows))
	for i := range rows {
		rowByID[rows[i].ID] = &rows[i]
	}

	out := make([]models.Entity, 0, len(rows))
	for _, id := range ids {
		row, ok := rowByID[id]
		if !ok {
			continue
		}
		e := models.Entity{ID: row.ID, Role: models.Role(row.Role), Language: row.Language}
		t := tagsByID[id]
		switch e.Role {
		case models.RoleCompany:
			if cp, ok := companyByID[id]; ok {
				e.Profile = &models.CompanyProfile{
					Country:        cp.Country,
					Industries:     t[db.TagIndustry],
					CommissionInfo: cp.CommissionInfo,
					Reputation:     cp.Reputation,
					ReviewCount:    cp.ReviewCount,
				}
			}
		case models.RoleAgent:
			if ap, ok := agentByID[id]; ok {
				e.Profile = &models.AgentProfile{
					Countries:       t[db.TagCountry],
					Languages:       t[db.TagLanguage],
					Specializations: t[db.TagSpecialization],
					ExperienceYears: ap.ExperienceYears,
					Reputation:      ap.Reputation,
				}
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// FindCandidates returns up to q.Limit entities of q.Role that the requester may
// still be offered.
//
// Behavior:
//   - Excludes the requester itself.
//   - Excludes every target the requester already decided on (decisions table).
//   - Excludes every target whose match with the requester is rejected.
//   - Only entities with a profile row are considered.
//   - Filters are ANDed; experience filters only apply to agents.
//   - Ordered by reputation DESC, id ASC.
func (r *ProfileRepository) FindCandidates(ctx context.Context, q CandidateQuery) ([]models.Entity, error) {
	if !q.Role.Valid() || q.Limit <= 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).
		Table("entities e").
		Where("e.role = ? AND e.id <> ?", string(q.Role), q.RequesterID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM decisions d
				WHERE d.actor_id = ?
				  AND d.target_id = e.id
			)`, q.RequesterID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE m.status = ?
				  AND ((m.company_id = ? AND m.agent_id = e.id)
				    OR (m.agent_id = ? AND m.company_id = e.id))
			)`, string(models.StatusRejected), q.RequesterID, q.RequesterID)

	f := q.Filters
	var reputationCol string
	switch q.Role {
	case models.RoleCompany:
		reputationCol = "cp.reputation"
		query = query.Joins("JOIN company_profiles cp ON cp.entity_id = e.id")
		if c := models.NormalizeTag(f.Country); c != "" {
			query = query.Where("cp.country = ?", c)
		}
		query = whereHasTag(query, db.TagIndustry, f.Industries)
		if langs := models.NormalizeTags(f.Languages); len(langs) > 0 {
			query = query.Where("LOWER(e.language) IN ?", langs)
		}
	case models.RoleAgent:
		reputationCol = "ap.reputation"
		query = query.Joins("JOIN agent_profiles ap ON ap.entity_id = e.id")
		if c := models.NormalizeTag(f.Country); c != "" {
			query = whereHasTag(query, db.TagCountry, []string{c})
		}
		query = whereHasTag(query, db.TagSpecialization, f.Industries)
		query = whereHasTag(query, db.TagLanguage, f.Languages)
		if f.MinExperience != nil {
			query = query.Where("ap.experience_years >= ?", *f.MinExperience)
		}
		if f.MaxExperience != nil {
			query = query.Where("ap.experience_years <= ?", *f.MaxExperience)
		}
	}
	if f.MinReputation != nil {
		query = query.Where(reputationCol+" >= ?", *f.MinReputation)
	}

	var ids []uint64
	err := query.
		Order(reputationCol + " DESC").
		Order("e.id ASC").
		Limit(q.Limit).
		Pluck("e.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return r.GetEntities(ctx, ids)
}

func whereHasTag(query *gorm.DB, kind string, values []string) *gorm.DB {
	norm := models.NormalizeTags(values)
	if len(norm) == 0 {
		return query
	}
	return query.Where(`
		EXISTS (
			SELECT 1 FROM profile_tags t
			WHERE t.entity_id = e.id
			  AND t.kind = ?
			  AND t.value IN ?
		)`, kind, norm)
}

// CreateCompany onboards a company with its profile.
func (r *ProfileRepository) CreateCompany(ctx context.Context, name, language string, p models.CompanyProfile) (*models.Entity, error) {
	row := &db.Entity{Name: name, Language: models.NormalizeTag(language)}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return db.CreateCompany(tx, row, &db.CompanyProfile{
			Country:        p.Country,
			CommissionInfo: p.CommissionInfo,
			Reputation:     p.Reputation,
			ReviewCount:    p.ReviewCount,
		}, p.Industries)
	})
	if err != nil {
		return nil, err
	}
	return r.GetEntity(ctx, row.ID)
}

// CreateAgent onboards an agent with its profile.
func (r *ProfileRepository) CreateAgent(ctx context.Context, name, language string, p models.AgentProfile) (*models.Entity, error) {
	row := &db.Entity{Name: name, Language: models.NormalizeTag(language)}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return db.CreateAgent(tx, row, &db.AgentProfile{
			ExperienceYears: p.ExperienceYears,
			Reputation:      p.Reputation,
		}, p.Countries, p.Languages, p.Specializations)
	})
	if err != nil {
		return nil, err
	}
	return r.GetEntity(ctx, row.ID)
}

// CreateBareEntity registers an entity that has not completed onboarding yet.
func (r *ProfileRepository) CreateBareEntity(ctx context.Context, name string) (*models.Entity, error) {
	row := &db.Entity{Name: name}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return &models.Entity{ID: row.ID}, nil
}

// isNotFound reports whether err is a "no rows" error from GORM.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
