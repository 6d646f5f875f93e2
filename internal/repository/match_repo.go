package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/intro-match/internal/db"
	"github.com/oggyb/intro-match/internal/models"
	"github.com/oggyb/intro-match/internal/utils/pagination"
)

// MatchRepository provides data access for the Match Ledger.
// Rows are keyed by the (company_id, agent_id) pair and never deleted.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// LockPair reads the pair's ledger row with a row lock (SELECT ... FOR UPDATE).
// It returns nil when the pair has no row yet. Must run inside a transaction to
// hold the lock; SQLite ignores the locking clause.
func (r *MatchRepository) LockPair(ctx context.Context, pair models.Pair) (*models.Match, error) {
	return r.getPair(ctx, pair, true)
}

// GetPair reads the pair's ledger row without locking; nil when absent.
func (r *MatchRepository) GetPair(ctx context.Context, pair models.Pair) (*models.Match, error) {
	return r.getPair(ctx, pair, false)
}

func (r *MatchRepository) getPair(ctx context.Context, pair models.Pair, lock bool) (*models.Match, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row db.Match
	err := q.Where("company_id = ? AND agent_id = ?", pair.CompanyID, pair.AgentID).Take(&row).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := toMatch(row)
	return &m, nil
}

// Create inserts a new ledger row. A concurrent insert of the same pair fails
// with gorm.ErrDuplicatedKey (the DB must be opened with TranslateError).
func (r *MatchRepository) Create(ctx context.Context, m *models.Match) error {
	row := db.Match{
		CompanyID: m.CompanyID,
		AgentID:   m.AgentID,
		Status:    string(m.Status),
		MatchedAt: m.MatchedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	*m = toMatch(row)
	return nil
}

// UpdateStatus writes the new status (and matched_at) of an existing row.
func (r *MatchRepository) UpdateStatus(ctx context.Context, m *models.Match) error {
	now := r.db.NowFunc()
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"status":     string(m.Status),
			"matched_at": m.MatchedAt,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	m.UpdatedAt = now
	return nil
}

// ListByEntity returns ledger rows where the entity is either side.
//
// Behavior:
//   - status == "" lists every status.
//   - Ordered by updated_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *MatchRepository) ListByEntity(
	ctx context.Context,
	entityID uint64,
	status models.MatchStatus,
	paginationToken *string,
	limit int,
) ([]models.Match, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("matches m").
		Where("(m.company_id = ? OR m.agent_id = ?)", entityID, entityID).
		Order("m.updated_at DESC, m.id DESC").
		Limit(limit + 1)
	if status != models.StatusNone {
		query = query.Where("m.status = ?", string(status))
	}

	// apply cursor
	if !cursor.Empty() {
		ts := cursor.Time()
		query = query.Where(
			"(m.updated_at < ? OR (m.updated_at = ? AND m.id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var rows []db.Match
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(rows) > limit {
		last := rows[limit-1]
		token, _ := pagination.Encode(pagination.At(last.ID, last.UpdatedAt))
		nextToken = &token
		rows = rows[:limit]
	}

	out := make([]models.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMatch(row))
	}
	return out, nextToken, nil
}

// CountByEntity counts ledger rows with the given status where the entity is either side.
func (r *MatchRepository) CountByEntity(ctx context.Context, entityID uint64, status models.MatchStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("(company_id = ? OR agent_id = ?) AND status = ?", entityID, entityID, string(status)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func toMatch(row db.Match) models.Match {
	return models.Match{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		AgentID:   row.AgentID,
		Status:    models.MatchStatus(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		MatchedAt: row.MatchedAt,
	}
}
