package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/intro-match/internal/db"
	"github.com/oggyb/intro-match/internal/models"
	"github.com/oggyb/intro-match/internal/utils/pagination"
)

// DecisionRepository provides data access methods for the Decision Log.
// It encapsulates all queries related to likes/passes between entities.
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new repository bound to the given DB connection.
func NewDecisionRepository(database *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: database}
}

// Record appends a decision made by actor -> target, if none exists yet.
//
// Behavior:
//   - If (actor_id, target_id) does not exist → a new row is inserted, inserted = true.
//   - If it exists → nothing is written, inserted = false (replay).
//   - Composite PK makes this idempotent under concurrent submissions.
//
// Example:
//
//	repo.Record(ctx, models.Decision{ActorID: 1, TargetID: 2, Action: models.ActionLike})
func (r *DecisionRepository) Record(ctx context.Context, d models.Decision) (bool, error) {
	row := db.Decision{
		ActorID:  d.ActorID,
		TargetID: d.TargetID,
		Action:   string(d.Action),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Get returns the decision for (actor, target), or nil when there is none.
func (r *DecisionRepository) Get(ctx context.Context, actorID, targetID uint64) (*models.Decision, error) {
	var row db.Decision
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		Take(&row).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d := toDecision(row)
	return &d, nil
}

// ListIncomingLikes returns likes the target received and has not answered yet.
//
// Behavior:
//   - Only decisions where target_id = X and action = like are considered.
//   - Excludes actors the target already decided on (liked back or passed).
//   - Ordered by created_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListIncomingLikes(ctx, 42, nil, 20) // first 20 unanswered likes for entity 42
func (r *DecisionRepository) ListIncomingLikes(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]models.Decision, *string, error) {
	var rows []db.Decision

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("decisions d").
		Where("d.target_id = ? AND d.action = ?", targetID, string(models.ActionLike)).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM decisions d2
				WHERE d2.actor_id = ?
				  AND d2.target_id = d.actor_id
			)`, targetID).
		Order("d.created_at DESC, d.actor_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.Empty() {
		ts := cursor.Time()
		query = query.Where(
			"(d.created_at < ? OR (d.created_at = ? AND d.actor_id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(rows) > limit {
		last := rows[limit-1]
		token, _ := pagination.Encode(pagination.At(last.ActorID, last.CreatedAt))
		nextToken = &token
		rows = rows[:limit]
	}

	out := make([]models.Decision, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDecision(row))
	}
	return out, nextToken, nil
}

func toDecision(row db.Decision) models.Decision {
	return models.Decision{
		ActorID:   row.ActorID,
		TargetID:  row.TargetID,
		Action:    models.Action(row.Action),
		CreatedAt: row.CreatedAt,
	}
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
