package db

import (
	"time"
)

// Tag kinds stored in profile_tags.
const (
	TagIndustry       = "industry"
	TagCountry        = "country"
	TagLanguage       = "language"
	TagSpecialization = "specialization"
)

// Entity table. Role stays empty until onboarding picks one, and never changes after.
type Entity struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:128;not null"`
	Role      string    `gorm:"size:16;not null;default:'';index"`
	Language  string    `gorm:"size:16;not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// CompanyProfile holds the scalar company attributes. Industries live in profile_tags.
type CompanyProfile struct {
	EntityID       uint64    `gorm:"primaryKey;autoIncrement:false"`
	Country        string    `gorm:"size:64;not null;default:'';index"`
	CommissionInfo string    `gorm:"size:1024"`
	Reputation     float64   `gorm:"not null;default:0;index"`
	ReviewCount    int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// AgentProfile holds the scalar agent attributes. Countries, languages and
// specializations live in profile_tags.
type AgentProfile struct {
	EntityID        uint64    `gorm:"primaryKey;autoIncrement:false"`
	ExperienceYears int       `gorm:"not null;default:0;index"`
	Reputation      float64   `gorm:"not null;default:0;index"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// ProfileTag is one normalized set member of a profile attribute.
//
// Composite PK: (EntityID, Kind, Value)
//
// Indexes:
//   - idx_tag_kind_value(kind, value, entity_id)
//     Serves "entities having any of these tags" filters.
type ProfileTag struct {
	EntityID uint64 `gorm:"primaryKey;autoIncrement:false;index:idx_tag_kind_value,priority:3"`
	Kind     string `gorm:"primaryKey;size:16;index:idx_tag_kind_value,priority:1"`
	Value    string `gorm:"primaryKey;size:64;index:idx_tag_kind_value,priority:2"`
}

// Decision represents an actor's like/pass decision on a target.
//
// Composite PK: (ActorID, TargetID)
//   - At most one row per ordered pair. Rows are inserted once and never updated,
//     a second insert for the same pair is a replay.
//
// Indexes:
//   - idx_decision_target(target_id, actor_id)
//     Serves "who decided on me" lookups.
//
// Fields:
//   - ActorID: The entity making the decision.
//   - TargetID: The entity being liked/passed.
//   - Action: "like" or "pass".
//   - CreatedAt: When the decision was recorded.
type Decision struct {
	ActorID   uint64    `gorm:"primaryKey;autoIncrement:false"`
	TargetID  uint64    `gorm:"primaryKey;autoIncrement:false;index:idx_decision_target,priority:1"`
	Action    string    `gorm:"size:8;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Match is the ledger row of a Company–Agent pair.
//
// Unique index ux_match_pair(company_id, agent_id) guarantees at most one row per
// pair regardless of which side wrote first.
//
// Indexes:
//   - idx_match_agent_status(agent_id, status)
//   - idx_match_company_status(company_id, status)
//     Serve per-entity listings and the rejected-pair exclusion.
type Match struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement"`
	CompanyID uint64     `gorm:"not null;uniqueIndex:ux_match_pair,priority:1;index:idx_match_company_status,priority:1"`
	AgentID   uint64     `gorm:"not null;uniqueIndex:ux_match_pair,priority:2;index:idx_match_agent_status,priority:1"`
	Status    string     `gorm:"size:16;not null;index:idx_match_company_status,priority:2;index:idx_match_agent_status,priority:2"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime;index"`
	MatchedAt *time.Time `gorm:"index"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&Entity{}, &CompanyProfile{}, &AgentProfile{}, &ProfileTag{}, &Decision{}, &Match{}}
}
