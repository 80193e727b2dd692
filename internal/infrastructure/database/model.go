package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Database models. These are storage-layer types only; converter.go maps them
// to domain entities at the boundary.

// dialogModel is one workflow dialog row. The partial unique index keeps at
// most one active row per workflow_id while retired rows accumulate freely.
type dialogModel struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	WorkflowID   string             `gorm:"type:varchar(255);not null;index;uniqueIndex:uniq_active_workflow,where:is_active"`
	WorkflowName string             `gorm:"type:varchar(500)"`
	WorkflowData datatypes.JSONMap  `gorm:"type:jsonb"`
	Metadata     datatypes.JSONMap  `gorm:"type:jsonb"`
	IsActive     bool               `gorm:"not null;default:true;index"`
	CreatedAt    time.Time          `gorm:"not null"`
	UpdatedAt    time.Time          `gorm:"not null"`

	Sessions []sessionModel `gorm:"foreignKey:DialogID;constraint:OnDelete:CASCADE"`
}

func (dialogModel) TableName() string { return "workflow_dialogs" }

// sessionModel is one chat session row. NextSeq hands out message sequence
// numbers inside the append transaction so equal timestamps keep insertion
// order.
type sessionModel struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	SessionID    string            `gorm:"type:varchar(255);not null;uniqueIndex"`
	DialogID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb"`
	NextSeq      int64             `gorm:"not null;default:0"`
	CreatedAt    time.Time         `gorm:"not null"`
	LastActivity time.Time         `gorm:"not null;index"`

	Messages []messageModel `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (sessionModel) TableName() string { return "chat_sessions" }

// messageModel is one message row, totally ordered by (timestamp, seq).
type messageModel struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	MessageID  string            `gorm:"type:varchar(255);not null;uniqueIndex"`
	SessionID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	Role       string            `gorm:"type:varchar(50);not null"`
	Content    string            `gorm:"type:text;not null"`
	Timestamp  time.Time         `gorm:"not null;index"`
	Seq        int64             `gorm:"not null"`
	TokensUsed *int              `gorm:""`
	Provider   string            `gorm:"type:varchar(50)"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
}

func (messageModel) TableName() string { return "messages" }

// userModel is one user account row; soft deletes are a nullable timestamp.
type userModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username     string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	LastLoginAt  *time.Time `gorm:""`
	DeletedAt    *time.Time `gorm:"index"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

func (userModel) TableName() string { return "users" }

// Models lists every model for automigration.
func Models() []interface{} {
	return []interface{}{
		&dialogModel{},
		&sessionModel{},
		&messageModel{},
		&userModel{},
	}
}
