package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemLog stores structured error logs so failed submissions can be
// inspected after the fact.
type SystemLog struct {
	ID        string         `gorm:"type:uuid;primaryKey" bson:"_id" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" bson:"timestamp" json:"timestamp"`
	Level     string         `gorm:"size:10;not null;index" bson:"level" json:"level"`
	Message   string         `gorm:"type:text" bson:"message" json:"message"`
	RequestID string         `gorm:"size:64;index" bson:"requestId,omitempty" json:"request_id"`
	UserID    *string        `gorm:"size:64" bson:"userId,omitempty" json:"user_id"`
	Action    string         `gorm:"size:100" bson:"action,omitempty" json:"action"`
	Error     string         `gorm:"type:text" bson:"error,omitempty" json:"error"`
	LatencyMs int            `bson:"latencyMs,omitempty" json:"latency_ms"`
	Extra     datatypes.JSON `gorm:"type:jsonb;default:'{}'" bson:"extra,omitempty" json:"extra"`
	CreatedAt time.Time      `bson:"createdAt" json:"created_at"`
}
