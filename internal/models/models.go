package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// PracticeSession is the persisted record of a practice table session
type PracticeSession struct {
	ID          int          `db:"id" json:"id"`
	Token       string       `db:"token" json:"token"`
	DisplayName string       `db:"display_name" json:"display_name"`
	Status      string       `db:"status" json:"status"`
	Shots       int          `db:"shots" json:"shots"`
	Captures    int          `db:"captures" json:"captures"`
	Resets      int          `db:"resets" json:"resets"`
	Frames      int64        `db:"frames" json:"frames"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	EndedAt     sql.NullTime `db:"ended_at" json:"ended_at,omitempty"`
}

// PracticeEvent is a notable event during a session (capture, scene reset, shot)
type PracticeEvent struct {
	ID        int            `db:"id" json:"id"`
	SessionID int            `db:"session_id" json:"session_id"`
	EventType string         `db:"event_type" json:"event_type"`
	BodyID    int            `db:"body_id" json:"body_id"`
	TargetID  sql.NullInt64  `db:"target_id" json:"target_id,omitempty"`
	Speed     float64        `db:"speed" json:"speed"`
	Frame     int64          `db:"frame" json:"frame"`
	Details   sql.NullString `db:"details" json:"details,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// AdminAccount represents an operator allowed to manage sessions
type AdminAccount struct {
	Phone       string         `db:"phone" json:"phone"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs  pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one entry of the admin audit log
type AdminAudit struct {
	ID         int             `db:"id" json:"id"`
	AdminPhone string          `db:"admin_phone" json:"admin_phone"`
	IP         string          `db:"ip" json:"ip"`
	Route      string          `db:"route" json:"route"`
	Action     string          `db:"action" json:"action"`
	Details    json.RawMessage `db:"details" json:"details"`
	Success    bool            `db:"success" json:"success"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// RuntimeConfig is an operator-editable override of a config value
type RuntimeConfig struct {
	Key         string         `db:"key" json:"key"`
	Value       string         `db:"value" json:"value"`
	ValueType   string         `db:"value_type" json:"value_type"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	UpdatedBy   sql.NullString `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
