package models

import (
	"time"

	"github.com/greenstay/hotelenergy/internal/rbac"
)

type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"unique;not null"          json:"username"`
	Email        *string    `gorm:"uniqueIndex"              json:"email,omitempty"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	Role         rbac.Role  `gorm:"not null"                 json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// RefreshToken stores the server-side record of an issued refresh token.
// Token holds a sha256 of the signed token, never the token itself.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	Token     string    `gorm:"unique;not null"      json:"-"`
	UserID    uint      `gorm:"index;not null"       json:"user_id"`
	ExpiresAt int64     `gorm:"not null"             json:"expires_at"`
	Revoked   bool      `gorm:"default:false"        json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

type RoomData struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID    string    `gorm:"index;not null"           json:"room_id"`
	Temp      float64   `json:"temp"`
	Humidity  float64   `json:"humidity"`
	Occupied  bool      `json:"occupied"`
	Timestamp time.Time `gorm:"index"                    json:"timestamp"`
}
