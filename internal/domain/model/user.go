package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ユーザーは認証側が持ち主。ここでは検証済みの
// role / token_version の参照と通知先メールの取得にだけ使う。
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"type:varchar(100)"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'USER'"`
	TokenVersion int    `gorm:"not null;default:0"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
