package model

import "time"

type UserType string

const (
	UserTypeUser    UserType = "USER"
	UserTypeDriver  UserType = "DRIVER"
	UserTypeCharity UserType = "CHARITY"
	UserTypeAdmin   UserType = "ADMIN"
)

type User struct {
	ID           int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string   `gorm:"type:varchar(255);not null" json:"name"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"column:password_hash;not null" json:"-"`
	UserType     UserType `gorm:"type:varchar(20);not null;default:'USER'" json:"user_type"`

	//ドライバーの本人確認が完了した時刻（adminがセット）
	VerifiedAt *time.Time `json:"verified_at"`

	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// ドライバーとして配達を受けられるか
func (u *User) IsVerifiedDriver() bool {
	return u.UserType == UserTypeDriver && u.VerifiedAt != nil
}
