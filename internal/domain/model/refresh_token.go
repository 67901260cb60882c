package model

import "time"

// 1行=発行した1つのrefresh token（1デバイス/1セッション）
type RefreshToken struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID int64  `gorm:"not null;index" json:"user_id"`

	//ランダムな不透明トークン。完全一致で検索する
	Token string `json:"-" gorm:"not null;uniqueIndex"`

	//クライアントが付けるデバイス名（任意）
	DeviceName string `gorm:"type:varchar(255)" json:"device_name"`
	IPAddress  string `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent  string `gorm:"type:varchar(512)" json:"user_agent"`

	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	LastUsedAt *time.Time `gorm:"index" json:"last_used_at"`

	//セットしたら恒久的に無効。戻すことはない
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 有効 = 未失効かつ期限内
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
