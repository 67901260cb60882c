package model

import "time"

// 認証イベント・管理者操作など
type AuditAction string

const (
	//ログイン成功
	AuditActionLogin AuditAction = "LOGIN"

	//refresh失敗（種別はdetailに残す）
	AuditActionRefreshFailed AuditAction = "REFRESH_FAILED"

	//全デバイスログアウト
	AuditActionLogoutAll AuditAction = "LOGOUT_ALL"

	//チャリティアカウント作成
	AuditActionCreateCharity AuditAction = "CREATE_CHARITY"

	//ドライバー本人確認
	AuditActionVerifyDriver AuditAction = "VERIFY_DRIVER"

	//ユーザー停止
	AuditActionDeactivateUser AuditAction = "DEACTIVATE_USER"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceUser    AuditResourceType = "user"
	AuditResourceSession AuditResourceType = "session"
	AuditResourceOrder   AuditResourceType = "order"
)

// 監査ログ。「誰が」「何を」「どの対象に」行ったかを残す
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID（匿名イベントは0）
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//失敗種別などをJSON文字列で保存する
	DetailJSON string `gorm:"type:text" json:"detail_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
