package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// stats用の集計値
type SessionStats struct {
	ActiveCount  int64 `json:"active_count"`
	TotalIssued  int64 `json:"total_issued"`
	RevokedCount int64 `json:"revoked_count"`
}

// リフレッシュトークンの保存・取得・失効。
// このテーブルへの書き込みは全部ここを通す
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error

	//token文字列の完全一致で1件検索
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)

	//last_used_atを更新（rotate=false のrefresh時）
	TouchLastUsed(ctx context.Context, tokenID string, usedAt time.Time) error

	//revoked_atをセットする。対象がすでに失効済みか存在しなければ
	//ErrRefreshTokenNotFound（rotate競合の検知に使う）
	Revoke(ctx context.Context, tokenID string, revokedAt time.Time) error

	//ユーザーの未失効トークンを全部失効して件数を返す
	RevokeAllByUserID(ctx context.Context, userID int64, revokedAt time.Time) (int64, error)

	//有効なセッション一覧（最近使った順）
	ListActiveByUserID(ctx context.Context, userID int64, now time.Time) ([]model.RefreshToken, error)

	//発行・有効・失効の件数
	StatsByUserID(ctx context.Context, userID int64, now time.Time) (SessionStats, error)
}
