package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

// リフレッシュトークンを保存
func (r *refreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	//タイムアウトやキャンセルをDB処理に伝える
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return err
	}
	return nil
}

// token文字列の完全一致で1件検索します
func (r *refreshTokenGormRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken

	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&rt).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRefreshTokenNotFound
		}
		return nil, err
	}

	return &rt, nil
}

// last_used_atを更新します（rotateしないrefresh）
func (r *refreshTokenGormRepository) TouchLastUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", tokenID).
		Update("last_used_at", &usedAt)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrRefreshTokenNotFound
	}

	return nil
}

// revoked_atをセットして無効。
// 未失効の行だけを対象にするので、二重rotateの負け側は0件更新になる
func (r *refreshTokenGormRepository) Revoke(ctx context.Context, tokenID string, revokedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", tokenID).
		Update("revoked_at", &revokedAt)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrRefreshTokenNotFound
	}

	return nil
}

// 指定ユーザーの未失効トークンを全部失効して件数を返します
func (r *refreshTokenGormRepository) RevokeAllByUserID(ctx context.Context, userID int64, revokedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", &revokedAt)

	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// 有効なセッションを最近使った順で返します
func (r *refreshTokenGormRepository) ListActiveByUserID(ctx context.Context, userID int64, now time.Time) ([]model.RefreshToken, error) {
	var list []model.RefreshToken

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Order("COALESCE(last_used_at, created_at) DESC").
		Find(&list).Error

	if err != nil {
		return nil, err
	}

	return list, nil
}

// 発行・有効・失効の件数を集計します
func (r *refreshTokenGormRepository) StatsByUserID(ctx context.Context, userID int64, now time.Time) (repo.SessionStats, error) {
	var stats repo.SessionStats

	base := r.db.WithContext(ctx).Model(&model.RefreshToken{}).Where("user_id = ?", userID)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalIssued).Error; err != nil {
		return repo.SessionStats{}, err
	}

	if err := base.Session(&gorm.Session{}).
		Where("revoked_at IS NULL AND expires_at > ?", now).
		Count(&stats.ActiveCount).Error; err != nil {
		return repo.SessionStats{}, err
	}

	if err := base.Session(&gorm.Session{}).
		Where("revoked_at IS NOT NULL").
		Count(&stats.RevokedCount).Error; err != nil {
		return repo.SessionStats{}, err
	}

	return stats, nil
}
