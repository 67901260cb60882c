package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	users         repo.UserRepository
	refreshTokens repo.RefreshTokenRepository
	items         repo.ItemRepository
	orders        repo.OrderRepository
	notifications repo.NotificationRepository
}

func (r *txReposGorm) Users() repo.UserRepository                   { return r.users }
func (r *txReposGorm) RefreshTokens() repo.RefreshTokenRepository   { return r.refreshTokens }
func (r *txReposGorm) Items() repo.ItemRepository                   { return r.items }
func (r *txReposGorm) Orders() repo.OrderRepository                 { return r.orders }
func (r *txReposGorm) Notifications() repo.NotificationRepository   { return r.notifications }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			users:         NewUserRepository(tx),
			refreshTokens: NewRefreshTokenRepository(tx),
			items:         NewItemRepository(tx),
			orders:        NewOrderGormRepository(tx),
			notifications: NewNotificationRepository(tx),
		}
		return fn(r)
	})
}
