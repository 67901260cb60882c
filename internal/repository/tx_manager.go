package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	Items() ItemRepository
	Orders() OrderRepository
	Notifications() NotificationRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// refresh tokenのrotate（revoke旧＋create新）と注文確定はこの中で行う
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
