package token

import "errors"

// 失敗種別の閉じた集合。handlerはこれをerrors.Isで判定して
// ステータスに変換する（HTTP層以外では使い分けない）
var (
	//パース・デコードできない
	ErrMalformed = errors.New("token malformed")

	//署名が一致しない（改ざん・鍵違い）
	ErrSignatureInvalid = errors.New("token signature invalid")

	//有効期限切れ
	ErrExpired = errors.New("token expired")

	//refresh tokenのレコードが存在しない
	ErrNotFound = errors.New("refresh token not found")

	//明示的に失効済み
	ErrRevoked = errors.New("refresh token revoked")

	//DB障害など。NotFoundと混同してはいけない
	ErrStorageUnavailable = errors.New("token storage unavailable")
)
