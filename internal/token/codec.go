package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// access tokenに入れるクレーム。発行時点のスナップショットで、
// 以降の認可判定はこの値だけで行う（DBは見ない）
type Claims struct {
	UserID   int64
	UserType string
	Verified bool
	IssuedAt time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	jwt.RegisteredClaims
	UserType string `json:"user_type"`
	Verified bool   `json:"verified"`
}

// 短命なaccess tokenの発行・検証。ストレージは一切触らない
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl, now: time.Now}
}

// テストで時刻を固定するためのコンストラクタ
func NewCodecWithClock(secret []byte, ttl time.Duration, now func() time.Time) *Codec {
	return &Codec{secret: secret, ttl: ttl, now: now}
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// HS256で署名した自己完結トークンを発行する
func (c *Codec) Issue(userID int64, userType string, verified bool) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.ttl)

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserType: userType,
		Verified: verified,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// 署名と期限を検証してクレームを返す。
// now >= exp ちょうどの時刻でもErrExpired
func (c *Codec) Verify(raw string) (Claims, error) {
	var claims jwtClaims

	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrSignatureInvalid):
			return Claims{}, ErrSignatureInvalid
		default:
			return Claims{}, ErrMalformed
		}
	}

	if tok == nil || !tok.Valid {
		return Claims{}, ErrMalformed
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, ErrMalformed
	}

	var iat, exp time.Time
	if claims.IssuedAt != nil {
		iat = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	} else {
		//expなしは受け付けない
		return Claims{}, ErrMalformed
	}

	return Claims{
		UserID:    userID,
		UserType:  claims.UserType,
		Verified:  claims.Verified,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}
