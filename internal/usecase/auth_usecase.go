package usecase

import (
	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/token"

	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403　権限
	ErrForbidden = errors.New("forbidden")
	//競合
	ErrConflict = errors.New("conflict")
	//500
	ErrInternal = errors.New("internal error")
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, name string, email string, password string, userType string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string) error
}

type UserDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	Verified bool   `json:"verified"`
	IsActive bool   `json:"is_active"`
}

// login/refreshが返すトークンの形
type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
}

type AuthLoginResponse struct {
	User  UserDTO      `json:"user"`
	Token TokenPairDTO `json:"token"`
}

type ValidateResponse struct {
	Valid  bool           `json:"valid"`
	Claims ValidateClaims `json:"claims"`
}

type ValidateClaims struct {
	UserID   int64  `json:"user_id"`
	UserType string `json:"user_type"`
	Verified bool   `json:"verified"`
}

type LogoutAllResponse struct {
	RevokedCount int64 `json:"revoked_count"`
}

// セッション一覧の1件。token文字列は絶対に含めない
type SessionDTO struct {
	DeviceName string     `json:"device_name"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type AuthUsecase struct {
	users      repository.UserRepository
	rtRepo     repository.RefreshTokenRepository
	tx         repository.TransactionManager
	auditRepo  repository.AuditLogRepository
	codec      *token.Codec
	validator  AuthValidator
	refreshTTL time.Duration
	logger     *zap.Logger
}

func NewAuthUsecase(
	users repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	tx repository.TransactionManager,
	auditRepo repository.AuditLogRepository,
	codec *token.Codec,
	validator AuthValidator,
	refreshTTL time.Duration,
	logger *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		rtRepo:     rtRepo,
		tx:         tx,
		auditRepo:  auditRepo,
		codec:      codec,
		validator:  validator,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Name, req.Email, req.Password, req.UserType); err != nil {
		return nil, err
	}

	//自己登録できるのはUSERとDRIVERだけ。CHARITYはadminが作る
	userType := model.UserType(req.UserType)
	if userType == "" {
		userType = model.UserTypeUser
	}
	if userType != model.UserTypeUser && userType != model.UserTypeDriver {
		return nil, ErrValidation
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrInternal
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(pwHash),
		UserType:     userType,
		IsActive:     true,
	}

	//保存（email重複などはrepo/validatorで弾く）
	if err := u.users.Create(ctx, user); err != nil {
		return nil, ErrConflict
	}

	return &AuthRegisterResponse{
		User: toUserDTO(user),
	}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest, userAgent string, ip string) (*AuthLoginResponse, error) {
	//入力検証
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	//last_login更新
	now := time.Now()
	user.LastLoginAt = &now
	_ = u.users.Update(ctx, user)

	//access token発行
	accessToken, _, err := u.codec.Issue(user.ID, string(user.UserType), user.IsVerifiedDriver())
	if err != nil {
		return nil, ErrInternal
	}

	//refresh token発行（DB保存）
	rt, err := u.issueRefreshToken(ctx, u.rtRepo, user.ID, req.DeviceName, ip, userAgent)
	if err != nil {
		return nil, err
	}

	u.audit(ctx, user.ID, model.AuditActionLogin, model.AuditResourceUser, user.ID, "")

	return &AuthLoginResponse{
		User: toUserDTO(user),
		Token: TokenPairDTO{
			AccessToken:  accessToken,
			RefreshToken: rt.Token,
			TokenType:    "bearer",
			ExpiresIn:    int(u.codec.TTL().Seconds()),
		},
	}, nil
}

// refresh tokenを検証して新しいaccess tokenを返す。
// rotate=trueなら旧tokenを失効して新tokenに差し替える
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, rotate bool) (*TokenPairDTO, error) {
	//入力検証
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain); err != nil {
		return nil, err
	}

	//完全一致でDB照合
	rt, err := u.rtRepo.FindByToken(ctx, refreshTokenPlain)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, u.rejectRefresh(ctx, 0, token.ErrNotFound)
		}
		//DB障害はNotFound扱いにしない
		return nil, u.rejectRefresh(ctx, 0, fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err))
	}

	//revoked（恒久的に無効）
	if rt.RevokedAt != nil {
		return nil, u.rejectRefresh(ctx, rt.UserID, token.ErrRevoked)
	}

	//期限切れ
	if !rt.ExpiresAt.After(time.Now()) {
		return nil, u.rejectRefresh(ctx, rt.UserID, token.ErrExpired)
	}

	//クレームは毎回User Storeから取り直す（ロール変更を即反映）
	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil {
		return nil, u.rejectRefresh(ctx, rt.UserID, fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err))
	}
	if user == nil {
		return nil, u.rejectRefresh(ctx, rt.UserID, token.ErrNotFound)
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//access再発行
	accessToken, _, err := u.codec.Issue(user.ID, string(user.UserType), user.IsVerifiedDriver())
	if err != nil {
		return nil, ErrInternal
	}

	refreshPlain := rt.Token
	now := time.Now()

	if rotate {
		//revoke旧＋create新は1トランザクション。
		//同じtokenで同時にrotateされたら片方はrevokedで負ける
		err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
			if err := r.RefreshTokens().Revoke(ctx, rt.ID, now); err != nil {
				if errors.Is(err, repository.ErrRefreshTokenNotFound) {
					return token.ErrRevoked
				}
				return fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err)
			}

			//デバイス情報は旧tokenから引き継ぐ
			newRT, err := u.issueRefreshToken(ctx, r.RefreshTokens(), rt.UserID, rt.DeviceName, rt.IPAddress, rt.UserAgent)
			if err != nil {
				return err
			}

			refreshPlain = newRT.Token
			return nil
		})
		if err != nil {
			if errors.Is(err, token.ErrRevoked) || errors.Is(err, token.ErrStorageUnavailable) {
				return nil, u.rejectRefresh(ctx, rt.UserID, err)
			}
			return nil, err
		}
	} else {
		//使った印だけ残す
		if err := u.rtRepo.TouchLastUsed(ctx, rt.ID, now); err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return nil, u.rejectRefresh(ctx, rt.UserID, token.ErrRevoked)
			}
			return nil, u.rejectRefresh(ctx, rt.UserID, fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err))
		}
	}

	return &TokenPairDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshPlain,
		TokenType:    "bearer",
		ExpiresIn:    int(u.codec.TTL().Seconds()),
	}, nil
}

// access tokenを検証してクレームを返す
func (u *AuthUsecase) Validate(ctx context.Context, accessToken string) (*ValidateResponse, error) {
	claims, err := u.codec.Verify(accessToken)
	if err != nil {
		u.logger.Warn("access token rejected", zap.String("kind", err.Error()))
		return nil, err
	}

	return &ValidateResponse{
		Valid: true,
		Claims: ValidateClaims{
			UserID:   claims.UserID,
			UserType: claims.UserType,
			Verified: claims.Verified,
		},
	}, nil
}

// 単一デバイスのログアウト。失効済みtokenに対しては何もせず成功
func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) (*SuccessResponse, error) {
	if refreshTokenPlain == "" {
		return nil, token.ErrNotFound
	}

	rt, err := u.rtRepo.FindByToken(ctx, refreshTokenPlain)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, token.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err)
	}

	//二重revokeはエラーにしない
	if rt.RevokedAt != nil {
		return &SuccessResponse{Message: "logout success"}, nil
	}

	if err := u.rtRepo.Revoke(ctx, rt.ID, time.Now()); err != nil {
		//直前に別リクエストがrevokeしていても冪等に成功扱い
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return &SuccessResponse{Message: "logout success"}, nil
		}
		return nil, fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err)
	}

	return &SuccessResponse{Message: "logout success"}, nil
}

// 全デバイスログアウト。失効した件数を返す
func (u *AuthUsecase) LogoutAll(ctx context.Context, userID int64) (*LogoutAllResponse, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	count, err := u.rtRepo.RevokeAllByUserID(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err)
	}

	u.audit(ctx, userID, model.AuditActionLogoutAll, model.AuditResourceSession, userID, fmt.Sprintf(`{"revoked_count":%d}`, count))
	u.logger.Info("logout all devices",
		zap.Int64("user_id", userID),
		zap.Int64("revoked_count", count),
	)

	return &LogoutAllResponse{RevokedCount: count}, nil
}

// 有効なセッション一覧（最近使った順）。token文字列は返さない
func (u *AuthUsecase) Sessions(ctx context.Context, userID int64) ([]SessionDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	list, err := u.rtRepo.ListActiveByUserID(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err)
	}

	out := make([]SessionDTO, 0, len(list))
	for _, rt := range list {
		out = append(out, SessionDTO{
			DeviceName: rt.DeviceName,
			IPAddress:  rt.IPAddress,
			UserAgent:  rt.UserAgent,
			LastUsedAt: rt.LastUsedAt,
			ExpiresAt:  rt.ExpiresAt,
			CreatedAt:  rt.CreatedAt,
		})
	}

	return out, nil
}

// セッションの集計（デバッグ・可観測性用）
func (u *AuthUsecase) Stats(ctx context.Context, userID int64) (*repository.SessionStats, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	stats, err := u.rtRepo.StatsByUserID(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err)
	}

	return &stats, nil
}

// refresh token（不透明・256bit乱数）を作って保存する
func (u *AuthUsecase) issueRefreshToken(
	ctx context.Context,
	rtRepo repository.RefreshTokenRepository,
	userID int64,
	deviceName string,
	ip string,
	userAgent string,
) (*model.RefreshToken, error) {
	plain, err := newOpaqueToken()
	if err != nil {
		return nil, ErrInternal
	}

	rt := &model.RefreshToken{
		ID:         uuid.NewString(),
		UserID:     userID,
		Token:      plain,
		DeviceName: deviceName,
		IPAddress:  ip,
		UserAgent:  userAgent,
		ExpiresAt:  time.Now().Add(u.refreshTTL),
	}

	if err := rtRepo.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("%w: %v", token.ErrStorageUnavailable, err)
	}

	return rt, nil
}

// refresh失敗の種別はクライアントに細かく返さないが、
// 監査とセキュリティ監視のためにログには必ず残す
func (u *AuthUsecase) rejectRefresh(ctx context.Context, userID int64, cause error) error {
	u.logger.Warn("refresh token rejected",
		zap.Int64("user_id", userID),
		zap.String("kind", kindOf(cause)),
	)
	u.audit(ctx, userID, model.AuditActionRefreshFailed, model.AuditResourceSession, userID,
		fmt.Sprintf(`{"kind":%q}`, kindOf(cause)))
	return cause
}

// 監査ログの書き込み失敗で本処理は落とさない
func (u *AuthUsecase) audit(ctx context.Context, actorID int64, action model.AuditAction, rt model.AuditResourceType, resourceID int64, detail string) {
	_ = u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: rt,
		ResourceID:   resourceID,
		DetailJSON:   detail,
		CreatedAt:    time.Now(),
	})
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, token.ErrNotFound):
		return "not_found"
	case errors.Is(err, token.ErrRevoked):
		return "revoked"
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "unknown"
	}
}

// 256bitの乱数をbase64urlで文字列化する
func newOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		UserType: string(u.UserType),
		Verified: u.VerifiedAt != nil,
		IsActive: u.IsActive,
	}
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	if !user.IsActive {
		return nil, ErrForbidden
	}

	dto := toUserDTO(user)
	return &dto, nil
}
