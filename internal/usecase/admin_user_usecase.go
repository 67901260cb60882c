package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// チャリティアカウント管理・ドライバー本人確認・ユーザー停止
type AdminUserUsecase struct {
	users     repo.UserRepository
	rtRepo    repo.RefreshTokenRepository
	notes     repo.NotificationRepository
	auditRepo repo.AuditLogRepository
	logger    *zap.Logger
}

func NewAdminUserUsecase(
	users repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	notes repo.NotificationRepository,
	auditRepo repo.AuditLogRepository,
	logger *zap.Logger,
) *AdminUserUsecase {
	return &AdminUserUsecase{users: users, rtRepo: rtRepo, notes: notes, auditRepo: auditRepo, logger: logger}
}

type CreateCharityInput struct {
	Name     string
	Email    string
	Password string
}

// チャリティアカウントはadminだけが作れる
func (u *AdminUserUsecase) CreateCharity(ctx context.Context, adminID int64, in CreateCharityInput) (UserDTO, error) {
	if adminID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if strings.TrimSpace(in.Email) == "" || len(in.Password) < 8 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid email or password")
	}

	//email重複チェック
	if existing, err := u.users.FindByEmail(ctx, in.Email); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	} else if existing != nil {
		return UserDTO{}, NewHTTPError(http.StatusConflict, "email already used")
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(pwHash),
		UserType:     model.UserTypeCharity,
		IsActive:     true,
	}

	if err := u.users.Create(ctx, user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusConflict, "conflict")
	}

	u.audit(ctx, adminID, model.AuditActionCreateCharity, model.AuditResourceUser, user.ID, "")

	return toUserDTO(user), nil
}

// ドライバーの本人確認を完了にする
func (u *AdminUserUsecase) VerifyDriver(ctx context.Context, adminID int64, driverID int64) (UserDTO, error) {
	if adminID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if driverID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}

	user, err := u.users.FindByID(ctx, driverID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return UserDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if user.UserType != model.UserTypeDriver {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "user is not a driver")
	}
	if user.VerifiedAt != nil {
		//確認済みなら何もしない
		return toUserDTO(user), nil
	}

	now := time.Now()
	user.VerifiedAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	_ = u.notes.Create(ctx, &model.Notification{
		UserID:  user.ID,
		Type:    model.NotificationDriverVerified,
		Message: "ドライバー登録が承認されました",
	})

	u.audit(ctx, adminID, model.AuditActionVerifyDriver, model.AuditResourceUser, user.ID, "")

	return toUserDTO(user), nil
}

type DeactivateUserOutput struct {
	UserID       int64 `json:"user_id"`
	RevokedCount int64 `json:"revoked_count"`
}

// ユーザーを停止して全セッションを失効する
func (u *AdminUserUsecase) DeactivateUser(ctx context.Context, adminID int64, targetUserID int64) (DeactivateUserOutput, error) {
	if adminID <= 0 {
		return DeactivateUserOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if targetUserID <= 0 {
		return DeactivateUserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	if targetUserID == adminID {
		return DeactivateUserOutput{}, NewHTTPError(http.StatusBadRequest, "cannot deactivate yourself")
	}

	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return DeactivateUserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return DeactivateUserOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	user.IsActive = false
	if err := u.users.Update(ctx, user); err != nil {
		return DeactivateUserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//停止と同時に全デバイスを失効
	count, err := u.rtRepo.RevokeAllByUserID(ctx, targetUserID, time.Now())
	if err != nil {
		return DeactivateUserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.audit(ctx, adminID, model.AuditActionDeactivateUser, model.AuditResourceUser, targetUserID,
		fmt.Sprintf(`{"revoked_count":%d}`, count))
	u.logger.Info("user deactivated",
		zap.Int64("admin_id", adminID),
		zap.Int64("user_id", targetUserID),
		zap.Int64("revoked_count", count),
	)

	return DeactivateUserOutput{UserID: targetUserID, RevokedCount: count}, nil
}

// 監査ログの一覧（admin用）
func (u *AdminUserUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}

func (u *AdminUserUsecase) audit(ctx context.Context, actorID int64, action model.AuditAction, rt model.AuditResourceType, resourceID int64, detail string) {
	_ = u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: rt,
		ResourceID:   resourceID,
		DetailJSON:   detail,
		CreatedAt:    time.Now(),
	})
}
