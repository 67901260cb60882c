package validator

import (
	"context"
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func TestValidateRegister(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	v := NewAuthValidator(users)
	ctx := context.Background()

	assert.NoError(t, v.ValidateRegister(ctx, "taro", "taro@example.com", "password123", ""))
	assert.NoError(t, v.ValidateRegister(ctx, "taro", "taro@example.com", "password123", "DRIVER"))

	//必須項目
	assert.ErrorIs(t, v.ValidateRegister(ctx, "", "taro@example.com", "password123", ""), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateRegister(ctx, "taro", "", "password123", ""), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateRegister(ctx, "taro", "taro@example.com", "", ""), ErrInvalidInput)

	//email形式とパスワード長
	assert.ErrorIs(t, v.ValidateRegister(ctx, "taro", "not-an-email", "password123", ""), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateRegister(ctx, "taro", "taro@example.com", "short", ""), ErrInvalidInput)

	//CHARITY・ADMINは自己登録できない
	assert.ErrorIs(t, v.ValidateRegister(ctx, "taro", "taro@example.com", "password123", "CHARITY"), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateRegister(ctx, "taro", "taro@example.com", "password123", "ADMIN"), ErrInvalidInput)
}

func TestValidateRegister_DuplicateEmail(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "used@example.com").Return(&model.User{ID: 1}, nil)
	v := NewAuthValidator(users)

	err := v.ValidateRegister(context.Background(), "taro", "used@example.com", "password123", "")
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
}

func TestValidateLogin(t *testing.T) {
	v := NewAuthValidator(new(MockUserRepository))
	ctx := context.Background()

	assert.NoError(t, v.ValidateLogin(ctx, "taro@example.com", "password123"))
	assert.ErrorIs(t, v.ValidateLogin(ctx, "", "password123"), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "taro@example.com", ""), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "broken", "password123"), ErrInvalidInput)
}

func TestValidateRefresh(t *testing.T) {
	v := NewAuthValidator(new(MockUserRepository))
	ctx := context.Background()

	assert.NoError(t, v.ValidateRefresh(ctx, "some-opaque-token"))
	assert.ErrorIs(t, v.ValidateRefresh(ctx, ""), ErrInvalidRefresh)
	assert.ErrorIs(t, v.ValidateRefresh(ctx, "   "), ErrInvalidRefresh)
}
