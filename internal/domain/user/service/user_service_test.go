package service

import (
	"context"
	"food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/config"
	"food_delivery/internal/pkg/otp"
	"food_delivery/pkg/cache"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	config.GlobalConfig.JWT.Secret = "user-service-test-secret-0123456789abcdef"
	config.GlobalConfig.JWT.Expire = 1
}

// MockUserRepository is a mock of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	if user.ID == "" {
		user.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByMobile(ctx context.Context, mobile string) (*model.User, error) {
	args := m.Called(mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetList(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(id, fields)
	return args.Error(0)
}

// MockOTPService is a mock of OTPService
type MockOTPService struct {
	mock.Mock
}

func (m *MockOTPService) Send(ctx context.Context, mobile string) (string, error) {
	args := m.Called(mobile)
	return args.String(0), args.Error(1)
}

func (m *MockOTPService) Verify(ctx context.Context, mobile, code string) error {
	args := m.Called(mobile, code)
	return args.Error(0)
}

func createTestUser(id, mobile string) *model.User {
	u := &model.User{
		Mobile:   mobile,
		Nickname: "TestUser",
		Role:     model.RoleCustomer,
		Status:   model.StatusNormal,
	}
	u.ID = id
	return u
}

func TestLoginOrRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("new user registration", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockOTP := new(MockOTPService)
		svc := NewUserService(mockRepo, mockOTP)

		mobile := "11987650000"
		mockOTP.On("Verify", mobile, "123456").Return(nil)
		mockRepo.On("GetByMobile", mobile).Return(nil, gorm.ErrRecordNotFound)
		mockRepo.On("Create", mock.MatchedBy(func(u *model.User) bool {
			return u.Mobile == mobile && u.Role == model.RoleCustomer
		})).Return(nil)

		res, err := svc.LoginOrRegister(ctx, mobile, "123456")

		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, "Cliente 0000", res.User.Nickname)
		assert.True(t, res.ExpireAt.After(time.Now()))
		mockOTP.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("existing user login", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockOTP := new(MockOTPService)
		svc := NewUserService(mockRepo, mockOTP)

		mobile := "11987650001"
		mockOTP.On("Verify", mobile, "123456").Return(nil)
		mockRepo.On("GetByMobile", mobile).Return(createTestUser("u1", mobile), nil)

		res, err := svc.LoginOrRegister(ctx, mobile, "123456")

		require.NoError(t, err)
		assert.Equal(t, "u1", res.User.ID)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("invalid code", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockOTP := new(MockOTPService)
		svc := NewUserService(mockRepo, mockOTP)

		mockOTP.On("Verify", "11987650002", "000000").Return(otp.ErrInvalidCode)

		res, err := svc.LoginOrRegister(ctx, "11987650002", "000000")

		assert.ErrorIs(t, err, ErrInvalidCode)
		assert.Nil(t, res)
		mockRepo.AssertNotCalled(t, "GetByMobile", mock.Anything)
	})

	t.Run("banned user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockOTP := new(MockOTPService)
		svc := NewUserService(mockRepo, mockOTP)

		user := createTestUser("u2", "11987650003")
		user.Status = model.StatusBanned
		mockOTP.On("Verify", user.Mobile, "123456").Return(nil)
		mockRepo.On("GetByMobile", user.Mobile).Return(user, nil)

		_, err := svc.LoginOrRegister(ctx, user.Mobile, "123456")
		assert.ErrorIs(t, err, ErrUserBanned)
	})

	t.Run("expired ban is lifted", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockOTP := new(MockOTPService)
		svc := NewUserService(mockRepo, mockOTP)

		past := time.Now().Add(-time.Hour)
		user := createTestUser("u3", "11987650004")
		user.Status = model.StatusBanned
		user.BannedUntil = &past
		mockOTP.On("Verify", user.Mobile, "123456").Return(nil)
		mockRepo.On("GetByMobile", user.Mobile).Return(user, nil)
		mockRepo.On("UpdateFields", "u3", mock.Anything).Return(nil)

		res, err := svc.LoginOrRegister(ctx, user.Mobile, "123456")
		require.NoError(t, err)
		assert.Equal(t, model.StatusNormal, res.User.Status)
	})

	t.Run("deleted user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockOTP := new(MockOTPService)
		svc := NewUserService(mockRepo, mockOTP)

		user := createTestUser("u4", "11987650005")
		user.Status = model.StatusDeleted
		mockOTP.On("Verify", user.Mobile, "123456").Return(nil)
		mockRepo.On("GetByMobile", user.Mobile).Return(user, nil)

		_, err := svc.LoginOrRegister(ctx, user.Mobile, "123456")
		assert.ErrorIs(t, err, ErrUserDeleted)
	})
}

func TestSendOTP(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockOTP := new(MockOTPService)
	svc := NewUserService(mockRepo, mockOTP)

	mockOTP.On("Send", "11987650000").Return("123456", nil)

	assert.NoError(t, svc.SendOTP(context.Background(), "11987650000"))
	mockOTP.AssertExpectations(t)
}

func TestGetUsers(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo, new(MockOTPService))

	users := []model.User{*createTestUser("a", "1"), *createTestUser("b", "2")}
	mockRepo.On("GetList", 10, 10).Return(users, int64(12), nil)

	result, total, err := svc.GetUsers(context.Background(), 2, 0)

	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, int64(12), total)
}

func TestSetRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo, new(MockOTPService))

	assert.ErrorIs(t, svc.SetRole(context.Background(), "u1", 5), ErrInvalidRole)

	mockRepo.On("UpdateFields", "u1", map[string]interface{}{"role": model.RoleStoreOwner}).Return(nil)
	assert.NoError(t, svc.SetRole(context.Background(), "u1", model.RoleStoreOwner))

	mockRepo.On("UpdateFields", "missing", mock.Anything).Return(gorm.ErrRecordNotFound)
	assert.ErrorIs(t, svc.SetRole(context.Background(), "missing", model.RoleAdmin), ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo, new(MockOTPService))

	user := createTestUser("u1", "11987650000")
	mockRepo.On("GetByID", "u1").Return(user, nil)
	mockRepo.On("Update", user).Return(nil)

	name := "Maria"
	got, err := svc.UpdateProfile(context.Background(), "u1", ProfileInput{Nickname: &name})

	require.NoError(t, err)
	assert.Equal(t, "Maria", got.Nickname)
	assert.Empty(t, got.AvatarURL)
}

func TestCachedUserService(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	mem := cache.NewMemoryCache()
	svc := NewCachedUserService(NewUserService(mockRepo, new(MockOTPService)), mem)

	user := createTestUser("u1", "11987650000")
	mockRepo.On("GetByID", "u1").Return(user, nil)

	// 第二次读取命中缓存
	_, err := svc.GetUser(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.GetUser(ctx, "u1")
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "GetByID", 1)

	// 修改后缓存失效
	mockRepo.On("UpdateFields", "u1", mock.Anything).Return(nil)
	require.NoError(t, svc.SetRole(ctx, "u1", model.RoleStoreOwner))
	_, err = svc.GetUser(ctx, "u1")
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "GetByID", 2)
}
