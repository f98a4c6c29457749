package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/cache"
	"github.com/dumeirei/spacer-backend/internal/common/config"
	"github.com/dumeirei/spacer-backend/internal/common/crypto"
	"github.com/dumeirei/spacer-backend/internal/common/database"
	appErrors "github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/jwt"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
	"github.com/dumeirei/spacer-backend/internal/service/access"
	"github.com/dumeirei/spacer-backend/internal/service/notify"
	"github.com/dumeirei/spacer-backend/pkg/email"
)

type countingRecorder struct {
	roles []string
}

func (r *countingRecorder) RecordRegistration(role string) {
	r.roles = append(r.roles, role)
}

// testAuthService 测试用认证服务
type testAuthService struct {
	*AuthService
	db        *gorm.DB
	mail      *email.MockSender
	blacklist *cache.TokenBlacklist
	recorder  *countingRecorder
}

func setupTestAuthService(t *testing.T) *testAuthService {
	db, err := database.Open(&config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, models.All()...))
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mail := email.NewMockSender()
	blacklist := cache.NewTokenBlacklist(client, nil)
	recorder := &countingRecorder{}
	tokens := jwt.NewManager(&jwt.Config{Secret: "secret", AccessExpireTime: time.Hour, Issuer: "spacer-test"})

	svc := NewAuthService(
		db,
		repository.NewUserRepository(db),
		crypto.NewHasher(bcrypt.MinCost),
		tokens,
		blacklist,
		notify.NewDispatcher(mail, nil, nil),
		recorder,
		nil,
	)
	return &testAuthService{AuthService: svc, db: db, mail: mail, blacklist: blacklist, recorder: recorder}
}

func TestAuthService_Register(t *testing.T) {
	svc := setupTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &RegisterRequest{Name: "John", Email: " John@Example.com ", Password: "pass123"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "john@example.com", user.Email)
	assert.Equal(t, models.RoleClient, user.Role)
	assert.NotEqual(t, "pass123", user.PasswordHash)

	sent := svc.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Welcome to Spacer", sent[0].Subject)
	assert.Equal(t, []string{models.RoleClient}, svc.recorder.roles)

	owner, err := svc.Register(ctx, &RegisterRequest{Name: "Olga", Email: "olga@example.com", Password: "pass123", Role: models.RoleOwner})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, owner.Role)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := setupTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Name: "John", Email: "john@example.com", Password: "pass123"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     *RegisterRequest
		wantErr *appErrors.AppError
	}{
		{"重复邮箱", &RegisterRequest{Name: "J", Email: "JOHN@example.com", Password: "pass123"}, appErrors.ErrEmailExists},
		{"管理员不可自注册", &RegisterRequest{Name: "A", Email: "a@example.com", Password: "pass123", Role: models.RoleAdmin}, appErrors.ErrRoleNotAllowed},
		{"非法角色", &RegisterRequest{Name: "A", Email: "a@example.com", Password: "pass123", Role: "guest"}, appErrors.ErrInvalidRole},
		{"邮箱格式错误", &RegisterRequest{Name: "A", Email: "not-an-email", Password: "pass123"}, appErrors.ErrEmailInvalid},
		{"密码过短", &RegisterRequest{Name: "A", Email: "a@example.com", Password: "12345"}, appErrors.ErrPasswordTooShort},
		{"缺少姓名", &RegisterRequest{Name: "  ", Email: "a@example.com", Password: "pass123"}, appErrors.ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// 重复邮箱为 400
	_, err = svc.Register(ctx, &RegisterRequest{Name: "J", Email: "john@example.com", Password: "pass123"})
	assert.Equal(t, 400, appErrors.HTTPStatus(err))
	assert.Equal(t, 403, appErrors.HTTPStatus(appErrors.ErrRoleNotAllowed))

	// 失败的注册不发送邮件
	assert.Len(t, svc.mail.Sent(), 1)
}

// insertBeforeWrite 在下一次写 users 表之前于同一事务内插入同邮箱用户，模拟并发写入
// op 为 "create" 或 "update"
func insertBeforeWrite(t *testing.T, db *gorm.DB, op, email string) {
	t.Helper()
	done := false
	competingInsert := func(tx *gorm.DB) {
		if done || tx.Statement.Table != "users" {
			return
		}
		done = true
		now := time.Now().UTC()
		err := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO users (name, email, password_hash, role, is_verified, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			"Rival", email, "hash", models.RoleClient, false, now, now,
		).Error
		require.NoError(t, err)
	}

	var err error
	switch op {
	case "update":
		err = db.Callback().Update().Before("gorm:update").Register("test:competing_insert", competingInsert)
	default:
		err = db.Callback().Create().Before("gorm:create").Register("test:competing_insert", competingInsert)
	}
	require.NoError(t, err)
}

func TestAuthService_Register_ConcurrentDuplicateEmail(t *testing.T) {
	svc := setupTestAuthService(t)
	insertBeforeWrite(t, svc.db, "create", "race@example.com")

	_, err := svc.Register(context.Background(), &RegisterRequest{Name: "John", Email: "race@example.com", Password: "pass123"})
	assert.ErrorIs(t, err, appErrors.ErrEmailExists)
	assert.Equal(t, 400, appErrors.HTTPStatus(err))
	assert.Empty(t, svc.mail.Sent())
	assert.Empty(t, svc.recorder.roles)
}

func TestAuthService_UpdateProfile_ConcurrentDuplicateEmail(t *testing.T) {
	svc := setupTestAuthService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, &RegisterRequest{Name: "John", Email: "john@example.com", Password: "pass123"})
	require.NoError(t, err)

	insertBeforeWrite(t, svc.db, "update", "taken@example.com")

	newEmail := "taken@example.com"
	_, err = svc.UpdateProfile(ctx, access.FromUser(user), &UpdateProfileRequest{Email: &newEmail})
	assert.ErrorIs(t, err, appErrors.ErrEmailExists)

	reloaded, err := svc.Profile(ctx, access.FromUser(user))
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", reloaded.Email)
}

func TestAuthService_Register_NotificationFailureDoesNotFail(t *testing.T) {
	svc := setupTestAuthService(t)
	svc.mail.Err = assert.AnError

	user, err := svc.Register(context.Background(), &RegisterRequest{Name: "John", Email: "john@example.com", Password: "pass123"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
}

func TestAuthService_Login(t *testing.T) {
	svc := setupTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{Name: "John", Email: "john@example.com", Password: "pass123"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &LoginRequest{Email: "JOHN@example.com", Password: "pass123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, registered.ID, resp.User.ID)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := svc.tokens.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, models.RoleClient, claims.Role)

	_, err = svc.Login(ctx, &LoginRequest{Email: "john@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "pass123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Equal(t, 401, appErrors.HTTPStatus(err))
}

func TestAuthService_Logout(t *testing.T) {
	svc := setupTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Name: "John", Email: "john@example.com", Password: "pass123"})
	require.NoError(t, err)
	resp, err := svc.Login(ctx, &LoginRequest{Email: "john@example.com", Password: "pass123"})
	require.NoError(t, err)
	claims, err := svc.tokens.ParseToken(resp.Token)
	require.NoError(t, err)

	revoked, err := svc.blacklist.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Logout(ctx, claims))

	revoked, err = svc.blacklist.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, svc.Logout(ctx, nil), appErrors.ErrUnauthorized)
}

func TestAuthService_LoadActor(t *testing.T) {
	svc := setupTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &RegisterRequest{Name: "John", Email: "john@example.com", Password: "pass123"})
	require.NoError(t, err)

	actor, err := svc.LoadActor(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, access.Actor{ID: user.ID, Role: models.RoleClient}, actor)

	// 角色以存储为准
	require.NoError(t, svc.db.Model(&models.User{}).Where("id = ?", user.ID).Update("role", models.RoleOwner).Error)
	actor, err = svc.LoadActor(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, actor.Role)

	_, err = svc.LoadActor(ctx, 9999)
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)
	assert.True(t, appErrors.IsKind(err, appErrors.KindNotFound))
}

func TestAuthService_Profile(t *testing.T) {
	svc := setupTestAuthService(t)
	ctx := context.Background()

	john, err := svc.Register(ctx, &RegisterRequest{Name: "John", Email: "john@example.com", Password: "pass123"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "pass123"})
	require.NoError(t, err)
	actor := access.FromUser(john)

	profile, err := svc.Profile(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "John", profile.Name)

	name := "Johnny"
	newEmail := "Johnny@Example.com"
	password := "newpass1"
	updated, err := svc.UpdateProfile(ctx, actor, &UpdateProfileRequest{Name: &name, Email: &newEmail, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Johnny", updated.Name)
	assert.Equal(t, "johnny@example.com", updated.Email)

	_, err = svc.Login(ctx, &LoginRequest{Email: "johnny@example.com", Password: "newpass1"})
	require.NoError(t, err)

	// 保持自身邮箱不算冲突
	same := "johnny@example.com"
	_, err = svc.UpdateProfile(ctx, actor, &UpdateProfileRequest{Email: &same})
	require.NoError(t, err)

	taken := "jane@example.com"
	_, err = svc.UpdateProfile(ctx, actor, &UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, appErrors.ErrEmailExists)

	short := "123"
	_, err = svc.UpdateProfile(ctx, actor, &UpdateProfileRequest{Password: &short})
	assert.ErrorIs(t, err, appErrors.ErrPasswordTooShort)

	empty := " "
	_, err = svc.UpdateProfile(ctx, actor, &UpdateProfileRequest{Name: &empty})
	assert.ErrorIs(t, err, appErrors.ErrInvalidParams)

	// 空更新返回当前资料
	unchanged, err := svc.UpdateProfile(ctx, actor, &UpdateProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Johnny", unchanged.Name)
}
