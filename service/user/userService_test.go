// service/user/user_service_test.go
package usersvc

import (
	"context"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
	userrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/user"
	"github.com/indiangoerge/bookworld-digital-shelf/util/hash"
)

type mockRepo struct {
	createFn  func(ctx context.Context, u *model.User) error
	byIDFn    func(ctx context.Context, id int64) (*model.User, error)
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
}

var _ userrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return nil, nil
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, nil
	}
	return m.byEmailFn(ctx, email)
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 42
			return nil
		},
	}
	svc := New(m, "test-secret")

	u, token, err := svc.Register(ctx, model.RegisterReq{
		Name:     "Halim",
		Email:    "halim@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), u.ID)
	require.NotEmpty(t, token)
	require.NotEqual(t, "supersecret", u.PasswordHash)
	require.True(t, hash.Check(u.PasswordHash, "supersecret"))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Name:     "Halim",
		Email:    "halim@example.com",
		Password: "supersecret",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_WrongPassword(t *testing.T) {
	hashed, err := hash.HashPassword("right-password")
	require.NoError(t, err)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email, PasswordHash: hashed}, nil
		},
	}
	svc := New(m, "test-secret")

	_, _, err = svc.Login(context.Background(), model.LoginReq{
		Email:    "halim@example.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_Success(t *testing.T) {
	hashed, err := hash.HashPassword("right-password")
	require.NoError(t, err)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: email, PasswordHash: hashed}, nil
		},
	}
	svc := New(m, "test-secret")

	u, token, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "halim@example.com",
		Password: "right-password",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)
	require.NotEmpty(t, token)
}
