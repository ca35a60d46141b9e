package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stayfinder/service-booking/internal/application"
	"github.com/stayfinder/service-booking/internal/domain"
	userDomain "github.com/stayfinder/service-booking/internal/domain/user"
	"github.com/stayfinder/service-booking/internal/platform/auth"
)

// fakeUserRepo is an in-memory UserRepository. beforeSave, when set, runs
// at the start of Save so tests can interleave a competing writer.
type fakeUserRepo struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*userDomain.User
	beforeSave func()
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uuid.UUID]*userDomain.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, domain.NewNotFoundError("User", email)
}

func (r *fakeUserRepo) ListAll(_ context.Context, page, limit int) ([]*userDomain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*userDomain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *userDomain.User) error {
	if r.beforeSave != nil {
		r.beforeSave()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Same behavior as the unique index on users.email.
	for _, existing := range r.byID {
		if existing.Email() == u.Email() && existing.ID() != u.ID() {
			return domain.NewValidationError("email already exists")
		}
	}
	r.byID[u.ID()] = u
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *userDomain.User) error {
	return r.Save(context.Background(), u)
}

func newAuthService() (*application.AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	return application.NewAuthService(repo, jwtManager, zap.NewNop()), repo
}

func TestRegister(t *testing.T) {
	svc, _ := newAuthService()

	resp, err := svc.Register(context.Background(), application.RegisterRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	assert.Equal(t, "guest", resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	req := application.RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "hunter2hunter2"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	var validationErr *domain.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

// A competing register for the same email can land between the pre-insert
// lookup and the insert. The loser must still see the validation error the
// unique index produces, not an internal failure.
func TestRegister_DuplicateEmailRace(t *testing.T) {
	svc, repo := newAuthService()
	ctx := context.Background()

	req := application.RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "hunter2hunter2"}
	repo.beforeSave = func() {
		repo.beforeSave = nil
		winner, err := userDomain.NewUser("Asha Prime", req.Email, "h")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, winner))
	}

	_, err := svc.Register(ctx, req)

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr), "got %v", err)
	assert.Contains(t, validationErr.Error(), "already exists")
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, application.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, application.LoginRequest{
		Email: "asha@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, application.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	var unauthorizedErr *domain.UnauthorizedError

	_, err = svc.Login(ctx, application.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.True(t, errors.As(err, &unauthorizedErr))

	_, err = svc.Login(ctx, application.LoginRequest{Email: "nobody@example.com", Password: "hunter2hunter2"})
	assert.True(t, errors.As(err, &unauthorizedErr), "unknown email must look like a bad password")
}

func TestBecomeHost(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, application.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	upgraded, err := svc.BecomeHost(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "host", upgraded.User.Role)
	assert.NotEqual(t, registered.AccessToken, upgraded.AccessToken, "fresh tokens carry the new role")
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, application.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	var req application.UpdateProfileRequest
	req.Name = "Asha R."
	req.Profile.PhoneNumber = "+91 98765 43210"

	updated, err := svc.UpdateProfile(ctx, registered.User.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Asha R.", updated.Name)
	assert.Equal(t, "+91 98765 43210", updated.Profile.PhoneNumber)
}
