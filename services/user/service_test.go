package user

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	er "github.com/byteshifted/mailpanel/internal/errors"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/internal/utils"
)

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

type fakeUserRepo struct {
	upserted []*models.User
	stats    *models.UserStats
}

func (f *fakeUserRepo) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	f.upserted = append(f.upserted, user)
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	return f.stats, nil
}

func TestUpsertCurrentUserFromIdentity(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewUserService(getTestLogger(), &repository.Repositories{UserRepository: repo})

	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{
		UserId:    "user_1",
		UserEmail: "alice@test.local",
		FirstName: "Alice",
		LastName:  "Smith",
	})

	user, err := svc.UpsertCurrentUser(ctx)
	require.NoError(t, err)

	assert.Equal(t, "user_1", user.ID)
	assert.Equal(t, "alice@test.local", user.Email)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, "basic", user.PlanType)
	assert.Equal(t, 1, user.MaxDomains)
	require.Len(t, repo.upserted, 1)
}

func TestUpsertCurrentUserRequiresIdentity(t *testing.T) {
	svc := NewUserService(getTestLogger(), &repository.Repositories{UserRepository: &fakeUserRepo{}})

	_, err := svc.UpsertCurrentUser(context.Background())
	assert.True(t, errors.Is(err, er.ErrUserIdMissing))
}

func TestGetUserStats(t *testing.T) {
	repo := &fakeUserRepo{stats: &models.UserStats{
		DomainCount:      2,
		MailboxCount:     3,
		AliasCount:       1,
		TotalStorageUsed: 8192,
	}}
	svc := NewUserService(getTestLogger(), &repository.Repositories{UserRepository: repo})

	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{UserId: "user_1"})
	stats, err := svc.GetUserStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.DomainCount)
	assert.Equal(t, int64(8192), stats.TotalStorageUsed)
}
