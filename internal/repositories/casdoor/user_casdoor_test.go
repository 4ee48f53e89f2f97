package casdoor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainmetric/quiz-service/internal/cache"
	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

type fakeDirectory struct {
	users map[string]*casdoorsdk.User
	calls int
}

func (f *fakeDirectory) GetUserByUserId(id string) (*casdoorsdk.User, error) {
	f.calls++
	return f.users[id], nil
}

func newTestRepo(t *testing.T, dir directory) *UserCasdoor {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return newUserCasdoor(dir, cache.NewCacheManager(client).User)
}

func TestConvertCasdoorUser(t *testing.T) {
	user := ConvertCasdoorUser(&casdoorsdk.User{
		Id:          "u-1",
		Name:        "aigerim",
		DisplayName: "Aigerim",
		Email:       "a@example.com",
		Roles:       []*casdoorsdk.Role{{Name: "Staff"}},
	})

	require.NotNil(t, user)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.False(t, user.IsAdmin)
	assert.Equal(t, "Aigerim", user.PreferredName())
}

func TestUserCasdoor_GetByIDIsCached(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*casdoorsdk.User{
		"u-1": {Id: "u-1", Name: "root", IsAdmin: true},
	}}
	repo := newTestRepo(t, dir)
	ctx := context.Background()

	first, err := repo.GetByID(ctx, "u-1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "u-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, dir.calls)

	isSuper, err := repo.IsSuperuser(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, isSuper)
}

func TestUserCasdoor_Missing(t *testing.T) {
	repo := newTestRepo(t, &fakeDirectory{users: map[string]*casdoorsdk.User{}})

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.True(t, repositories.IsNotFoundError(err))

	exists, err := repo.ExistsByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}
