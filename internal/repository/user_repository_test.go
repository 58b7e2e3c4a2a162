package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"workin-messenger/internal/model"
	"workin-messenger/internal/repository"
	"workin-messenger/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUser(username string) *model.User {
	return &model.User{
		Username:     username,
		PasswordHash: "hash",
		FirstName:    "First",
		LastName:     "Last",
		Phone:        "+14155552671",
		Sex:          model.SexWoman,
		Email:        username + "@example.com",
	}
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestUserRepository_CreateWithAvatar(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	u := newUser("alice")
	u.Avatar = &model.Avatar{Src: "alice.png", Alt: model.AvatarAlt("alice")}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	require.NotNil(t, u.AvatarID)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, "alice.png", got.Avatar.Src)
	assert.Equal(t, "alice's avatar", got.Avatar.Alt)
	assert.False(t, got.Avatar.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestUserRepository_CreateDuplicateRollsBackAvatar(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("alice")))

	dup := newUser("alice")
	dup.Avatar = &model.Avatar{Src: "dup.png", Alt: model.AvatarAlt("alice")}
	err := repo.Create(ctx, dup)
	require.ErrorIs(t, err, repository.ErrDuplicate)

	assert.Equal(t, int64(1), countRows(t, db, &model.User{}))
	assert.Equal(t, int64(0), countRows(t, db, &model.Avatar{}), "avatar row must roll back with the user")
	assert.Nil(t, dup.AvatarID)
}

func TestUserRepository_GetNotFound(t *testing.T) {
	repo := repository.NewUserRepository(testdb.Open(t))
	ctx := context.Background()

	_, err := repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_SearchByUsername(t *testing.T) {
	repo := repository.NewUserRepository(testdb.Open(t))
	ctx := context.Background()

	for _, name := range []string{"Alice", "malicious", "bob", "al_x", "alpha%"} {
		require.NoError(t, repo.Create(ctx, newUser(name)))
	}

	users, err := repo.SearchByUsername(ctx, "ALI")
	require.NoError(t, err)
	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"Alice", "malicious"}, names)

	// LIKE 元字符按字面匹配
	users, err = repo.SearchByUsername(ctx, "_")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "al_x", users[0].Username)

	users, err = repo.SearchByUsername(ctx, "%")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alpha%", users[0].Username)

	users, err = repo.SearchByUsername(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_UpdateAccountSparse(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, repo.Create(ctx, u))

	updated, replaced, err := repo.UpdateAccount(ctx, u.ID, map[string]interface{}{"first_name": "Alicia"}, nil)
	require.NoError(t, err)
	assert.Nil(t, replaced)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "Last", updated.LastName)
	assert.Equal(t, "+14155552671", updated.Phone)
	assert.Equal(t, "alice@example.com", updated.Email)
	assert.Nil(t, updated.Avatar)
}

func TestUserRepository_UpdateAccountReplacesAvatar(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	u := newUser("alice")
	u.Avatar = &model.Avatar{Src: "old.png", Alt: model.AvatarAlt("alice")}
	require.NoError(t, repo.Create(ctx, u))
	oldID := u.Avatar.ID

	updated, replaced, err := repo.UpdateAccount(ctx, u.ID, nil, &model.Avatar{Src: "new.png", Alt: model.AvatarAlt("alice")})
	require.NoError(t, err)
	require.NotNil(t, replaced)
	assert.Equal(t, "old.png", replaced.Src)
	require.NotNil(t, updated.Avatar)
	assert.Equal(t, "new.png", updated.Avatar.Src)

	assert.Equal(t, int64(1), countRows(t, db, &model.Avatar{}))
	var old model.Avatar
	assert.ErrorIs(t, db.First(&old, oldID).Error, gorm.ErrRecordNotFound)
	assert.Equal(t, int64(1), countRows(t, db, &model.User{}), "deleting an avatar never deletes its user")
}

func TestUserRepository_ConcurrentAvatarReplacementLeavesNoOrphans(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	u := newUser("alice")
	u.Avatar = &model.Avatar{Src: "v0.png", Alt: model.AvatarAlt("alice")}
	require.NoError(t, repo.Create(ctx, u))

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		replaced = map[string]int{}
	)
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			avatar := &model.Avatar{Src: fmt.Sprintf("v%d.png", i), Alt: model.AvatarAlt("alice")}
			_, old, err := repo.UpdateAccount(ctx, u.ID, nil, avatar)
			if !assert.NoError(t, err) || !assert.NotNil(t, old) {
				return
			}
			mu.Lock()
			replaced[old.Src]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	final, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, final.Avatar)

	// 每个旧头像恰好被替换一次，最终只剩当前头像一行
	assert.Equal(t, int64(1), countRows(t, db, &model.Avatar{}))
	assert.Len(t, replaced, n)
	assert.NotContains(t, replaced, final.Avatar.Src)
	for src, times := range replaced {
		assert.Equal(t, 1, times, src)
	}
}

func TestUserRepository_UpdateAccountMissingUser(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewUserRepository(db)

	avatar := &model.Avatar{Src: "x.png", Alt: "x"}
	_, _, err := repo.UpdateAccount(context.Background(), 99, map[string]interface{}{"first_name": "x"}, avatar)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, int64(0), countRows(t, db, &model.Avatar{}))
}

func TestMessageRepository_CreateAndGet(t *testing.T) {
	repo := repository.NewMessageRepository(testdb.Open(t))
	ctx := context.Background()

	msg := &model.Message{SenderID: 1, RecipientID: 2, Content: "hi"}
	require.NoError(t, repo.Create(ctx, msg))
	assert.NotZero(t, msg.ID)

	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Content)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
