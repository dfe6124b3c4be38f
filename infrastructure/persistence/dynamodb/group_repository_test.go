package dynamodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mgmtapi/domain/management"
	pkgerrors "mgmtapi/pkg/errors"
)

func newGroupRepo(client *fakeClient) *GroupRepository {
	return NewGroupRepository(client, "groups", zap.NewNop()).(*GroupRepository)
}

func testGroup(id string) *management.Group {
	return &management.Group{
		ID:        id,
		Name:      "developers",
		CreatedAt: time.UnixMilli(1700000000000),
		UpdatedAt: time.UnixMilli(1700000100000),
		EventRules: []management.GroupEventRule{
			{Event: management.GroupEventApiCreate},
		},
		Administrators: []string{"admin-1"},
	}
}

func TestGroupRepositoryCreateThenFindByID(t *testing.T) {
	client := newFakeClient("id")
	repo := newGroupRepo(client)

	_, err := repo.Create(context.Background(), testGroup("g-1"))
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), "g-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "developers", found.Name)
	assert.Equal(t, int64(1700000000000), found.CreatedAt.UnixMilli())
	require.Len(t, found.EventRules, 1)
	assert.Equal(t, management.GroupEventApiCreate, found.EventRules[0].Event)
	assert.Equal(t, []string{"admin-1"}, found.Administrators)
}

func TestGroupRepositoryCreateNormalizesAdministrators(t *testing.T) {
	client := newFakeClient("id")
	repo := newGroupRepo(client)

	group := testGroup("g-1")
	group.Administrators = nil

	created, err := repo.Create(context.Background(), group)
	require.NoError(t, err)
	assert.NotNil(t, created.Administrators)
	assert.Empty(t, created.Administrators)

	// The omitted attribute reads back as an empty list, not nil.
	found, err := repo.FindByID(context.Background(), "g-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.NotNil(t, found.Administrators)
	assert.Empty(t, found.Administrators)
}

func TestGroupRepositoryCreateConflict(t *testing.T) {
	client := newFakeClient("id")
	repo := newGroupRepo(client)

	_, err := repo.Create(context.Background(), testGroup("g-1"))
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), testGroup("g-1"))
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestGroupRepositoryUpdateMissing(t *testing.T) {
	repo := newGroupRepo(newFakeClient("id"))

	_, err := repo.Update(context.Background(), testGroup("g-1"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestGroupRepositoryDeleteValidation(t *testing.T) {
	repo := newGroupRepo(newFakeClient("id"))

	err := repo.Delete(context.Background(), "")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGroupRepositoryDeleteRemoves(t *testing.T) {
	client := newFakeClient("id")
	repo := newGroupRepo(client)

	_, err := repo.Create(context.Background(), testGroup("g-1"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), "g-1"))

	found, err := repo.FindByID(context.Background(), "g-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGroupRepositoryFindByIDsChunksAndOmitsMissing(t *testing.T) {
	client := newFakeClient("id")
	repo := newGroupRepo(client)

	_, err := repo.Create(context.Background(), testGroup("g-0"))
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), testGroup("g-120"))
	require.NoError(t, err)

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("g-%d", i)
	}

	groups, err := repo.FindByIDs(context.Background(), ids)

	require.NoError(t, err)
	assert.Len(t, groups, 2)
	assert.Equal(t, 2, client.batchCalls)
	require.Len(t, client.batchKeys, 2)
	assert.Len(t, client.batchKeys[0], 100)
	assert.Len(t, client.batchKeys[1], 50)
}

func TestGroupRepositoryFindAllScansEverything(t *testing.T) {
	client := newFakeClient("id")
	repo := newGroupRepo(client)

	for _, id := range []string{"g-1", "g-2", "g-3"} {
		_, err := repo.Create(context.Background(), testGroup(id))
		require.NoError(t, err)
	}

	groups, err := repo.FindAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, groups, 3)
}

func TestGroupToDomainRejectsUnknownEvent(t *testing.T) {
	_, err := groupToDomain(&groupRecord{
		ID:         "g-1",
		EventRules: []string{"API_DELETE"},
	})
	assert.True(t, pkgerrors.IsValidation(err))
}
