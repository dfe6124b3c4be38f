package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mgmtapi/application/services"
	"mgmtapi/domain/management"
	"mgmtapi/infrastructure/messaging/eventbridge"
	pkgerrors "mgmtapi/pkg/errors"
	"mgmtapi/pkg/observability"
)

// memoryMembershipRepo is a map-backed repository for handler tests,
// keyed by the user/reference triple.
type memoryMembershipRepo struct {
	memberships map[string]*management.Membership
}

func newMemoryMembershipRepo() *memoryMembershipRepo {
	return &memoryMembershipRepo{memberships: make(map[string]*management.Membership)}
}

func membershipTestKey(userID string, referenceType management.MembershipReferenceType, referenceID string) string {
	return userID + "|" + string(referenceType) + "|" + referenceID
}

func matchesRole(m *management.Membership, roleScope management.RoleScope, roleName string) bool {
	if roleScope == 0 && roleName == "" {
		return true
	}
	return m.Roles[int(roleScope)] == roleName
}

func (r *memoryMembershipRepo) Create(ctx context.Context, membership *management.Membership) (*management.Membership, error) {
	key := membershipTestKey(membership.UserID, membership.ReferenceType, membership.ReferenceID)
	if _, exists := r.memberships[key]; exists {
		return nil, pkgerrors.NewConflictError("membership already exists")
	}
	r.memberships[key] = membership
	return membership, nil
}

func (r *memoryMembershipRepo) Update(ctx context.Context, membership *management.Membership) (*management.Membership, error) {
	key := membershipTestKey(membership.UserID, membership.ReferenceType, membership.ReferenceID)
	if _, exists := r.memberships[key]; !exists {
		return nil, pkgerrors.NewNotFoundError("membership")
	}
	r.memberships[key] = membership
	return membership, nil
}

func (r *memoryMembershipRepo) Delete(ctx context.Context, membership *management.Membership) error {
	delete(r.memberships, membershipTestKey(membership.UserID, membership.ReferenceType, membership.ReferenceID))
	return nil
}

func (r *memoryMembershipRepo) FindByID(ctx context.Context, userID string, referenceType management.MembershipReferenceType, referenceID string) (*management.Membership, error) {
	return r.memberships[membershipTestKey(userID, referenceType, referenceID)], nil
}

func (r *memoryMembershipRepo) FindByIDs(ctx context.Context, userID string, referenceType management.MembershipReferenceType, referenceIDs []string) ([]*management.Membership, error) {
	out := []*management.Membership{}
	for _, id := range referenceIDs {
		if m, ok := r.memberships[membershipTestKey(userID, referenceType, id)]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryMembershipRepo) FindByReferenceAndRole(ctx context.Context, referenceType management.MembershipReferenceType, referenceID string, roleScope management.RoleScope, roleName string) ([]*management.Membership, error) {
	out := []*management.Membership{}
	for _, m := range r.memberships {
		if m.ReferenceType == referenceType && m.ReferenceID == referenceID && matchesRole(m, roleScope, roleName) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryMembershipRepo) FindByReferencesAndRole(ctx context.Context, referenceType management.MembershipReferenceType, referenceIDs []string, roleScope management.RoleScope, roleName string) ([]*management.Membership, error) {
	out := []*management.Membership{}
	for _, id := range referenceIDs {
		found, _ := r.FindByReferenceAndRole(ctx, referenceType, id, roleScope, roleName)
		out = append(out, found...)
	}
	return out, nil
}

func (r *memoryMembershipRepo) FindByUserAndReferenceType(ctx context.Context, userID string, referenceType management.MembershipReferenceType) ([]*management.Membership, error) {
	return r.FindByUserAndReferenceTypeAndRole(ctx, userID, referenceType, 0, "")
}

func (r *memoryMembershipRepo) FindByUserAndReferenceTypeAndRole(ctx context.Context, userID string, referenceType management.MembershipReferenceType, roleScope management.RoleScope, roleName string) ([]*management.Membership, error) {
	out := []*management.Membership{}
	for _, m := range r.memberships {
		if m.UserID == userID && m.ReferenceType == referenceType && matchesRole(m, roleScope, roleName) {
			out = append(out, m)
		}
	}
	return out, nil
}

func newMembershipTestRouter() (chi.Router, *memoryMembershipRepo) {
	repo := newMemoryMembershipRepo()
	service := services.NewMembershipService(repo, eventbridge.NopPublisher{}, observability.NopMetrics{}, zap.NewNop())
	handler := NewMembershipHandler(service, zap.NewNop())

	router := chi.NewRouter()
	router.Post("/memberships", handler.Create)
	router.Put("/memberships", handler.Update)
	router.Get("/memberships/{referenceType}/{referenceID}", handler.ListByReference)
	router.Get("/memberships/{referenceType}/{referenceID}/{userID}", handler.Get)
	router.Delete("/memberships/{referenceType}/{referenceID}/{userID}", handler.Delete)
	return router, repo
}

func TestMembershipHandlerCreate(t *testing.T) {
	router, repo := newMembershipTestRouter()

	rec, env := doRequest(t, router, http.MethodPost, "/memberships",
		`{"userId":"u-1","referenceId":"api-1","referenceType":"API","roles":{"3":"OWNER"}}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	stored := repo.memberships[membershipTestKey("u-1", management.MembershipReferenceTypeApi, "api-1")]
	require.NotNil(t, stored)
	require.NotNil(t, stored.CreatedAt)
}

func TestMembershipHandlerUpdatePreservesCreatedAt(t *testing.T) {
	router, repo := newMembershipTestRouter()

	rec, _ := doRequest(t, router, http.MethodPost, "/memberships",
		`{"userId":"u-1","referenceId":"api-1","referenceType":"API","roles":{"3":"OWNER"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	createdAt := repo.memberships[membershipTestKey("u-1", management.MembershipReferenceTypeApi, "api-1")].CreatedAt
	require.NotNil(t, createdAt)

	rec, _ = doRequest(t, router, http.MethodPut, "/memberships",
		`{"userId":"u-1","referenceId":"api-1","referenceType":"API","roles":{"3":"USER"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	after := repo.memberships[membershipTestKey("u-1", management.MembershipReferenceTypeApi, "api-1")]
	assert.Equal(t, "USER", after.Roles[3])
	require.NotNil(t, after.CreatedAt)
	assert.Equal(t, *createdAt, *after.CreatedAt)
}

func TestMembershipHandlerUpdateMissing(t *testing.T) {
	router, _ := newMembershipTestRouter()

	rec, env := doRequest(t, router, http.MethodPut, "/memberships",
		`{"userId":"u-1","referenceId":"api-1","referenceType":"API"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestMembershipHandlerListByReferenceWithRole(t *testing.T) {
	router, _ := newMembershipTestRouter()

	for _, body := range []string{
		`{"userId":"u-1","referenceId":"api-1","referenceType":"API","roles":{"3":"OWNER"}}`,
		`{"userId":"u-2","referenceId":"api-1","referenceType":"API","roles":{"3":"USER"}}`,
	} {
		rec, _ := doRequest(t, router, http.MethodPost, "/memberships", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env := doRequest(t, router, http.MethodGet, "/memberships/API/api-1?roleScope=3&roleName=OWNER", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var found []MembershipResponse
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "u-1", found[0].UserID)
}
