package bunstore_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/pkg/testsupport"
	"github.com/goliatone/go-association-cache/store"
	"github.com/goliatone/go-association-cache/store/bunstore"
)

func names(entities []entity.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		switch v := e.(type) {
		case *testsupport.User:
			out = append(out, v.Name)
		case *testsupport.Project:
			out = append(out, v.Name)
		case *testsupport.Account:
			out = append(out, v.Name)
		}
	}
	return out
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := bunstore.Open("oracle", "")
	assert.Error(t, err)
}

func TestStore_FindByID(t *testing.T) {
	ctx := context.Background()
	s := testsupport.OpenSeeded(t)

	e, err := s.FindByID(ctx, "Account", 1)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "veggies", e.(*testsupport.Account).Name)

	missing, err := s.FindByID(ctx, "Account", 404)
	require.NoError(t, err)
	assert.Nil(t, missing, "absent rows are not errors")

	_, err = s.FindByID(ctx, "Invoice", 1)
	assert.True(t, errors.Is(err, store.ErrUnknownType))
}

func TestStore_FindByIDs(t *testing.T) {
	ctx := context.Background()
	s := testsupport.OpenSeeded(t)

	users, err := s.FindByIDs(ctx, "User", []int64{2, 1, 99})
	require.NoError(t, err)
	got := names(users)
	sort.Strings(got)
	assert.Equal(t, []string{"carrot", "parsnip"}, got)

	none, err := s.FindByIDs(ctx, "User", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ScopedSubtype(t *testing.T) {
	ctx := context.Background()
	s := testsupport.OpenSeeded(t)

	admins, err := s.FindByIDs(ctx, "Admin", []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"cow"}, names(admins))

	notAdmin, err := s.FindByID(ctx, "Admin", 1)
	require.NoError(t, err)
	assert.Nil(t, notAdmin)
}

func TestStore_SelectIDs(t *testing.T) {
	ctx := context.Background()
	s := testsupport.OpenSeeded(t)

	ids, err := s.SelectIDs(ctx, "User", store.Filter{
		Conditions: []store.Condition{store.Where("?TableAlias.account_id = ?", 1)},
		Order:      []string{"?TableAlias.name DESC"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids)

	ids, err = s.SelectIDs(ctx, "Project", store.Filter{
		Joins:      []string{"JOIN projects_users AS pu ON pu.project_id = ?TableAlias.id"},
		Conditions: []store.Condition{store.Where("pu.user_id = ?", 3)},
		Order:      []string{"?TableAlias.id"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, err = s.SelectIDs(ctx, "User", store.Filter{Conditions: []store.Condition{store.Where("1 = 0")}})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_FindAll(t *testing.T) {
	ctx := context.Background()
	s := testsupport.OpenSeeded(t)

	users, err := s.FindAll(ctx, "User", store.Filter{
		Joins:      []string{"JOIN accounts AS acc ON acc.id = ?TableAlias.account_id"},
		Conditions: []store.Condition{store.Where("acc.name = ?", "veggies")},
		Order:      []string{"?TableAlias.id"},
		Limit:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"carrot"}, names(users))
}

func TestStore_FindBySQL(t *testing.T) {
	ctx := context.Background()
	s := testsupport.OpenSeeded(t)

	users, err := s.FindBySQL(ctx, "User", "SELECT * FROM users WHERE account_id = ? ORDER BY id DESC", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"parsnip", "carrot"}, names(users))
}

func TestStore_DeleteJoinRows(t *testing.T) {
	ctx := context.Background()
	s := testsupport.OpenSeeded(t)

	n, err := s.DeleteJoinRows(ctx, "projects_users", "user_id", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := s.DB().NewSelect().Table("projects_users").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
