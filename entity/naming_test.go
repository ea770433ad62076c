package entity

import (
	"database/sql"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaming(t *testing.T) {
	assert.Equal(t, "blog_post", Underscore("BlogPost"))
	assert.Equal(t, "http_server", Underscore("HTTPServer"))
	assert.Equal(t, "account_id", Underscore("AccountID"))
	assert.Equal(t, "account_id", Underscore("account_id"))

	assert.Equal(t, "Project", Classify("projects"))
	assert.Equal(t, "Account", Classify("account"))
	assert.Equal(t, "BlogPost", Classify("blog_posts"))

	assert.Equal(t, "users", Tableize("User"))
	assert.Equal(t, "account_id", ForeignKey("Account"))
	assert.Equal(t, "projects_users", JoinTable("users", "projects"))
	assert.Equal(t, "projects_users", JoinTable("projects", "users"))
}

type timestamps struct {
	CreatedBy int64
}

type post struct {
	timestamps
	ID        int64
	AccountID int64         `bun:"owner_id"`
	EditorID  *int64        `bun:"editor_id,nullzero"`
	ParentID  sql.NullInt64 `bun:"parent_id"`
	Title     string
}

func (p *post) EntityID() int64 { return p.ID }

type attrs map[string]any

func (a attrs) Attribute(name string) (any, bool) {
	v, ok := a[name]
	return v, ok
}

func TestInt64Attribute(t *testing.T) {
	editor := int64(4)
	p := &post{
		timestamps: timestamps{CreatedBy: 11},
		ID:         1,
		AccountID:  9,
		EditorID:   &editor,
		ParentID:   sql.NullInt64{Int64: 3, Valid: true},
	}

	tests := []struct {
		column      string
		want        int64
		wantPresent bool
	}{
		{column: "owner_id", want: 9, wantPresent: true},
		{column: "editor_id", want: 4, wantPresent: true},
		{column: "parent_id", want: 3, wantPresent: true},
		{column: "created_by", want: 11, wantPresent: true},
		{column: "id", want: 1, wantPresent: true},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, present, err := Int64Attribute(p, tt.column)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPresent, present)
			assert.Equal(t, tt.want, got)
		})
	}

	empty := &post{ID: 2}
	for _, column := range []string{"owner_id", "editor_id", "parent_id"} {
		_, present, err := Int64Attribute(empty, column)
		require.NoError(t, err)
		assert.False(t, present, column)
	}

	_, _, err := Int64Attribute(p, "title")
	assert.Error(t, err, "string columns are not identities")

	_, _, err = Int64Attribute(p, "missing_id")
	assert.Error(t, err)

	got, present, err := Int64Attribute(attrs{"account_id": 8}, "account_id")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, int64(8), got)

	_, present, err = Int64Attribute(attrs{}, "account_id")
	require.NoError(t, err)
	assert.False(t, present)
}

func TestInt64Attribute_Unsigned(t *testing.T) {
	got, present, err := Int64Attribute(attrs{"account_id": uint32(12)}, "account_id")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, int64(12), got)

	got, present, err = Int64Attribute(attrs{"account_id": uint64(math.MaxInt64)}, "account_id")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, int64(math.MaxInt64), got)

	_, present, err = Int64Attribute(attrs{"account_id": uint64(math.MaxInt64) + 1}, "account_id")
	assert.Error(t, err, "values above MaxInt64 must not wrap")
	assert.False(t, present)
}
