package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	ID   int64
	Name string
}

func (a *account) EntityID() int64 { return a.ID }

type stiUser struct {
	ID   int64
	Kind string
}

func (u *stiUser) EntityID() int64    { return u.ID }
func (u *stiUser) EntityType() string { return u.Kind }

func hierarchy(t *testing.T) *Types {
	t.Helper()
	types := NewTypes()
	require.NoError(t, types.Register("User", ""))
	require.NoError(t, types.Register("Admin", "User"))
	require.NoError(t, types.Register("SuperAdmin", "Admin"))
	require.NoError(t, types.Register("Account", "", WithModel(&account{})))
	return types
}

func TestCodec_KeyFor(t *testing.T) {
	codec := NewCodec(nil)
	assert.Equal(t, "User::42", codec.KeyFor("User", 42))
	assert.Equal(t, "Admin::42", codec.KeyFor("Admin", 42), "KeyFor must not resolve base types")
}

func TestCodec_BaseTypeSharesSlot(t *testing.T) {
	codec := NewCodec(hierarchy(t))

	tests := []struct {
		name     string
		typeName string
		want     string
	}{
		{name: "root child", typeName: "User", want: "User::7"},
		{name: "direct subtype", typeName: "Admin", want: "User::7"},
		{name: "deep subtype", typeName: "SuperAdmin", want: "User::7"},
		{name: "unknown type is its own base", typeName: "Ghost", want: "Ghost::7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codec.KeyForType(tt.typeName, 7))
		})
	}
}

func TestCodec_KeyOfInstance(t *testing.T) {
	codec := NewCodec(hierarchy(t))

	assert.Equal(t, "User::3", codec.KeyOf(&stiUser{ID: 3, Kind: "SuperAdmin"}))
	assert.Equal(t, "User::3", codec.KeyOf(&stiUser{ID: 3, Kind: "User"}))
	assert.Equal(t, "Account::9", codec.KeyOf(&account{ID: 9}))
	assert.Equal(t, Ref{Type: "User", ID: 3}, codec.RefOf(&stiUser{ID: 3, Kind: "Admin"}))
}

func TestParseKey(t *testing.T) {
	ref, err := ParseKey("User::12")
	require.NoError(t, err)
	assert.Equal(t, Ref{Type: "User", ID: 12}, ref)
	assert.Equal(t, "User::12", ref.String())

	ref, err = ParseKey("ns::User::5")
	require.NoError(t, err)
	assert.Equal(t, Ref{Type: "ns::User", ID: 5}, ref)

	for _, bad := range []string{"", "User", "::5", "User::abc"} {
		_, err := ParseKey(bad)
		assert.True(t, errors.Is(err, ErrMalformedKey), "key %q", bad)
	}
}

func TestTypes_RegisterErrors(t *testing.T) {
	types := NewTypes()
	require.NoError(t, types.Register("User", ""))

	assert.Error(t, types.Register("", ""))
	assert.Error(t, types.Register("User", ""), "duplicate registration")
	assert.Error(t, types.Register("Admin", "Person"), "unknown parent")

	info, ok := types.Lookup("User")
	require.True(t, ok)
	assert.Equal(t, "users", info.Table)
	assert.Equal(t, "people", types.TableOf("Person"))
}

func TestIDsAndUnique(t *testing.T) {
	ids := IDs([]Entity{&account{ID: 5}, nil, &account{ID: 2}})
	assert.Equal(t, []int64{5, 2}, ids)
	assert.Equal(t, []int64{5, 7, 1}, Unique([]int64{5, 5, 7, 1, 7}))
}
