package registry

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
)

type item struct {
	Name string
}

func TestRegistry_GetRespectsOwner(t *testing.T) {
	r := New[item]()
	require.NoError(t, r.Set("foo", Entry[item]{Value: item{"foo"}, Owner: "snap-1"}))

	v, ok := r.Get("snap-1", "FOO")
	require.True(t, ok)
	assert.Equal(t, "foo", v.Name)

	_, ok = r.Get("snap-2", "foo")
	assert.False(t, ok)
	assert.False(t, r.Has("snap-2", "foo"))
	assert.False(t, r.Has("snap-1", "bar"))
}

func TestRegistry_SetSameOwnerUpdates(t *testing.T) {
	r := New[item]()
	require.NoError(t, r.Set("foo", Entry[item]{Value: item{"v1"}, Owner: "snap-1"}))
	require.NoError(t, r.Set("Foo", Entry[item]{Value: item{"v2"}, Owner: "snap-1"}))

	v, _ := r.Get("snap-1", "foo")
	assert.Equal(t, "v2", v.Name)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SetOtherOwnerFails(t *testing.T) {
	r := New[item]()
	require.NoError(t, r.Set("foo", Entry[item]{Value: item{"original"}, Owner: "snap-1"}))

	err := r.Set("FOO", Entry[item]{Value: item{"hijack"}, Owner: "snap-2"})
	require.Error(t, err)
	assert.True(t, kerr.IsOwnershipViolation(err))
	assert.Equal(t, `snap "snap-2" is not allowed to set "FOO"`, err.Error())

	v, ok := r.Get("snap-1", "foo")
	require.True(t, ok)
	assert.Equal(t, "original", v.Name)
}

func TestRegistry_Delete(t *testing.T) {
	r := New[item]()
	require.NoError(t, r.Set("foo", Entry[item]{Value: item{"foo"}, Owner: "snap-1"}))

	assert.False(t, r.Delete("snap-2", "foo"))
	assert.False(t, r.Delete("snap-1", "bar"))
	assert.True(t, r.Has("snap-1", "foo"))

	assert.True(t, r.Delete("snap-1", "FOO"))
	assert.False(t, r.Delete("snap-1", "foo"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ValuesAcrossOwners(t *testing.T) {
	r := New[item]()
	require.NoError(t, r.Set("a", Entry[item]{Value: item{"a"}, Owner: "snap-1"}))
	require.NoError(t, r.Set("b", Entry[item]{Value: item{"b"}, Owner: "snap-2"}))

	owners := []string{}
	for e := range r.Values() {
		owners = append(owners, e.Owner)
	}
	assert.Equal(t, []string{"snap-1", "snap-2"}, owners)
}

func TestRegistry_MapRoundTrip(t *testing.T) {
	r := New[item]()
	require.NoError(t, r.Set("Foo", Entry[item]{Value: item{"foo"}, Owner: "snap-1"}))
	require.NoError(t, r.Set("bar", Entry[item]{Value: item{"bar"}, Owner: "snap-2"}))

	exported := r.ToMap()
	assert.Equal(t, map[string]Entry[item]{
		"foo": {Value: item{"foo"}, Owner: "snap-1"},
		"bar": {Value: item{"bar"}, Owner: "snap-2"},
	}, exported)

	restored := FromMap(exported)
	assert.Equal(t, exported, restored.ToMap())
	assert.Len(t, slices.Collect(restored.Values()), 2)
	assert.True(t, restored.Has("snap-2", "BAR"))
}
