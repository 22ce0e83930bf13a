package manip_test

import (
	"testing"

	. "github.com/pantheon-systems/repo-guardian/pkg/manip"
	"github.com/stretchr/testify/require"
)

func TestBasicSet_AddContains(t *testing.T) {
	subject := NewEmptyBasicSet()
	subject.Add("a")

	// Fire
	response := subject.Contains("a")

	require.True(t, response)
	require.False(t, subject.Contains("b"))
}

func TestBasicSet_AddNew(t *testing.T) {
	subject := NewEmptyBasicSet()

	// Fire
	first := subject.AddNew("a")
	second := subject.AddNew("a")

	require.True(t, first)
	require.False(t, second)
	require.Equal(t, 1, subject.Len())
}

func TestBasicSet_StringValuesSorted(t *testing.T) {
	subject := StringSet([]string{"b", "a", "c", "a"})

	// Fire
	response := subject.StringValues()

	require.Equal(t, []string{"a", "b", "c"}, response)
}
