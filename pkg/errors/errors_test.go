package errors_test

import (
	"testing"

	. "github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorv(t *testing.T) {

	// Fire
	err := Errorv("unable to open file", "/tmp/file")

	require.Equal(t, "unable to open file (/tmp/file)", err.Error())
}

func TestErrorv_MultipleValues(t *testing.T) {

	// Fire
	err := Errorv("unable to rename file", "/tmp/a", "/tmp/b")

	require.Equal(t, "unable to rename file (/tmp/a; /tmp/b)", err.Error())
}

func TestErrorv_EmptyString(t *testing.T) {

	// Fire
	err := Errorv("missing value", "")

	require.Equal(t, "missing value ([empty string])", err.Error())
}

func TestWrapv(t *testing.T) {
	inner := New("boom")

	// Fire
	err := Wrapv(inner, "unable to scan target", "acme/a")

	require.Equal(t, "unable to scan target (acme/a): boom", err.Error())
	require.Equal(t, inner, Cause(err))
}

func TestWithMessagev(t *testing.T) {
	inner := New("boom")

	// Fire
	err := WithMessagev(inner, "unable to load snapshot", "2020-01-01_000000")

	require.Equal(t, "unable to load snapshot (2020-01-01_000000): boom", err.Error())
	require.Equal(t, inner, Cause(err))
}
