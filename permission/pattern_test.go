package permission

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePattern_Shapes(t *testing.T) {
	global, err := ParsePattern("*")
	require.NoError(t, err)
	require.True(t, global.IsGlobal())
	require.Equal(t, "*", global.String())

	wildcard, err := ParsePattern("customer.*")
	require.NoError(t, err)
	require.True(t, wildcard.IsWildcard())
	require.False(t, wildcard.IsGlobal())
	require.Equal(t, "customer", wildcard.Resource())
	require.Equal(t, "customer.*", wildcard.String())

	exact, err := ParsePattern("Measurement.Read")
	require.NoError(t, err)
	require.False(t, exact.IsWildcard())
	require.Equal(t, "measurement.read", exact.String(), "tokens are normalized to lower case")
}

func TestParsePattern_Rejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"customer",
		"customer.",
		".read",
		"customer.read.extra",
		"*.read",
		"cust*.read",
		"customer.re*d",
	} {
		_, err := ParsePattern(raw)
		require.Error(t, err, "pattern %q should not parse", raw)
	}
}

func TestParseCode_RejectsWildcards(t *testing.T) {
	_, err := ParseCode("customer.*")
	require.Error(t, err)
	_, err = ParseCode("*")
	require.Error(t, err)

	code, err := ParseCode("stack.read")
	require.NoError(t, err)
	require.Equal(t, "stack", code.Resource())
	require.Equal(t, "read", code.Action())
}

func TestPatternMatches(t *testing.T) {
	view := MustCode("customer.view")
	create := MustCode("customer.create")
	stackView := MustCode("stack.view")

	require.True(t, Global().Matches(view))
	require.True(t, Global().Matches(stackView))

	wildcard := MustPattern("customer.*")
	require.True(t, wildcard.Matches(view))
	require.True(t, wildcard.Matches(create))
	require.False(t, wildcard.Matches(stackView))

	exact := MustPattern("customer.view")
	require.True(t, exact.Matches(view))
	require.False(t, exact.Matches(create))
}

func TestSetAllows(t *testing.T) {
	set := NewSet(MustPattern("customer.*"))
	require.True(t, set.Allows(MustCode("customer.view")))
	require.True(t, set.Allows(MustCode("customer.create")))
	require.False(t, set.Allows(MustCode("stack.view")))

	set.Add(Global())
	require.True(t, set.Allows(MustCode("stack.view")))
}

func TestSetRemoveIsPatternExact(t *testing.T) {
	set := NewSet(MustPattern("report.*"), MustPattern("report.read"))
	set.Remove(MustPattern("report.read"))

	// The broader wildcard is not narrowed by revoking the exact code.
	require.True(t, set.Allows(MustCode("report.read")))
	require.False(t, set.Contains(MustPattern("report.read")))
}

func TestSetEqual(t *testing.T) {
	a := NewSet(MustPattern("customer.*"), MustPattern("stack.read"))
	b := NewSet(MustPattern("stack.read"), MustPattern("customer.*"))
	require.True(t, a.Equal(b))

	b.Add(Global())
	require.False(t, a.Equal(b))
}
