package ctrl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAliasExpandReplacesFirstToken(t *testing.T) {
	a := NewAliasStore()
	a.aliases["ll"] = "fs-list"
	require.Equal(t, "fs-list /foo", a.Expand("ll /foo"))
}

func TestAliasExpandLeavesUnknownTokenUnchanged(t *testing.T) {
	a := NewAliasStore()
	require.Equal(t, "fs-list /foo", a.Expand("fs-list /foo"))
}

func TestAliasCommandSetListAndRemove(t *testing.T) {
	a := NewAliasStore()
	call := &CommandCall{Parameters: []ParameterValue{
		{Kind: KindString, String: "ll"},
		{Kind: KindString, String: "fs-list"},
	}}
	reply := a.Command(call)
	require.Contains(t, reply, "ALIASES")
	require.Contains(t, reply, "ll: fs-list")

	call = &CommandCall{Parameters: nil}
	reply = a.Command(call)
	require.Contains(t, reply, "ll: fs-list")

	call = &CommandCall{Parameters: []ParameterValue{{Kind: KindString, String: "ll"}}}
	reply = a.Command(call)
	require.NotContains(t, reply, "ll:")
}

func TestAliasCommandTooManyParametersErrors(t *testing.T) {
	a := NewAliasStore()
	call := &CommandCall{Parameters: []ParameterValue{
		{String: "a"}, {String: "b"}, {String: "c"},
	}}
	require.Contains(t, a.Command(call), "ERROR")
}
