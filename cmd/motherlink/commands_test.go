package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "motherlink version dev\n", run(t, "version"))
}

func TestGraphCommand(t *testing.T) {
	out := run(t, "graph", "--locale", "en", "--path", "2*6")

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `welcome(("welcome"))`)
	assert.Contains(t, out, "class main visited;")
	assert.Contains(t, out, "class settings current;")
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("USER_STORE", "backend")

	out := run(t, "validate")
	assert.Contains(t, out, "rw: ")
	assert.Contains(t, out, "en: ")
	assert.Contains(t, out, "Menus are valid!")
}
