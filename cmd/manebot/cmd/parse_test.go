package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manebot/manebot/foundation/search"
)

func TestRenderClause(t *testing.T) {
	parsed, err := search.Parse(`alice -"bob smith" +(carol ~dave)`)
	require.NoError(t, err)

	out := renderClause(parsed.Root, "root").String()
	for _, want := range []string{
		"root clause",
		"token alice",
		`string "bob smith"`,
		"[exclude]",
		"nested clause",
		"[merge]",
		"token dave",
		"[include]",
	} {
		assert.Contains(t, out, want)
	}
}

func TestParseCommand(t *testing.T) {
	var out bytes.Buffer
	parseCmd.SetOut(&out)
	defer parseCmd.SetOut(nil)

	require.NoError(t, runParse(parseCmd, []string{"alice", "p:3"}))
	assert.Contains(t, out.String(), "alice page:3")
	assert.Contains(t, out.String(), "3")

	assert.Error(t, runParse(parseCmd, []string{`"open`}))
}
