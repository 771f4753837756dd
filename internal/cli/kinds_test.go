package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgretry/pkg/pgretry"
)

func TestKindsCmd_ListsBuiltins(t *testing.T) {
	var buf bytes.Buffer
	kindsCmd.SetOut(&buf)
	t.Cleanup(func() { kindsCmd.SetOut(nil) })

	kindsCmd.Run(kindsCmd, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines, pgretry.ConflictKindName)
	assert.Contains(t, lines, "pgconn.SerializationFailure")
}
