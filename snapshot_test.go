package mcptest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSnapshot_FirstEncounterWritesAndPasses(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))

	require.NoError(t, snap.AssertMatch(map[string]any{"a": 1}, "first"))

	value, found, err := snap.GetSnapshot("first")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, map[string]any{"a": float64(1)}, value)
}

func TestSnapshot_RoundTripNeverFails(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))
	value := map[string]any{
		"tools": []any{"add", "subtract"},
		"count": 2,
		"nested": map[string]any{
			"ok": true,
		},
	}

	require.NoError(t, snap.AssertMatch(value, "roundtrip"))
	require.NoError(t, snap.AssertMatch(value, "roundtrip"), "saving then re-checking the same value must pass")
}

func TestSnapshot_MismatchCarriesBothForms(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))
	require.NoError(t, snap.AssertMatch(map[string]any{"a": 1}, "value"))

	err := snap.AssertMatch(map[string]any{"a": 2}, "value")

	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Contains(t, assertErr.Message, `"a": 1`)
	assert.Contains(t, assertErr.Message, `"a": 2`)
	assert.Contains(t, assertErr.Message, UpdateSnapshotsEnv, "the failure must point at the update switch")
}

func TestSnapshot_EquivalentValuesCompareEqual(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))
	require.NoError(t, snap.AssertMatch(map[string]any{"n": 1}, "numeric"))

	// int and float64 render identically in canonical form.
	require.NoError(t, snap.AssertMatch(map[string]any{"n": float64(1)}, "numeric"))
}

func TestSnapshot_UpdateModeRewritesAndReportsUpdated(t *testing.T) {
	dir := t.TempDir()
	snap := NewSnapshot(t, dir, WithUpdate(false))
	require.NoError(t, snap.AssertMatch(map[string]any{"a": 1}, "value"))

	updating := NewSnapshot(t, dir, WithUpdate(true))
	err := updating.AssertMatch(map[string]any{"a": 2}, "value")
	require.ErrorIs(t, err, ErrSnapshotUpdated, "update mode is neither pass nor fail")

	value, found, getErr := updating.GetSnapshot("value")
	require.NoError(t, getErr)
	require.True(t, found)
	assert.Equal(t, map[string]any{"a": float64(2)}, value)
}

func TestSnapshot_PerCheckUpdateOverride(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))
	require.NoError(t, snap.AssertMatch("old", "value"))

	err := snap.AssertMatch("new", "value", Update(true))
	require.ErrorIs(t, err, ErrSnapshotUpdated)

	require.NoError(t, snap.AssertMatch("new", "value"))
}

func TestSnapshot_TextVariant(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))

	require.NoError(t, snap.AssertMatchText("hello\nworld\n", "greeting"))
	require.NoError(t, snap.AssertMatchText("hello\nworld\n", "greeting"))

	err := snap.AssertMatchText("goodbye\n", "greeting")
	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Contains(t, assertErr.Message, "hello")
	assert.Contains(t, assertErr.Message, "goodbye")
}

func TestSnapshot_GetSnapshotMissing(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))

	_, found, err := snap.GetSnapshot("never-saved")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSnapshot_DeleteSnapshot(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))
	require.NoError(t, snap.AssertMatch("x", "value"))

	require.NoError(t, snap.DeleteSnapshot("value"))
	_, found, err := snap.GetSnapshot("value")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, snap.DeleteSnapshot("value"), "deleting a missing record is a no-op")
}

func TestSnapshot_ListSnapshots(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))
	require.NoError(t, snap.AssertMatch("x", "beta"))
	require.NoError(t, snap.AssertMatch("y", "alpha"))
	require.NoError(t, snap.AssertMatchText("z", "text-only"))

	names, err := snap.ListSnapshots()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names, "sorted, JSON records only")
}

func TestSnapshot_SubtestsShareIdentity(t *testing.T) {
	dir := t.TempDir()

	t.Run("VariantA", func(t *testing.T) {
		snap := NewSnapshot(t, dir, WithUpdate(false))
		require.NoError(t, snap.AssertMatch("shared", "value"))
	})
	t.Run("VariantB", func(t *testing.T) {
		snap := NewSnapshot(t, dir, WithUpdate(false))

		// Both subtests key the same record because the identity stops at
		// the parent test name.
		err := snap.AssertMatch("different", "value")
		var assertErr *AssertionError
		require.ErrorAs(t, err, &assertErr)
	})

	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	base := filepath.Base(entries[0])
	assert.Equal(t, "TestSnapshot_SubtestsShareIdentity__value.json", base)
	assert.False(t, strings.Contains(base, "Variant"))
}

func TestSnapshot_ToolListSnapshot(t *testing.T) {
	session := newCalculatorSession(t)
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))

	tools, err := session.ListTools(t.Context())
	require.NoError(t, err)
	names := toolNames(tools)

	require.NoError(t, snap.AssertMatch(names, "tool-names"))
	require.NoError(t, snap.AssertMatch(names, "tool-names"))
}

type serializableResult struct {
	result *mcp.CallToolResult
}

func (s serializableResult) Serialize() any {
	texts := make([]string, 0, len(s.result.Content))
	for _, item := range s.result.Content {
		if tc, ok := mcp.AsTextContent(item); ok {
			texts = append(texts, tc.Text)
		}
	}
	return texts
}

func TestSnapshot_SerializableHook(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))
	value := serializableResult{result: textResult("8")}

	require.NoError(t, snap.AssertMatch(value, "result"))

	saved, found, err := snap.GetSnapshot("result")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []any{"8"}, saved, "the hook's form is persisted, not the raw struct")
}

func TestSnapshot_EnvironmentEnablesUpdate(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "1")
	dir := t.TempDir()

	seeded := NewSnapshot(t, dir, WithUpdate(false))
	require.NoError(t, seeded.AssertMatch("old", "value"))

	snap := NewSnapshot(t, dir)
	err := snap.AssertMatch("new", "value")
	require.ErrorIs(t, err, ErrSnapshotUpdated)
}

func TestSnapshot_RoundTripProperty(t *testing.T) {
	snap := NewSnapshot(t, t.TempDir(), WithUpdate(false))
	rapid.Check(t, func(rt *rapid.T) {
		value := map[string]any{
			"name":  rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "name"),
			"count": rapid.IntRange(-1000, 1000).Draw(rt, "count"),
			"flags": rapid.SliceOfN(rapid.Bool(), 0, 4).Draw(rt, "flags"),
		}

		require.NoError(rt, snap.DeleteSnapshot("prop"))
		require.NoError(rt, snap.AssertMatch(value, "prop"))
		require.NoError(rt, snap.AssertMatch(value, "prop"), "a just-saved value must match itself")
	})
}

func TestSnapshot_DirectoryIsCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	NewSnapshot(t, dir, WithUpdate(false))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
