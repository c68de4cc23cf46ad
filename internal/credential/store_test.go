package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", ""},
		{"short fully masked", "abcd", "****"},
		{"shorter fully masked", "ab", "**"},
		{"long keeps last four", "abcdefgh", "****efgh"},
		{"five chars", "abcde", "*bcde"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.secret))
		})
	}
}

func TestGet_AbsentEverywhere(t *testing.T) {
	clearEnv(t)
	store := NewStore("")

	cred, state := store.Get("s1")

	assert.False(t, state.Valid)
	assert.Equal(t, SourceNone, state.Source)
	assert.Empty(t, cred.S2)
	assert.Empty(t, cred.SWID)
}

func TestGet_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ESPN_S2", "env-s2-value")
	t.Setenv("SWID", "env-swid-value")

	store := NewStore("")
	cred, state := store.Get("s1")

	assert.True(t, state.Valid)
	assert.Equal(t, SourceEnv, state.Source)
	assert.Equal(t, "env-s2-value", cred.S2)
	assert.Equal(t, "env-swid-value", cred.SWID)
}

func TestGet_LowercaseAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("espn_s2", "alias-s2")
	t.Setenv("swid", "alias-swid")

	store := NewStore("")
	cred, state := store.Get("s1")

	assert.True(t, state.Valid)
	assert.Equal(t, "alias-s2", cred.S2)
	assert.Equal(t, "alias-swid", cred.SWID)
}

func TestGet_PartialCredentialsNeverValid(t *testing.T) {
	clearEnv(t)
	t.Setenv("ESPN_S2", "only-one-token")

	store := NewStore("")
	_, state := store.Get("s1")

	assert.False(t, state.Valid)
}

func TestGet_MemoryTakesPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("ESPN_S2", "env-s2")
	t.Setenv("SWID", "env-swid")

	store := NewStore("")
	require.NoError(t, store.Set("s1", Credential{S2: "mem-s2", SWID: "mem-swid"}, PersistMemory))

	cred, state := store.Get("s1")

	assert.Equal(t, "mem-s2", cred.S2)
	assert.Equal(t, "mem-swid", cred.SWID)
	assert.Equal(t, SourceAcquired, state.Source)
}

func TestGet_SessionsAreIsolated(t *testing.T) {
	clearEnv(t)
	store := NewStore("")
	require.NoError(t, store.Set("s1", Credential{S2: "a", SWID: "b"}, PersistMemory))

	_, state := store.Get("s2")

	assert.False(t, state.Valid)
}

func TestGet_MaskedState(t *testing.T) {
	clearEnv(t)
	store := NewStore("")
	require.NoError(t, store.Set("s1", Credential{S2: "abcdefgh", SWID: "{GUID-1234}"}, PersistMemory))

	_, state := store.Get("s1")

	assert.Equal(t, "****efgh", state.MaskedS2)
	assert.Equal(t, "*******234}", state.MaskedSWID)
	assert.False(t, state.LastChecked.IsZero())
}

func TestSet_PersistEnv(t *testing.T) {
	clearEnv(t)
	store := NewStore("")

	require.NoError(t, store.Set("s1", Credential{S2: "new-s2", SWID: "new-swid"}, PersistEnv))

	assert.Equal(t, "new-s2", os.Getenv("ESPN_S2"))
	assert.Equal(t, "new-swid", os.Getenv("SWID"))
}

func TestSet_PersistMemoryLeavesEnvAlone(t *testing.T) {
	clearEnv(t)
	store := NewStore("")

	require.NoError(t, store.Set("s1", Credential{S2: "mem", SWID: "mem"}, PersistMemory))

	assert.Empty(t, os.Getenv("ESPN_S2"))
	assert.Empty(t, os.Getenv("SWID"))
}

func TestSet_PersistFile_CreatesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	store := NewStore(path)

	require.NoError(t, store.Set("s1", Credential{S2: "file-s2", SWID: "file-swid"}, PersistFile))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ESPN_S2=file-s2\nSWID=file-swid\n", string(data))
}

func TestSet_PersistFile_UpsertPreservesUnrelatedLines(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	existing := "# local settings\nOTHER_KEY=untouched\nESPN_S2=old-value\nTRAILING=kept\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o600))

	store := NewStore(path)
	require.NoError(t, store.Set("s1", Credential{S2: "new-value", SWID: "new-swid"}, PersistFile))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"# local settings\nOTHER_KEY=untouched\nESPN_S2=new-value\nTRAILING=kept\nSWID=new-swid\n",
		string(data))
}

func TestSet_PersistFile_NoDuplicateKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	store := NewStore(path)

	require.NoError(t, store.Set("s1", Credential{S2: "one", SWID: "two"}, PersistFile))
	require.NoError(t, store.Set("s1", Credential{S2: "three", SWID: "four"}, PersistFile))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ESPN_S2=three\nSWID=four\n", string(data))
}

func TestClear_MemoryOnly(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	store := NewStore(path)
	require.NoError(t, store.Set("s1", Credential{S2: "a", SWID: "b"}, PersistFile))

	store.Clear("s1")

	// The file still holds the tokens; only the in-memory slot is gone.
	_, err := os.Stat(path)
	assert.NoError(t, err)

	// Clear does not touch the environment either, so unset it to observe
	// the memory slot alone.
	clearEnv(t)
	_, state := store.Get("s1")
	assert.False(t, state.Valid)
}

func TestFingerprint(t *testing.T) {
	a := Credential{S2: "one", SWID: "two"}
	b := Credential{S2: "one", SWID: "two"}
	c := Credential{S2: "one", SWID: "other"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	// The concatenation boundary matters: ("ab","c") != ("a","bc").
	assert.NotEqual(t,
		Credential{S2: "ab", SWID: "c"}.Fingerprint(),
		Credential{S2: "a", SWID: "bc"}.Fingerprint())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ESPN_S2", "espn_s2", "SWID", "swid"} {
		t.Setenv(key, "")
	}
}
