// Package credential holds the authentication cookie pair for each logical
// session, tracks where the values came from, and optionally persists them to
// the process environment or a local key-value file.
package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"sync"
	"time"
)

// Environment keys for the two ESPN auth cookies. Lowercase aliases are
// accepted on read; writes always use the canonical form.
const (
	KeyS2   = "ESPN_S2"
	KeySWID = "SWID"
)

var (
	s2Aliases   = []string{KeyS2, "espn_s2"}
	swidAliases = []string{KeySWID, "swid"}
)

// Source records the provenance of a credential pair.
type Source string

const (
	SourceNone     Source = "none"
	SourceEnv      Source = "env"
	SourceAcquired Source = "acquired"
)

// PersistMode selects where Set writes a credential in addition to memory.
type PersistMode string

const (
	PersistMemory PersistMode = "memory"
	PersistEnv    PersistMode = "env"
	PersistFile   PersistMode = "file"
)

// Credential is the opaque cookie pair identifying an authenticated viewer.
// The token contents are never interpreted, only forwarded.
type Credential struct {
	S2   string
	SWID string
}

// Valid reports whether both tokens are present. A partial pair is never
// treated as authenticated.
func (c Credential) Valid() bool {
	return c.S2 != "" && c.SWID != ""
}

// Fingerprint returns a stable digest of the credential values, suitable for
// staleness comparison without holding another raw copy of the tokens.
func (c Credential) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(c.S2))
	h.Write([]byte{0})
	h.Write([]byte(c.SWID))
	return hex.EncodeToString(h.Sum(nil))
}

// AuthState is the inspectable status of a session's credentials. Token
// values appear only in masked form.
type AuthState struct {
	Source      Source    `json:"source"`
	Valid       bool      `json:"valid"`
	LastChecked time.Time `json:"last_checked"`
	MaskedS2    string    `json:"espn_s2"`
	MaskedSWID  string    `json:"swid"`
}

// Store keeps one credential slot per session id. The zero session id is an
// ordinary slot, which is how the single-slot deployment mode falls out.
type Store struct {
	mu       sync.Mutex
	slots    map[string]Credential
	filePath string
}

// NewStore creates a store. filePath is the key-value file used by
// PersistFile; it is created on first write if absent.
func NewStore(filePath string) *Store {
	return &Store{
		slots:    make(map[string]Credential),
		filePath: filePath,
	}
}

// Get resolves the credential for a session: the in-memory slot when set,
// otherwise the process environment (including lowercase aliases), otherwise
// absent. The returned state always carries masked token forms.
func (s *Store) Get(session string) (Credential, AuthState) {
	s.mu.Lock()
	mem, inMemory := s.slots[session]
	s.mu.Unlock()

	cred := mem
	if cred.S2 == "" {
		cred.S2 = lookupEnv(s2Aliases...)
	}
	if cred.SWID == "" {
		cred.SWID = lookupEnv(swidAliases...)
	}

	var source Source
	switch {
	case cred.S2 == "" && cred.SWID == "":
		source = SourceNone
	case inMemory && mem.Valid():
		source = SourceAcquired
	default:
		source = SourceEnv
	}

	return cred, AuthState{
		Source:      source,
		Valid:       cred.Valid(),
		LastChecked: time.Now(),
		MaskedS2:    Mask(cred.S2),
		MaskedSWID:  Mask(cred.SWID),
	}
}

// Set stores the credential for a session. The in-memory slot is always
// written; PersistEnv additionally exports the values to the process
// environment, and PersistFile does both plus an upsert into the local
// key-value file.
func (s *Store) Set(session string, cred Credential, mode PersistMode) error {
	s.mu.Lock()
	s.slots[session] = cred
	s.mu.Unlock()

	if mode == PersistEnv || mode == PersistFile {
		os.Setenv(KeyS2, cred.S2)
		os.Setenv(KeySWID, cred.SWID)
	}

	if mode == PersistFile {
		if err := s.writeFile(cred); err != nil {
			return err
		}
	}

	return nil
}

// Clear removes the session's in-memory slot only. Persisted values in the
// environment or the credential file are left untouched.
func (s *Store) Clear(session string) {
	s.mu.Lock()
	delete(s.slots, session)
	s.mu.Unlock()
}

// Mask replaces all but the last four characters of a secret with '*'. Values
// of four characters or fewer are fully masked.
func Mask(secret string) string {
	const show = 4
	runes := []rune(secret)
	if len(runes) <= show {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-show) + string(runes[len(runes)-show:])
}

func lookupEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func (s *Store) writeFile(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := readLines(s.filePath)
	if err != nil {
		return err
	}

	lines = upsertLine(lines, KeyS2, cred.S2)
	lines = upsertLine(lines, KeySWID, cred.SWID)

	return os.WriteFile(s.filePath, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}

// readLines loads the credential file, tolerating a missing file.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil, nil
	}
	return strings.Split(content, "\n"), nil
}

// upsertLine replaces an existing "KEY=..." line in place, or appends one.
// Unrelated lines (comments, other keys, blanks) are preserved verbatim.
func upsertLine(lines []string, key, value string) []string {
	entry := key + "=" + value
	for i, line := range lines {
		if strings.HasPrefix(line, key+"=") {
			lines[i] = entry
			return lines
		}
	}
	return append(lines, entry)
}
