package mcptest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

// UpdateSnapshotsEnv is the environment variable that switches every
// snapshot check into update mode, rewriting baselines instead of comparing.
const UpdateSnapshotsEnv = "MCPTEST_UPDATE_SNAPSHOTS"

// Snapshot persists canonical serializations of values under stable per-test
// identities and compares them across runs. Records live in dir as
// <test_identity>__<name>.json (or .txt for the text variant); the identity
// is the test's name with any subtest suffix stripped, so parameterized
// subtests share a baseline unless the snapshot name differentiates them.
type Snapshot struct {
	t      testing.TB
	dir    string
	update bool
}

// SnapshotOption configures a Snapshot.
type SnapshotOption func(*Snapshot)

// WithUpdate forces update mode on or off, overriding the environment.
func WithUpdate(update bool) SnapshotOption {
	return func(s *Snapshot) { s.update = update }
}

// NewSnapshot creates a snapshot store rooted at dir for the current test.
// The directory is created if missing.
func NewSnapshot(t testing.TB, dir string, opts ...SnapshotOption) *Snapshot {
	t.Helper()
	s := &Snapshot{
		t:      t,
		dir:    dir,
		update: os.Getenv(UpdateSnapshotsEnv) != "",
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create snapshot directory %s: %v", dir, err)
	}
	return s
}

// MatchOption adjusts a single snapshot check.
type MatchOption func(*matchOptions)

type matchOptions struct {
	update *bool
}

// Update overrides the store's update mode for one check.
func Update(update bool) MatchOption {
	return func(o *matchOptions) { o.update = &update }
}

// AssertMatch compares value against the saved snapshot. On first encounter
// the canonical form is written and the check passes. In update mode the
// record is rewritten and ErrSnapshotUpdated is returned: the check was
// deliberately not evaluated, neither pass nor fail. On mismatch the returned
// *AssertionError carries both canonical texts inline.
func (s *Snapshot) AssertMatch(value any, name string, opts ...MatchOption) error {
	actual, err := Canonicalize(value)
	if err != nil {
		return err
	}
	path := s.path(name, ".json")

	update, exists, err := s.checkRecord(path, opts)
	if err != nil {
		return err
	}
	if update || !exists {
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			return fmt.Errorf("failed to write snapshot %s: %w", path, err)
		}
		if update {
			return fmt.Errorf("%w: %s", ErrSnapshotUpdated, name)
		}
		return nil
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var want, got any
	if err := json.Unmarshal(expected, &want); err != nil {
		return fmt.Errorf("corrupt snapshot %s: %w", path, err)
	}
	if err := json.Unmarshal([]byte(actual), &got); err != nil {
		return fmt.Errorf("failed to decode canonical form for %q: %w", name, err)
	}

	if !reflect.DeepEqual(want, got) {
		return assertionf("snapshot mismatch for %q.\nExpected:\n%s\n\nActual:\n%s\n\nTo update snapshots, run with %s=1",
			name, strings.TrimRight(string(expected), "\n"), actual, UpdateSnapshotsEnv)
	}
	return nil
}

// Match is the TB-bound form of AssertMatch: mismatches fail the test,
// update-mode writes skip it.
func (s *Snapshot) Match(value any, name string, opts ...MatchOption) {
	s.t.Helper()
	s.report(s.AssertMatch(value, name, opts...), name)
}

// AssertMatchText compares raw text against the saved .txt snapshot, with no
// structured decoding. Same outcome contract as AssertMatch.
func (s *Snapshot) AssertMatchText(text, name string, opts ...MatchOption) error {
	path := s.path(name, ".txt")

	update, exists, err := s.checkRecord(path, opts)
	if err != nil {
		return err
	}
	if update || !exists {
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write snapshot %s: %w", path, err)
		}
		if update {
			return fmt.Errorf("%w: %s", ErrSnapshotUpdated, name)
		}
		return nil
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	if text != string(expected) {
		return assertionf("text snapshot mismatch for %q.\nExpected:\n%s\n\nActual:\n%s\n\nTo update snapshots, run with %s=1",
			name, expected, text, UpdateSnapshotsEnv)
	}
	return nil
}

// MatchText is the TB-bound form of AssertMatchText.
func (s *Snapshot) MatchText(text, name string, opts ...MatchOption) {
	s.t.Helper()
	s.report(s.AssertMatchText(text, name, opts...), name)
}

// GetSnapshot returns the decoded persisted record, or found=false when none
// exists. It never affects pass/fail state.
func (s *Snapshot) GetSnapshot(name string) (any, bool, error) {
	data, err := os.ReadFile(s.path(name, ".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot %q: %w", name, err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false, fmt.Errorf("corrupt snapshot %q: %w", name, err)
	}
	return value, true, nil
}

// DeleteSnapshot removes the record if present; deleting a missing record is
// a no-op.
func (s *Snapshot) DeleteSnapshot(name string) error {
	err := os.Remove(s.path(name, ".json"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot %q: %w", name, err)
	}
	return nil
}

// ListSnapshots enumerates the JSON records under the current test identity,
// sorted, with the identity prefix stripped.
func (s *Snapshot) ListSnapshots() ([]string, error) {
	prefix := s.identity() + "__"
	matches, err := filepath.Glob(filepath.Join(s.dir, prefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		base := strings.TrimSuffix(filepath.Base(match), ".json")
		names = append(names, strings.TrimPrefix(base, prefix))
	}
	sort.Strings(names)
	return names, nil
}

// identity derives the stable test identity: the test name with the subtest
// suffix stripped, so repeated parameterized runs key the same records.
func (s *Snapshot) identity() string {
	name := s.t.Name()
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[:i]
	}
	return name
}

func (s *Snapshot) path(name, ext string) string {
	return filepath.Join(s.dir, s.identity()+"__"+name+ext)
}

// checkRecord resolves the effective update mode and record existence for
// one check.
func (s *Snapshot) checkRecord(path string, opts []MatchOption) (update, exists bool, err error) {
	options := matchOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	update = s.update
	if options.update != nil {
		update = *options.update
	}

	_, statErr := os.Stat(path)
	if statErr == nil {
		return update, true, nil
	}
	if errors.Is(statErr, fs.ErrNotExist) {
		return update, false, nil
	}
	return false, false, fmt.Errorf("failed to stat snapshot %s: %w", path, statErr)
}

// report translates the three-way check outcome into testing verdicts:
// updated records skip, mismatches and store errors fail.
func (s *Snapshot) report(err error, name string) {
	s.t.Helper()
	switch {
	case err == nil:
	case errors.Is(err, ErrSnapshotUpdated):
		s.t.Skipf("updated snapshot: %s", name)
	default:
		s.t.Fatal(err)
	}
}
