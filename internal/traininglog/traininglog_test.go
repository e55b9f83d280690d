package traininglog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const sampleLog = `{
  "athlete": "sam",
  "sessions": [
    {
      "date": "2024-03-04",
      "exercises": [
        {"name": "squat", "sets": [{"reps": 5, "load": 140}, {"reps": 5, "load": 145}]},
        {"name": "bench", "sets": [{"reps": 8, "weight": "82.5"}]}
      ]
    },
    {
      "date": "2024-03-06",
      "exercises": [
        {"name": "squat", "sets": [{"reps": 3, "load": 155, "note": null, "pr": true}]}
      ]
    }
  ]
}`

func mustParse(t *testing.T, s string) *Node {
	t.Helper()
	root, err := Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return root
}

// TestParseKeepsOrder verifies object keys keep document order and arrays
// are named by index.
func TestParseKeepsOrder(t *testing.T) {
	root := mustParse(t, sampleLog)
	if root.Kind != KindObject {
		t.Fatalf("root kind = %s, want object", root.Kind)
	}
	if len(root.Children) != 2 || root.Children[0].Name != "athlete" || root.Children[1].Name != "sessions" {
		t.Fatalf("unexpected root children: %+v", root.Children)
	}
	sessions := root.Children[1]
	if sessions.Kind != KindArray || len(sessions.Children) != 2 {
		t.Fatalf("sessions = %s with %d children", sessions.Kind, len(sessions.Children))
	}
	if sessions.Children[1].Name != "1" {
		t.Errorf("second element name = %q, want \"1\"", sessions.Children[1].Name)
	}
}

// TestParseScalars verifies each scalar kind is tagged and carries its text.
func TestParseScalars(t *testing.T) {
	root := mustParse(t, `{"s": "a\"b", "n": 1.5, "b": false, "z": null}`)
	want := []struct {
		kind  Kind
		value string
	}{
		{KindString, `a"b`},
		{KindNumber, "1.5"},
		{KindBool, "false"},
		{KindNull, ""},
	}
	for i, w := range want {
		c := root.Children[i]
		if c.Kind != w.kind || c.Value != w.value {
			t.Errorf("child %s = (%s, %q), want (%s, %q)", c.Name, c.Kind, c.Value, w.kind, w.value)
		}
		if !c.IsLeaf() {
			t.Errorf("child %s should be a leaf", c.Name)
		}
	}
}

// TestParseInvalid verifies malformed JSON is rejected.
func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte(`{"a": [1, 2`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
	if _, err := Parse([]byte(``)); err == nil {
		t.Error("expected error for empty input")
	}
}

// TestFindByName verifies pre-order path collection for a key name.
func TestFindByName(t *testing.T) {
	root := mustParse(t, sampleLog)
	paths := Find(root, ByName("date"))
	want := []string{"/sessions/0/date", "/sessions/1/date"}
	if len(paths) != len(want) {
		t.Fatalf("got %d paths, want %d: %v", len(paths), len(want), paths)
	}
	for i, p := range paths {
		if p.String() != want[i] {
			t.Errorf("path[%d] = %s, want %s", i, p, want[i])
		}
	}
}

// TestFindAnd verifies combined matchers and that every returned path
// resolves back to a matching node.
func TestFindAnd(t *testing.T) {
	root := mustParse(t, sampleLog)
	paths := Find(root, And(ByName("name"), ByValue("squat")))
	if len(paths) != 2 {
		t.Fatalf("got %d squat paths, want 2: %v", len(paths), paths)
	}
	for _, p := range paths {
		n, ok := Get(root, p)
		if !ok {
			t.Fatalf("Get(%s) failed", p)
		}
		if n.Value != "squat" {
			t.Errorf("Get(%s).Value = %q", p, n.Value)
		}
	}
}

// TestFindRoot verifies the root itself can match with an empty path.
func TestFindRoot(t *testing.T) {
	root := mustParse(t, `[1, 2]`)
	paths := Find(root, ByKind(KindArray))
	if len(paths) != 1 || paths[0].String() != "/" {
		t.Errorf("paths = %v, want [/]", paths)
	}
}

// TestParsePath verifies Path.String and ParsePath are inverses.
func TestParsePath(t *testing.T) {
	p := Path{"sessions", "0", "date"}
	if got := ParsePath(p.String()); got.String() != p.String() {
		t.Errorf("ParsePath(%s) = %s", p, got)
	}
	if got := ParsePath("/"); len(got) != 0 {
		t.Errorf("ParsePath(/) = %v, want empty", got)
	}
}

// TestGetMissing verifies unknown paths report false.
func TestGetMissing(t *testing.T) {
	root := mustParse(t, sampleLog)
	if _, ok := Get(root, ParsePath("/sessions/7")); ok {
		t.Error("expected missing path")
	}
}

// TestLifts verifies (reps, load) pairs are found under either load key and
// quoted numbers are accepted.
func TestLifts(t *testing.T) {
	root := mustParse(t, sampleLog)
	lifts := Lifts(root)
	if len(lifts) != 4 {
		t.Fatalf("got %d lifts, want 4: %+v", len(lifts), lifts)
	}
	if lifts[0].Reps != 5 || lifts[0].Load != 140 {
		t.Errorf("lift[0] = %+v", lifts[0])
	}
	if lifts[2].Reps != 8 || lifts[2].Load != 82.5 {
		t.Errorf("lift[2] = %+v", lifts[2])
	}
	if got := lifts[3].Path.String(); got != "/sessions/1/exercises/0/sets/0" {
		t.Errorf("lift[3].Path = %s", got)
	}
}

// TestLiftsSkipsBadReps verifies fractional, negative and huge rep counts
// are not truncated into lifts.
func TestLiftsSkipsBadReps(t *testing.T) {
	root := mustParse(t, `{"sets": [
		{"reps": 5.7, "load": 100},
		{"reps": -3, "load": 100},
		{"reps": 1e30, "load": 100},
		{"reps": 6.0, "load": 90}
	]}`)
	lifts := Lifts(root)
	if len(lifts) != 1 {
		t.Fatalf("got %d lifts, want 1: %+v", len(lifts), lifts)
	}
	if lifts[0].Reps != 6 || lifts[0].Load != 90 {
		t.Errorf("lift = %+v", lifts[0])
	}
}

// TestLiftsDuplicateKeys verifies each object with a repeated key is read
// from its own node rather than the first sibling of that name.
func TestLiftsDuplicateKeys(t *testing.T) {
	root := mustParse(t, `{
		"set": {"reps": 5, "load": 100},
		"set": {"reps": 3, "load": 120}
	}`)
	lifts := Lifts(root)
	if len(lifts) != 2 {
		t.Fatalf("got %d lifts, want 2: %+v", len(lifts), lifts)
	}
	if lifts[1].Reps != 3 || lifts[1].Load != 120 {
		t.Errorf("second lift = %+v, want 3 x 120", lifts[1])
	}
}

// TestLoadCompressed verifies plain, gzip and zstd log files all load.
func TestLoadCompressed(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "log.json")
	if err := os.WriteFile(plain, []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write([]byte(sampleLog))
	gw.Close()
	gzPath := filepath.Join(dir, "log.json.gz")
	if err := os.WriteFile(gzPath, gz.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	zstPath := filepath.Join(dir, "log.json.zst")
	if err := os.WriteFile(zstPath, enc.EncodeAll([]byte(sampleLog), nil), 0o644); err != nil {
		t.Fatal(err)
	}
	enc.Close()

	for _, p := range []string{plain, gzPath, zstPath} {
		root, err := Load(p)
		if err != nil {
			t.Fatalf("Load(%s): %v", filepath.Base(p), err)
		}
		if got := len(Lifts(root)); got != 4 {
			t.Errorf("Load(%s): %d lifts, want 4", filepath.Base(p), got)
		}
	}
}

// TestLoadMissingFile verifies a missing file returns an error.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/log.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
