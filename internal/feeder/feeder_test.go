package feeder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCSVRoundRobin(t *testing.T) {
	path := writeFeed(t, "users.csv", "username,password\nalice,pw1\nbob,pw2\n")
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 {
		t.Fatalf("Len = %d, want 2", f.Len())
	}

	want := []string{"alice", "bob", "alice"}
	for i, u := range want {
		rec, err := f.Next()
		if err != nil {
			t.Fatal(err)
		}
		if rec["username"] != u {
			t.Errorf("record %d username = %q, want %q", i, rec["username"], u)
		}
	}
}

func TestCSVHeaderMismatch(t *testing.T) {
	path := writeFeed(t, "bad.csv", "a,b\n1\n")
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for ragged rows")
	}
}

func TestJSONFeed(t *testing.T) {
	path := writeFeed(t, "items.json", `[{"id": 7, "name": "widget"}, {"id": 8, "name": "gadget"}]`)
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := f.Next()
	if err != nil {
		t.Fatal(err)
	}
	if rec["id"] != "7" || rec["name"] != "widget" {
		t.Errorf("record = %v", rec)
	}
}

func TestExhaustionWithoutCycle(t *testing.T) {
	path := writeFeed(t, "one.csv", "k\nv\n")
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	f.SetCycle(false)
	if _, err := f.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Next(); !errors.Is(err, ErrExhausted) {
		t.Errorf("err = %v, want ErrExhausted", err)
	}
}

func TestUnsupportedExtension(t *testing.T) {
	path := writeFeed(t, "feed.xml", "<x/>")
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
