package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pavelanni/bandscore/internal/exam"
	"github.com/pavelanni/bandscore/internal/sequence"
	"github.com/pavelanni/bandscore/internal/store"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

const writingDoc = `{
  "tests": [
    {"id": "W1", "title": "%TITLE%", "skill": "writing", "active": true, "tasks": [
      {"taskNumber": 1, "prompt": "Describe the graph."},
      {"taskNumber": 2, "prompt": "Discuss both views."}
    ]}
  ]
}`

type countingHashes struct {
	*store.Store
	sets int
}

func (c *countingHashes) SetImportedFileHash(ctx context.Context, path, hash string) error {
	c.sets++
	return c.Store.SetImportedFileHash(ctx, path, hash)
}

func newTestStore(t *testing.T) (*store.Store, *exam.Service) {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, exam.NewService(st, sequence.NewStore(st), nil, exam.Config{})
}

func writeDoc(t *testing.T, path, title string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Replace(writingDoc, "%TITLE%", title, 1)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadContent(t *testing.T) {
	st, svc := newTestStore(t)
	hashes := &countingHashes{Store: st}
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "writing.json")

	writeDoc(t, path, "Writing 1")
	if err := loadContent(ctx, svc, hashes, []string{path}); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := loadContent(ctx, svc, hashes, []string{path}); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if hashes.sets != 1 {
		t.Errorf("unchanged file imported %d times, want 1", hashes.sets)
	}

	writeDoc(t, path, "Writing 1 (revised)")
	if err := loadContent(ctx, svc, hashes, []string{path}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if hashes.sets != 2 {
		t.Errorf("changed file not re-imported")
	}
	got, err := st.GetTest(ctx, "W1")
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if got.Title != "Writing 1 (revised)" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestLoadContentErrors(t *testing.T) {
	st, svc := newTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	if err := loadContent(ctx, svc, st, []string{filepath.Join(dir, "missing.json")}); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"tests": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := loadContent(ctx, svc, st, []string{bad}); err == nil {
		t.Error("expected error for malformed document")
	}
	if h, _ := st.GetImportedFileHash(ctx, bad); h != "" {
		t.Error("failed import recorded a hash")
	}
}

func TestSeedAdmin(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if err := seedAdmin(ctx, st, ""); err == nil {
		t.Error("expected error without a password")
	}
	if err := seedAdmin(ctx, st, "s3cret-pass"); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	if err := seedAdmin(ctx, st, ""); err != nil {
		t.Errorf("second seed should be a no-op: %v", err)
	}
	n, err := st.UserCount(ctx)
	if err != nil || n != 1 {
		t.Errorf("UserCount = %d, %v", n, err)
	}
}

func TestSha256sum(t *testing.T) {
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := sha256sum(nil); got != want {
		t.Errorf("sha256sum(nil) = %s", got)
	}
}

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"serve", "import", "export", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %s not registered", name)
		}
	}
	if root.Flags().Lookup("addr") == nil {
		t.Error("serve flags not registered on root")
	}
}
