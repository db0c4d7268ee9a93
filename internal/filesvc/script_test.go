package filesvc

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/unkn0wn-root/nethop/internal/errdef"
)

func TestReadScriptFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "api.hop")
	writeFile(t, path, "<connect>\nhost=example.com\n</connect>\n")

	got, err := ReadScriptFile(path)
	if err != nil {
		t.Fatalf("ReadScriptFile returned error: %v", err)
	}
	if !strings.HasPrefix(got, "<connect>") {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestReadScriptFileRejectsOtherExtensions(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "api.http")
	writeFile(t, path, "")

	_, err := ReadScriptFile(path)
	if !errdef.Is(err, errdef.CodeFilesystem) || !strings.Contains(err.Error(), "only .hop files are supported") {
		t.Fatalf("expected extension error, got %v", err)
	}
}

func TestReadScriptFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.hop")
	_, err := ReadScriptFile(path)
	if !errdef.Is(err, errdef.CodeFilesystem) || !strings.Contains(err.Error(), "no such file or directory") {
		t.Fatalf("expected missing file error, got %v", err)
	}
}

func TestLoadWorkspaceConcatenatesConfigFirst(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, WorkspaceDir)
	writeFile(t, filepath.Join(dir, ConfigFile), "<connect>\nhost=example.com\n</connect>")
	writeFile(t, filepath.Join(dir, "b.hop"), "B")
	writeFile(t, filepath.Join(dir, "a.hop"), "A")
	writeFile(t, filepath.Join(dir, "users", "c.hop"), "C")
	writeFile(t, filepath.Join(dir, "readme.md"), "ignored")

	ws, err := LoadWorkspace(root)
	if err != nil {
		t.Fatalf("LoadWorkspace returned error: %v", err)
	}
	want := "<connect>\nhost=example.com\n</connect>\nA\nB\nC\n"
	if ws.Script != want {
		t.Fatalf("unexpected script %q", ws.Script)
	}
	if len(ws.Files) != 3 || ws.Files[0] != "a.hop" || ws.Files[2] != filepath.Join("users", "c.hop") {
		t.Fatalf("unexpected files %v", ws.Files)
	}
}

func TestLoadWorkspaceOnlyConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, WorkspaceDir, ConfigFile), "cfg")

	ws, err := LoadWorkspace(root)
	if err != nil {
		t.Fatalf("LoadWorkspace returned error: %v", err)
	}
	if ws.Script != "cfg\n" || len(ws.Files) != 0 {
		t.Fatalf("unexpected workspace %+v", ws)
	}
}

func TestLoadWorkspaceWithoutConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, WorkspaceDir, "a.hop"), "A")

	_, err := LoadWorkspace(root)
	if !errdef.Is(err, errdef.CodeFilesystem) || !strings.Contains(err.Error(), "run nethop init") {
		t.Fatalf("expected setup hint, got %v", err)
	}
}
