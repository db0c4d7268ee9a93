package filesvc

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/nethop/internal/errdef"
)

const (
	WorkspaceDir = ".nethop"
	ConfigFile   = "config.hop"
)

// Workspace is the concatenated script of a .nethop directory.
type Workspace struct {
	Dir    string
	Script string
	// Files lists the query files added after config.hop, relative to Dir.
	Files []string
}

func ReadScriptFile(path string) (string, error) {
	if !isScript(path) {
		return "", errdef.New(errdef.CodeFilesystem, "only %s files are supported: %s", ScriptExt, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errdef.New(errdef.CodeFilesystem, "%s: no such file or directory", path)
		}
		return "", errdef.Wrap(errdef.CodeFilesystem, err, "read %s", path)
	}
	return string(data), nil
}

// LoadWorkspace reads root/.nethop/config.hop followed by every other .hop
// file below the workspace directory, each terminated by a newline.
func LoadWorkspace(root string) (Workspace, error) {
	dir := filepath.Join(root, WorkspaceDir)
	configPath := filepath.Join(dir, ConfigFile)
	ws := Workspace{Dir: dir}

	header, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ws, errdef.New(errdef.CodeFilesystem, "no %s found in %s; run nethop init to set up a workspace", ConfigFile, dir)
		}
		return ws, errdef.Wrap(errdef.CodeFilesystem, err, "read %s", configPath)
	}

	var b strings.Builder
	b.Write(header)
	b.WriteByte('\n')

	entries, err := ListScriptFiles(dir, true)
	if err != nil {
		return ws, errdef.Wrap(errdef.CodeFilesystem, err, "list %s", dir)
	}
	for _, entry := range entries {
		if entry.Path == configPath {
			continue
		}
		data, err := os.ReadFile(entry.Path)
		if err != nil {
			return ws, errdef.Wrap(errdef.CodeFilesystem, err, "read %s", entry.Path)
		}
		b.Write(data)
		b.WriteByte('\n')
		ws.Files = append(ws.Files, entry.Name)
	}

	ws.Script = b.String()
	return ws, nil
}
