// Package workspace owns the per-export temporary directories and the
// artifact file inside each of them.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dirPrefix = "notion-export-"

var ErrArtifactMissing = errors.New("artifact missing")

// Workspace is a directory owned by exactly one export.
type Workspace struct {
	Dir        string
	OutputPath string
}

// Manager allocates and releases workspaces under a root directory.
type Manager struct {
	root string
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewManager creates a Manager rooted at root. An empty root means os.TempDir().
func NewManager(root string, log logrus.FieldLogger) *Manager {
	if root == "" {
		root = os.TempDir()
	}
	return &Manager{
		root: root,
		log:  log.WithField("component", "workspace"),
		now:  time.Now,
	}
}

// Root returns the directory under which workspaces are created.
func (m *Manager) Root() string {
	return m.root
}

// Allocate creates a fresh directory and plans "<dir>/<filename>.pdf" as the
// output path. The directory name combines a nanosecond timestamp with a
// random UUID so concurrent exports never share a path.
func (m *Manager) Allocate(filename string) (*Workspace, error) {
	name := dirPrefix + strconv.FormatInt(m.now().UnixNano(), 10) + "-" + uuid.NewString()
	dir := filepath.Join(m.root, name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{
		Dir:        dir,
		OutputPath: filepath.Join(dir, filename+".pdf"),
	}, nil
}

// ReadArtifact returns the full content of the output file. A file that is
// absent (or is not a regular file) yields ErrArtifactMissing.
func (m *Manager) ReadArtifact(ws *Workspace) ([]byte, error) {
	st, err := os.Stat(ws.OutputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrArtifactMissing
		}
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	if !st.Mode().IsRegular() {
		return nil, ErrArtifactMissing
	}
	data, err := os.ReadFile(ws.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// Release deletes the artifact and then the workspace directory. Failures are
// logged and never returned: cleanup must not replace the export's outcome.
func (m *Manager) Release(ws *Workspace) {
	if ws == nil {
		return
	}
	if err := os.Remove(ws.OutputPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.log.WithError(err).WithField("workspace", ws.Dir).Error("artifact cleanup failed")
	}
	// Partial files left by a failed conversion go with the directory.
	if err := os.RemoveAll(ws.Dir); err != nil {
		m.log.WithError(err).WithField("workspace", ws.Dir).Error("workspace cleanup failed")
	}
}
