// Package archive keeps a copy of every compiled schematic next to a
// meta.json describing the circuit it came from.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type BuildMeta struct {
	Circuit   string `json:"circuit"`
	Digest    string `json:"digest"`
	RunID     string `json:"run_id,omitempty"`
	Blocks    int    `json:"blocks"`
	Schematic string `json:"schematic"`
	CreatedAt string `json:"created_at"`
}

// ArchiveBuild copies schematicPath into `archiveDir/builds/<circuit>/<digest[:12]>/`.
// Rebuilding an unchanged circuit overwrites the same entry.
func ArchiveBuild(archiveDir, schematicPath string, meta BuildMeta) (archivedPath string, err error) {
	if meta.Circuit == "" || len(meta.Digest) < 12 {
		return "", fmt.Errorf("archive: circuit name and digest are required")
	}
	dir := filepath.Join(archiveDir, "builds", safeName(meta.Circuit), meta.Digest[:12])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, filepath.Base(schematicPath))
	if err := copyFile(schematicPath, dst); err != nil {
		return "", err
	}

	meta.Schematic = filepath.Base(dst)
	if meta.CreatedAt == "" {
		meta.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

// ReadMeta loads the meta.json sitting next to an archived schematic.
func ReadMeta(archivedPath string) (BuildMeta, error) {
	var m BuildMeta
	b, err := os.ReadFile(filepath.Join(filepath.Dir(archivedPath), "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
