package persist

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Codec converts a snapshot to and from bytes
type Codec struct {
	Name      string
	Marshal   func(Snapshot) ([]byte, error)
	Unmarshal func([]byte, *Snapshot) error
}

var (
	JSON = Codec{
		Name: "json",
		Marshal: func(s Snapshot) ([]byte, error) {
			return json.MarshalIndent(s, "", "  ")
		},
		Unmarshal: func(b []byte, s *Snapshot) error {
			return json.Unmarshal(b, s)
		},
	}

	YAML = Codec{
		Name: "yaml",
		Marshal: func(s Snapshot) ([]byte, error) {
			return yaml.Marshal(s)
		},
		Unmarshal: func(b []byte, s *Snapshot) error {
			return yaml.Unmarshal(b, s)
		},
	}
)

// File keeps a snapshot in a single document on disk
type File struct {
	path  string
	codec Codec
}

// NewFile creates a file store. nothing is touched until Load or Save.
func NewFile(path string, codec Codec) *File {
	return &File{path: path, codec: codec}
}

func (f *File) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, wrap("load", f.path, err)
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, wrap("load", f.path, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, wrap("load", f.path, err)
	}

	var snap Snapshot
	if err := f.codec.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, wrap("decode "+f.codec.Name, f.path, err)
	}
	return snap, nil
}

// Save writes to a temporary file next to the target and renames it into
// place, so a failed save leaves the previous document intact.
func (f *File) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return wrap("save", f.path, err)
	}
	if snap.Cells == nil {
		snap.Cells = []Record{}
	}

	data, err := f.codec.Marshal(snap)
	if err != nil {
		return wrap("encode "+f.codec.Name, f.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return wrap("save", f.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return wrap("save", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return wrap("save", f.path, err)
	}
	return wrap("save", f.path, os.Rename(tmp.Name(), f.path))
}

func (f *File) Close() error {
	return nil
}
