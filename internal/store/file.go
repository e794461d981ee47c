package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/workconnect/session/internal/token"
	"gopkg.in/yaml.v3"
)

// File keeps the session in a YAML document so it survives process restarts.
// Writes go to a temp file that is renamed into place.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file-backed store at path. The file is created lazily.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultFilePath is $XDG_CONFIG_HOME/workconnect/session.yaml or the
// platform equivalent.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(dir, "workconnect", "session.yaml"), nil
}

type fileDocument struct {
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
	ReturnURL    string `yaml:"returnUrl,omitempty"`
}

func (f *File) load() (fileDocument, error) {
	var doc fileDocument
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("failed to read session file: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse session file: %w", err)
	}
	return doc, nil
}

func (f *File) write(doc fileDocument) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (f *File) update(fn func(*fileDocument)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	fn(&doc)
	return f.write(doc)
}

func (f *File) Save(_ context.Context, pair token.Pair) error {
	return f.update(func(d *fileDocument) {
		d.AccessToken = pair.AccessToken
		d.RefreshToken = pair.RefreshToken
	})
}

func (f *File) SaveAccessToken(_ context.Context, accessToken string) error {
	return f.update(func(d *fileDocument) {
		d.AccessToken = accessToken
	})
}

func (f *File) Read(_ context.Context) (token.Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return token.Pair{}, err
	}
	return token.Pair{AccessToken: doc.AccessToken, RefreshToken: doc.RefreshToken}, nil
}

func (f *File) Clear(_ context.Context) error {
	return f.update(func(d *fileDocument) {
		*d = fileDocument{}
	})
}

func (f *File) SetReturnURL(_ context.Context, url string) error {
	return f.update(func(d *fileDocument) {
		d.ReturnURL = url
	})
}

func (f *File) ConsumeReturnURL(_ context.Context) (string, error) {
	var url string
	err := f.update(func(d *fileDocument) {
		url = d.ReturnURL
		d.ReturnURL = ""
	})
	return url, err
}
