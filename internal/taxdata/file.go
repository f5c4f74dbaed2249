package taxdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileProvider serves tables read from a directory of YAML files. Each file
// holds a Tables document; keys must be unique across files.
type FileProvider struct {
	*Static
	dir   string
	files []string
}

// NewFileProvider loads every *.yaml and *.yml file in dir.
func NewFileProvider(dir string) (*FileProvider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read tax data dir: %w", err)
	}

	var (
		all   Tables
		files []string
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	for _, name := range files {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		t, err := DecodeTables(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		all = all.Merge(t)
	}

	static, err := NewStatic(all)
	if err != nil {
		return nil, err
	}
	return &FileProvider{Static: static, dir: dir, files: files}, nil
}

// Files lists the files that were loaded, in load order.
func (p *FileProvider) Files() []string {
	return append([]string(nil), p.files...)
}

// DecodeTables reads one YAML document. Unknown fields are rejected so typos
// in hand-edited tables surface at load time.
func DecodeTables(r io.Reader) (Tables, error) {
	var t Tables
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return Tables{}, nil
		}
		return Tables{}, fmt.Errorf("decode tax tables: %w", err)
	}
	return t, nil
}

// EncodeTables writes t as YAML.
func EncodeTables(w io.Writer, t Tables) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode tax tables: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
