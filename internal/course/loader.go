package course

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/courses.json
var builtinCourses []byte

// catalogFile is the on-disk shape shared by the JSON and YAML loaders
type catalogFile struct {
	Courses  []Course `json:"courses" yaml:"courses"`
	Settings Settings `json:"settings" yaml:"settings"`
}

// Builtin returns the embedded default catalog
func Builtin() *Catalog {
	c, err := LoadJSON(bytes.NewReader(builtinCourses))
	if err != nil {
		// The embedded file is part of the binary; failing here is a build bug
		panic(fmt.Sprintf("builtin course catalog: %v", err))
	}
	return c
}

// LoadJSON reads a catalog in courses_data.json format
func LoadJSON(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode course json: %w", err)
	}
	if len(f.Courses) == 0 {
		return nil, fmt.Errorf("course file has no courses")
	}
	return NewCatalog(f.Courses, f.Settings), nil
}

// LoadYAML reads a catalog from YAML with the same layout as the JSON format
func LoadYAML(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode course yaml: %w", err)
	}
	if len(f.Courses) == 0 {
		return nil, fmt.Errorf("course file has no courses")
	}
	return NewCatalog(f.Courses, f.Settings), nil
}

// LoadFile picks a loader by file extension. Text files become a single
// course named after the file.
func LoadFile(path string) (*Catalog, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".xlsx" {
		return LoadXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open course file: %w", err)
	}
	defer f.Close()

	switch ext {
	case ".json":
		return LoadJSON(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".txt", "":
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		c, err := LoadText(name, f)
		if err != nil {
			return nil, err
		}
		return NewCatalog([]Course{c}, Settings{DefaultCourse: name}), nil
	default:
		return nil, fmt.Errorf("unsupported course file format: %s", ext)
	}
}
