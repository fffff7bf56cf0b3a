package game

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sortcha/sortcha/data"
)

// File is the YAML shape of a game catalog document.
type File struct {
	Games []*Descriptor `yaml:"games"`
}

// LoadCatalog parses and validates a catalog document. fname is only used in
// error messages.
func LoadCatalog(fin io.Reader, fname string) (*Catalog, error) {
	var file File

	dec := yaml.NewDecoder(fin)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("can't parse game catalog %s: %w", fname, err)
	}

	if len(file.Games) == 0 {
		return nil, fmt.Errorf("game catalog %s: %w: no games defined", fname, ErrBadDescriptor)
	}

	result := NewCatalog()

	var errs []error
	for _, d := range file.Games {
		if err := result.Register(d); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) != 0 {
		return nil, fmt.Errorf("can't validate game catalog %s: %w", fname, errors.Join(errs...))
	}

	return result, nil
}

// LoadCatalogOrDefault reads the catalog from fname, or from the embedded
// default catalog when fname is empty.
func LoadCatalogOrDefault(fname string) (*Catalog, error) {
	var fin io.ReadCloser
	var err error

	if fname != "" {
		fin, err = os.Open(fname)
		if err != nil {
			return nil, fmt.Errorf("can't open game catalog %s: %w", fname, err)
		}
	} else {
		fname = "(data)/games.yaml"
		fin, err = data.Games.Open("games.yaml")
		if err != nil {
			return nil, fmt.Errorf("[unexpected] can't open builtin game catalog %s: %w", fname, err)
		}
	}

	defer func(fin io.ReadCloser) {
		if err := fin.Close(); err != nil {
			slog.Error("failed to close game catalog", "file", fname, "err", err)
		}
	}(fin)

	return LoadCatalog(fin, fname)
}
