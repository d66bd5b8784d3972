package templates

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/deckforge/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.json
var builtinFS embed.FS

// Catalog loads template definitions by name. Lookup returns
// ErrTemplateNotFound when the catalog has no entry for name.
type Catalog interface {
	Lookup(ctx context.Context, name string) (*domain.Template, error)
}

// Lister is implemented by catalogs that can enumerate their entries.
type Lister interface {
	Names() ([]string, error)
}

// extensions are tried in order for each lookup.
var extensions = []string{".json", ".yaml", ".yml"}

// FSCatalog reads "<name>.json", "<name>.yaml" or "<name>.yml" from a file system.
type FSCatalog struct {
	fsys     fs.FS
	validate *validator.Validate
}

// NewFSCatalog creates a catalog over fsys.
func NewFSCatalog(fsys fs.FS) *FSCatalog {
	return &FSCatalog{fsys: fsys, validate: newValidator()}
}

// NewDirCatalog creates a catalog over the files in dir.
func NewDirCatalog(dir string) *FSCatalog {
	return NewFSCatalog(os.DirFS(dir))
}

// BuiltinCatalog returns the catalog of templates compiled into the binary.
func BuiltinCatalog() *FSCatalog {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at build time
		panic(fmt.Sprintf("templates: builtin catalog: %v", err))
	}
	return NewFSCatalog(sub)
}

// Lookup implements Catalog.
func (c *FSCatalog) Lookup(ctx context.Context, name string) (*domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, ext := range extensions {
		file := name + ext
		data, err := fs.ReadFile(c.fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", file, err)
		}
		return c.decode(name, file, data)
	}

	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

// Names lists the template names available in the catalog.
func (c *FSCatalog) Names() ([]string, error) {
	entries, err := fs.ReadDir(c.fsys, ".")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		base := strings.TrimSuffix(e.Name(), ext)
		if !isTemplateExt(ext) || seen[base] || !domain.ValidTemplateName(base) {
			continue
		}
		seen[base] = true
		names = append(names, base)
	}
	return names, nil
}

func isTemplateExt(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// templateFile is the on-disk shape of a template entry.
type templateFile struct {
	Name        string      `json:"name"        yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Colors      *colorsFile `json:"colors"      yaml:"colors"      validate:"required"`
	Font        string      `json:"font"        yaml:"font"        validate:"required"`
}

type colorsFile struct {
	Background string `json:"background" yaml:"background" validate:"required,hexcolor6"`
	Text       string `json:"text"       yaml:"text"       validate:"required,hexcolor6"`
	Title      string `json:"title"      yaml:"title"      validate:"required,hexcolor6"`
	Accent     string `json:"accent"     yaml:"accent"     validate:"required,hexcolor6"`
}

func (c *FSCatalog) decode(name, file string, data []byte) (*domain.Template, error) {
	var raw templateFile
	var err error
	if strings.HasSuffix(file, ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, file, err)
	}

	if err := c.validate.Struct(raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, file, err)
	}

	t := &domain.Template{
		Name:        name,
		Description: raw.Description,
		Colors: domain.TemplateColors{
			Background: raw.Colors.Background,
			Text:       raw.Colors.Text,
			Title:      raw.Colors.Title,
			Accent:     raw.Colors.Accent,
		}.Normalized(),
		Font: strings.TrimSpace(raw.Font),
	}
	return t, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return domain.IsHexColor(fl.Field().String())
	})
	return v
}

// ChainCatalog consults catalogs in order and returns the first entry found.
// An invalid entry in an earlier catalog is reported rather than skipped.
type ChainCatalog []Catalog

// Lookup implements Catalog.
func (c ChainCatalog) Lookup(ctx context.Context, name string) (*domain.Template, error) {
	for _, cat := range c {
		t, err := cat.Lookup(ctx, name)
		if errors.Is(err, ErrTemplateNotFound) {
			continue
		}
		return t, err
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

// Names lists the entries of every listable catalog in the chain, each name
// once, in chain order.
func (c ChainCatalog) Names() ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, cat := range c {
		l, ok := cat.(Lister)
		if !ok {
			continue
		}
		list, err := l.Names()
		if err != nil {
			return nil, err
		}
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}
