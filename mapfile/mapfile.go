// Package mapfile loads mold mappings from declarative YAML definitions.
//
//	mappings:
//	  user:
//	    key_transform: snake_to_camel
//	    strict: true
//	    keys:
//	      - from: user_id
//	        to: id
//	    fields:
//	      email:
//	        transform: trim|lower
//	      fullName:
//	        computed: true
//	        expr: first + " " + last
//	      role:
//	        default: member
//	      password:
//	        ignore: true
//
// Transforms are named and may be piped: trim, lower, upper, split:<sep>,
// join:<sep>, mask:<kind> and hash:<sha256|sha512|bcrypt|argon2>.
package mapfile

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/zoobzio/mold"
	"github.com/zoobzio/mold/transforms"
)

var (
	// ErrUnknownMapping indicates a mapping name absent from the file.
	ErrUnknownMapping = errors.New("unknown mapping")

	// ErrUnknownKeyTransform indicates a key_transform name with no
	// registered function.
	ErrUnknownKeyTransform = errors.New("unknown key transform")

	// ErrUnknownTransform indicates a field transform name with no
	// registered function.
	ErrUnknownTransform = errors.New("unknown transform")
)

// File is a set of named mapping definitions.
type File struct {
	Mappings map[string]Definition `koanf:"mappings"`
}

// Definition declares one mapping.
type Definition struct {
	KeyTransform    string                     `koanf:"key_transform"`
	Strict          *bool                      `koanf:"strict"`
	IncludeUnmapped *bool                      `koanf:"include_unmapped"`
	Keys            []KeyDefinition            `koanf:"keys"`
	Fields          map[string]FieldDefinition `koanf:"fields"`
}

// KeyDefinition renames a source key.
type KeyDefinition struct {
	From string `koanf:"from"`
	To   string `koanf:"to"`
}

// FieldDefinition customizes one target field.
type FieldDefinition struct {
	From      string `koanf:"from"`
	Ignore    bool   `koanf:"ignore"`
	Computed  bool   `koanf:"computed"`
	Expr      string `koanf:"expr"`
	Transform string `koanf:"transform"`
	Default   any    `koanf:"default"`
}

// Load reads mapping definitions from a YAML file.
func Load(path string) (*File, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return decode(k)
}

// FromMap reads mapping definitions already held in memory, shaped like the
// YAML document.
func FromMap(raw map[string]any) (*File, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(raw, "."), nil); err != nil {
		return nil, err
	}
	return decode(k)
}

func decode(k *koanf.Koanf) (*File, error) {
	var f File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "koanf",
		Result:           &f,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(k.Raw()); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	return &f, nil
}

// Names returns the defined mapping names in order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Mappings))
	for name := range f.Mappings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mapping builds the named definition into a mold.Mapping.
func (f *File) Mapping(name string) (mold.Mapping, error) {
	def, ok := f.Mappings[name]
	if !ok {
		return mold.Mapping{}, fmt.Errorf("%w: %q", ErrUnknownMapping, name)
	}
	return def.Mapping()
}

// Mapping builds the definition into a mold.Mapping.
func (d Definition) Mapping() (mold.Mapping, error) {
	b := mold.NewBuilder()

	if d.KeyTransform != "" {
		fn, ok := transforms.KeyTransforms[d.KeyTransform]
		if !ok {
			return mold.Mapping{}, fmt.Errorf("%w: %q", ErrUnknownKeyTransform, d.KeyTransform)
		}
		b.KeyTransform(fn)
	}
	if d.Strict != nil {
		b.Strict(*d.Strict)
	}
	if d.IncludeUnmapped != nil {
		b.IncludeUnmapped(*d.IncludeUnmapped)
	}

	for _, km := range d.Keys {
		b.KeyMapping(km.From, km.To)
	}

	for name, fd := range d.Fields {
		fm := mold.FieldMapping{
			From:     fd.From,
			Ignore:   fd.Ignore,
			Computed: fd.Computed,
			Expr:     fd.Expr,
			Default:  fd.Default,
		}
		if fd.Transform != "" {
			fn, err := pipeline(fd.Transform)
			if err != nil {
				return mold.Mapping{}, fmt.Errorf("field %s: %w", name, err)
			}
			fm.Transform = fn
		}
		b.Field(name, fm)
	}

	return b.Build(), nil
}

// Bind registers the named mapping for T on e.
func Bind[T any](e *mold.Engine, f *File, name string) error {
	m, err := f.Mapping(name)
	if err != nil {
		return err
	}
	e.Register(reflect.TypeFor[T](), m)
	return nil
}

// pipeline parses "trim|lower|mask:email" into a chained transform.
func pipeline(chain string) (mold.FieldTransform, error) {
	var steps []mold.FieldTransform
	for _, part := range strings.Split(chain, "|") {
		step, err := named(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if len(steps) == 1 {
		return steps[0], nil
	}
	return transforms.Chain(steps...), nil
}

func named(step string) (mold.FieldTransform, error) {
	name, arg, _ := strings.Cut(step, ":")
	switch name {
	case "trim":
		return transforms.Trim(), nil
	case "lower":
		return transforms.Lower(), nil
	case "upper":
		return transforms.Upper(), nil
	case "split":
		return transforms.Split(orDefault(arg, ",")), nil
	case "join":
		return transforms.Join(orDefault(arg, ",")), nil
	case "mask":
		return transforms.Mask(transforms.MaskKind(arg)), nil
	case "hash":
		switch arg {
		case "sha256":
			return transforms.Hash(transforms.SHA256()), nil
		case "sha512":
			return transforms.Hash(transforms.SHA512()), nil
		case "bcrypt":
			return transforms.Hash(transforms.Bcrypt(0)), nil
		case "argon2":
			return transforms.Hash(transforms.Argon2()), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, step)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
