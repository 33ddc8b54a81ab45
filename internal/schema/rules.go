package schema

import (
	"fmt"
	"strings"

	"github.com/akave-ai/logwatch/internal/model"
)

// Kind is the JSON shape a field must have.
type Kind int

const (
	KindString Kind = iota
	KindDateTime
	KindEnum
	KindIP
	KindInteger
	KindObject
	KindArray
	KindOpenObject
)

// Field is one declared key of an Object.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Nullable bool

	// MaxLen caps strings in code points; longer values are truncated.
	MaxLen int
	Enum   []string
	Min    int64
	Max    int64

	// MinItems applies to non-null arrays.
	MinItems int
	// MaxKeys applies to open objects.
	MaxKeys int

	Object *Object
	Elem   *Object
}

// Object is a closed set of fields: keys not declared are rejected.
type Object struct {
	Fields []Field
}

func (o *Object) field(name string) (Field, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Profile selects the schema variant for an admission route.
type Profile string

const (
	// ProfileIngest is the durable-write variant: sequences may be null but
	// never empty.
	ProfileIngest Profile = "ingest"
	// ProfileEntrypoint is the dispatch variant: it adds type and method and
	// requires sequences to be present, possibly empty.
	ProfileEntrypoint Profile = "entrypoint"
)

const (
	maxShort   = 100
	maxDefault = 1000
	maxTrace   = 10000
	maxInteger = 99999999
	maxContext = 100
)

var (
	ingestSchema     = buildSchema(ProfileIngest)
	entrypointSchema = buildSchema(ProfileEntrypoint)
)

// SchemaFor returns the rule set of a profile.
func SchemaFor(p Profile) (*Object, error) {
	switch p {
	case ProfileIngest:
		return ingestSchema, nil
	case ProfileEntrypoint:
		return entrypointSchema, nil
	default:
		return nil, fmt.Errorf("unknown schema profile %q", p)
	}
}

// ParseProfile maps a configuration value to a Profile.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	if _, err := SchemaFor(p); err != nil {
		return "", err
	}
	return p, nil
}

func str(name string, max int) Field {
	return Field{Name: name, Kind: KindString, Required: true, MaxLen: max}
}

func integer(name string) Field {
	return Field{Name: name, Kind: KindInteger, Required: true, Min: 1, Max: maxInteger}
}

func pairs(name string, p Profile) Field {
	return sequence(name, p, &Object{Fields: []Field{
		str("key", maxDefault),
		str("value", maxDefault),
	}})
}

func sequence(name string, p Profile, elem *Object) Field {
	f := Field{Name: name, Kind: KindArray, Required: true, Elem: elem}
	if p == ProfileIngest {
		f.Nullable = true
		f.MinItems = 1
	}
	return f
}

func buildSchema(p Profile) *Object {
	levels := make([]string, 0, len(model.Levels))
	for _, l := range model.Levels {
		levels = append(levels, string(l))
	}

	request := &Object{Fields: []Field{str("url", maxDefault)}}
	ipName := "ip"
	if p == ProfileEntrypoint {
		request.Fields = append(request.Fields, str("method", maxShort))
		ipName = "client_ip"
	}
	request.Fields = append(request.Fields,
		Field{Name: ipName, Kind: KindIP},
		pairs("query_strings", p),
		pairs("body_fields", p),
		pairs("headers", p),
		sequence("files", p, &Object{Fields: []Field{
			str("name", maxDefault),
			str("mimeType", maxShort),
			integer("size"),
		}}),
	)

	exception := &Object{Fields: []Field{
		str("message", maxDefault),
		str("code", maxShort),
		str("file", maxDefault),
		integer("line"),
		str("trace_string", maxTrace),
	}}

	root := &Object{Fields: []Field{
		{Name: "time", Kind: KindDateTime, Required: true},
	}}
	if p == ProfileEntrypoint {
		root.Fields = append(root.Fields, Field{Name: "type", Kind: KindString, MaxLen: maxShort})
	}
	root.Fields = append(root.Fields,
		str("message", maxDefault),
		Field{Name: "level", Kind: KindEnum, Required: true, Enum: levels},
		Field{Name: "request", Kind: KindObject, Required: true, Nullable: true, Object: request},
		Field{Name: "exception", Kind: KindObject, Required: true, Nullable: true, Object: exception},
		Field{Name: "context", Kind: KindOpenObject, Required: true, Nullable: true, MaxKeys: maxContext},
	)
	return root
}
