package tools

import (
	"github.com/invopop/jsonschema"
)

// Descriptor describes one tool for external consumers.
type Descriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Gated       bool               `json:"gated"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

func reflectSchema(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return r.Reflect(v)
}

// Catalog lists every tool the mediator exposes, with JSON schemas for
// their parameters. The set is fixed.
func Catalog() []Descriptor {
	return []Descriptor{
		{
			Name:        ReadFileToolName,
			Description: "Read a file inside the working directory.",
			Parameters:  reflectSchema(&ReadFileParams{}),
		},
		{
			Name:        WriteFileToolName,
			Description: "Create or overwrite a file inside the working directory, returning a unified diff.",
			Parameters:  reflectSchema(&WriteFileParams{}),
		},
		{
			Name:        EditFileToolName,
			Description: "Replace the content of an existing file that was previously read, returning a unified diff.",
			Parameters:  reflectSchema(&EditFileParams{}),
		},
		{
			Name:        BashToolName,
			Description: "Run a shell command inside the working directory. Requires prior user approval of the exact command text.",
			Gated:       true,
			Parameters:  reflectSchema(&BashParams{}),
		},
	}
}
