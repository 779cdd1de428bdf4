package loader

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/gogpu/bowtie/render"
)

// ErrNoEntryPoint is returned for WGSL without a vertex or fragment entry.
var ErrNoEntryPoint = errors.New("loader: shader entry point missing")

var (
	vertexEntryRE   = regexp.MustCompile(`@vertex\s+fn\s+(\w+)`)
	fragmentEntryRE = regexp.MustCompile(`@fragment\s+fn\s+(\w+)`)
	uniformVarRE    = regexp.MustCompile(`var<uniform>\s+(\w+)\s*:\s*(\w+)`)
	structRE        = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	fieldNameRE     = regexp.MustCompile(`(\w+)\s*:`)
	lineCommentRE   = regexp.MustCompile(`//[^\n]*`)
)

// ParseShader scans WGSL source for its entry points and uniforms. A
// uniform of struct type contributes its member names, in declaration
// order; any other uniform contributes its variable name.
func ParseShader(name string, src []byte) (render.ShaderDesc, error) {
	code := lineCommentRE.ReplaceAll(src, nil)
	desc := render.ShaderDesc{Name: name}

	m := vertexEntryRE.FindSubmatch(code)
	if m == nil {
		return desc, fmt.Errorf("%w: %s has no @vertex function", ErrNoEntryPoint, name)
	}
	desc.VertexEntry = string(m[1])
	m = fragmentEntryRE.FindSubmatch(code)
	if m == nil {
		return desc, fmt.Errorf("%w: %s has no @fragment function", ErrNoEntryPoint, name)
	}
	desc.FragmentEntry = string(m[1])

	structs := map[string][]string{}
	for _, s := range structRE.FindAllSubmatch(code, -1) {
		var fields []string
		for _, f := range fieldNameRE.FindAllSubmatch(s[2], -1) {
			fields = append(fields, string(f[1]))
		}
		structs[string(s[1])] = fields
	}
	for _, u := range uniformVarRE.FindAllSubmatch(code, -1) {
		if fields, ok := structs[string(u[2])]; ok {
			desc.UniformNames = append(desc.UniformNames, fields...)
			continue
		}
		desc.UniformNames = append(desc.UniformNames, string(u[1]))
	}
	return desc, nil
}
