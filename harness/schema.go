package harness

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
)

// suiteSchema constrains manifests before they are decoded into structs.
// close() rejects misspelled keys, the usual TOML failure mode.
const suiteSchema = `
#Case: close({
	name:         string & !=""
	input?:       string
	input_file?:  string
	output?:      string
	output_file?: string
	status?:      "ok" | "bounds error" | "io error" | "timeout"
})

#Suite: close({
	name:           string & !=""
	program?:       string
	source?:        string
	opt?:           "O0" | "O1" | "O2" | "O3"
	strategy?:      "interpret" | "compile" | "both"
	max_steps?:     int & >0
	check_pointer?: bool
	check_memory?:  bool
	case: [...#Case] & [_, ...]
})
`

// validateManifest checks raw manifest bytes against the suite schema.
func validateManifest(data []byte) error {
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding TOML: %w", err)
	}

	ctx := cuecontext.New()
	compiled := ctx.CompileString(suiteSchema)
	if err := compiled.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	schema := compiled.LookupPath(cue.ParsePath("#Suite"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("resolving schema: %w", err)
	}

	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}
	return nil
}
