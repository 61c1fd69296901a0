package config

import (
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// schemaSource constrains user configuration files. Defaults marked with *
// apply when the user file leaves the field out.
const schemaSource = `
{
	product: string & !=""
	mainBranch: string | *"main"
	downloadBase: string | *""
	buildImages: bool | *false

	github: {
		owner: string & !=""
		repo: string & !=""
	}

	storage: {
		backend: "s3" | "minio" | *"s3"
		bucket: string | *""
		region: string | *""
		endpoint: string | *""
		forcePathStyle: bool | *false
	}
}
`

// Load reads and validates the configuration file at path.
//
// The file is unified with the embedded schema; schema violations and
// missing required fields surface as CodeInvalidConfig errors with the CUE
// diagnostic attached.
//
// Returns:
//   - The decoded configuration on success.
//
// Errors:
//   - CodeInvalidConfig when the file cannot be read, parsed, or does not
//     satisfy the schema.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"failed to read configuration file", map[string]interface{}{"path": path})
	}
	return Parse(data, path)
}

// Parse decodes raw CUE configuration bytes. The name is used in CUE
// diagnostics only.
func Parse(data []byte, name string) (*Config, error) {
	cuectx := cuecontext.New()

	schema := cuectx.CompileString(schemaSource, cue.Filename("forge-release-schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "embedded configuration schema is invalid")
	}

	value := cuectx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"failed to parse configuration", map[string]interface{}{"path": name})
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"configuration does not satisfy the schema", map[string]interface{}{"path": name})
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"failed to decode configuration", map[string]interface{}{"path": name})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
