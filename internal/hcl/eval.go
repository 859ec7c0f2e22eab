package hcl

import (
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// evalContext exposes `env.<NAME>` and `manifest_dir` to manifest
// expressions.
func evalContext(manifestDir string, environ []string) *hcl.EvalContext {
	envVals := make(map[string]cty.Value, len(environ))
	for _, e := range environ {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 && pair[0] != "" {
			envVals[pair[0]] = cty.StringVal(pair[1])
		}
	}

	envObj := cty.EmptyObjectVal
	if len(envVals) > 0 {
		envObj = cty.ObjectVal(envVals)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":          envObj,
			"manifest_dir": cty.StringVal(manifestDir),
		},
	}
}

func processEnv() []string {
	return os.Environ()
}
