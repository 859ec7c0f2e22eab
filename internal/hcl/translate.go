package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/contentspec/internal/config"
	"github.com/vk/contentspec/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateLayer converts a decoded layer block into the format-agnostic
// config.LayerDefinition. Relative paths are resolved against dir.
func (l *Loader) translateLayer(ctx context.Context, block *layerBlock, dir string, evalCtx *hcl.EvalContext) (*config.LayerDefinition, error) {
	logger := ctxlog.FromContext(ctx)

	// gohcl decodes an absent expression attribute as a static null.
	if v, diags := block.Path.Value(nil); !diags.HasErrors() && v.IsNull() {
		return nil, fmt.Errorf("layer %q: missing required argument \"path\"", block.Name)
	}
	path, err := evalString(block.Path, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("layer %q: path: %w", block.Name, err)
	}
	if path == "" {
		return nil, fmt.Errorf("layer %q: path must not be empty", block.Name)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	seen := make(map[string]struct{}, len(block.DependsOn))
	for _, dep := range block.DependsOn {
		if dep == block.Name {
			return nil, fmt.Errorf("layer %q depends on itself", block.Name)
		}
		if _, dup := seen[dep]; dup {
			return nil, fmt.Errorf("layer %q lists dependency %q twice", block.Name, dep)
		}
		seen[dep] = struct{}{}
	}

	logger.Debug("Translated layer.", "layer", block.Name, "path", path, "depends_on", block.DependsOn)
	return &config.LayerDefinition{
		Name:      block.Name,
		Path:      filepath.Clean(path),
		DependsOn: block.DependsOn,
		Exclude:   block.Exclude,
		ReadOnly:  block.ReadOnly,
	}, nil
}

// evalString evaluates expr and converts the result to a known string.
func evalString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() || !val.IsKnown() {
		return "", fmt.Errorf("value must be a known, non-null string")
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	return str.AsString(), nil
}
