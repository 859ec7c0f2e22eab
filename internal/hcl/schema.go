package hcl

import "github.com/hashicorp/hcl/v2"

// manifestRoot is the top-level structure of a layer manifest file.
//
//	save_layer = "save"
//
//	layer "core" {
//	  path = "content/core"
//	}
//
//	layer "save" {
//	  path       = "${env.HOME}/.game/save"
//	  depends_on = ["core"]
//	}
type manifestRoot struct {
	SaveLayer *string       `hcl:"save_layer,optional"`
	Layers    []*layerBlock `hcl:"layer,block"`
}

// layerBlock represents a `layer` block.
type layerBlock struct {
	Name      string         `hcl:"name,label"`
	Path      hcl.Expression `hcl:"path"`
	DependsOn []string       `hcl:"depends_on,optional"`
	Exclude   []string       `hcl:"exclude,optional"`
	ReadOnly  bool           `hcl:"read_only,optional"`
}
