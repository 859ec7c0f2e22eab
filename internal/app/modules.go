package app

import (
	"github.com/vk/contentspec/internal/registry"
	"github.com/vk/contentspec/internal/spec"
	"github.com/vk/contentspec/modules/item"
	"github.com/vk/contentspec/modules/unit"
)

// coreModules is the definitive list of all spawner modules that are
// compiled into the specctl binary.
var coreModules = []registry.Module[spec.Factory]{
	&item.Module{},
	&unit.Module{},
}
