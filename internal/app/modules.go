package app

import (
	"github.com/specialistvlad/stagegrid/internal/registry"
	"github.com/specialistvlad/stagegrid/modules/copy_tensors"
	"github.com/specialistvlad/stagegrid/modules/dummy"
	"github.com/specialistvlad/stagegrid/modules/external_source"
	"github.com/specialistvlad/stagegrid/modules/make_contiguous"
)

// coreModules is the definitive list of all modules that are compiled into
// the stagegrid binary.
var coreModules = []registry.Module{
	&external_source.Module{},
	&copy_tensors.Module{},
	&make_contiguous.Module{},
	&dummy.Module{},
}
