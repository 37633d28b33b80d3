//go:build plugin

package main

import (
	"github.com/mlemrecords/mlem/cmd"
	"github.com/mlemrecords/mlem/engine"
	"pipelined.dev/audio/vst2"
)

func init() {
	cmd.Plugin{
		ID:       0x6d6c6d64, // "mlmd"
		Name:     "mlem data",
		Variant:  engine.VariantData,
		Category: vst2.PluginCategoryGenerator,
		Inputs:   0,
		Outputs:  2,
	}.Register()
}

func main() {}
