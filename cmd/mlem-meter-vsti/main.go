//go:build plugin

package main

import (
	"github.com/mlemrecords/mlem/cmd"
	"github.com/mlemrecords/mlem/engine"
	"pipelined.dev/audio/vst2"
)

func init() {
	cmd.Plugin{
		ID:       0x6d6c6d6d, // "mlmm"
		Name:     "mlem meter",
		Variant:  engine.VariantMeter,
		Category: vst2.PluginCategoryAnalysis,
		Inputs:   2,
		Outputs:  2,
	}.Register()
}

func main() {}
