package host

import (
	"fmt"
	"io"
	"strings"

	"github.com/mlemrecords/mlem/engine"
	"github.com/mlemrecords/mlem/version"
	"gopkg.in/yaml.v3"
)

// Report is the summary written at the end of a run.
type Report struct {
	Version string             `yaml:"version"`
	Blocks  int                `yaml:"blocks"`
	Active  string             `yaml:"active"`
	Load    float32            `yaml:"load"`
	Data    engine.RuntimeData `yaml:"data"`
	Log     []string           `yaml:"log,omitempty"`
}

func MakeReport(blocks int, data engine.RuntimeData, log string) Report {
	r := Report{
		Version: version.VersionOrHash,
		Blocks:  blocks,
		Active:  engine.FormatActiveTime(data.ActiveTimeMs),
		Load:    data.LoadPercent(),
		Data:    data,
	}
	if log != "" {
		r.Log = strings.Split(log, "\n")
	}
	return r
}

func (r Report) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("could not encode report: %w", err)
	}
	return enc.Close()
}
