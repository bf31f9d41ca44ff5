// Package export writes per-session design artifacts to disk: a JSON
// design file consumed by downstream model fitting, and a CSV contrast
// table for review.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/util"
)

// Exporter writes design artifacts under a single output directory.
type Exporter struct {
	outputDir string
}

func NewExporter(outputDir string) *Exporter {
	return &Exporter{outputDir: outputDir}
}

// Export writes <session>_design.json and <session>_contrasts.csv for
// one session. The directory is created on first use.
func (e *Exporter) Export(sessionId string, design *model.Design) error {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := e.writeDesign(sessionId, design); err != nil {
		return err
	}
	return e.writeContrasts(sessionId, design)
}

func (e *Exporter) writeDesign(sessionId string, design *model.Design) error {
	data, err := sonic.MarshalIndent(designDocument{
		SessionId:  sessionId,
		Conditions: design.Conditions,
		Timings:    design.Timings,
		Contrasts:  design.Contrasts,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal design for %s: %w", sessionId, err)
	}

	path := filepath.Join(e.outputDir, sessionId+"_design.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write design file: %w", err)
	}
	util.LogDebugf("Exported design: %s", path)
	return nil
}

func (e *Exporter) writeContrasts(sessionId string, design *model.Design) error {
	path := filepath.Join(e.outputDir, sessionId+"_contrasts.csv")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write contrast file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	headers := []string{"contrast", "plus_condition", "minus_condition", "plus_weight", "minus_weight"}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, c := range design.Contrasts {
		record := []string{
			c.Name,
			c.Conditions[0],
			c.Conditions[1],
			util.FormatWeight(c.Weights[0]),
			util.FormatWeight(c.Weights[1]),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	if err := w.Error(); err != nil {
		return err
	}
	util.LogDebugf("Exported contrasts: %s", path)
	return nil
}

// designDocument is the exported JSON shape. Trials are omitted; the
// timing arrays already carry everything downstream fitting needs.
type designDocument struct {
	SessionId  string                  `json:"sessionId"`
	Conditions []string                `json:"conditions"`
	Timings    map[string]model.Timing `json:"timings"`
	Contrasts  []model.Contrast        `json:"contrasts"`
}
