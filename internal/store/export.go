package store

import (
	"encoding/json"
	"os"
)

// ExportData is the on-disk shape of a fully exported run.
type ExportData struct {
	Run        Run         `json:"run"`
	Checkpoint *Checkpoint `json:"checkpoint,omitempty"`
}

// ExportJSON writes a run, and its checkpoint when present, as indented
// JSON for offline analysis.
func ExportJSON(path string, run Run, cp *Checkpoint) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: run, Checkpoint: cp})
}

// ExportJSONStdout writes the same document to standard output.
func ExportJSONStdout(run Run, cp *Checkpoint) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: run, Checkpoint: cp})
}
