package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/san-kum/fordyn/internal/vehicle"
)

// CurrentSchemaVersion tags every record written by this build. Decoding a
// record with any other version fails rather than guessing.
const CurrentSchemaVersion = 1

// ErrVersionMismatch flags a record written by an incompatible schema.
var ErrVersionMismatch = errors.New("record version mismatch")

// EpochLosses is one epoch of training history, total and per loss term.
type EpochLosses struct {
	Epoch      int                `json:"epoch"`
	Train      map[string]float64 `json:"train"`
	Val        map[string]float64 `json:"val"`
	TrainTotal float64            `json:"train_total"`
	ValTotal   float64            `json:"val_total"`
}

// Run records one training run: hyperparameters, data provenance, and the
// full per-epoch loss history.
type Run struct {
	SchemaVersion int            `json:"schema_version"`
	ID            string         `json:"id"`
	Created       time.Time      `json:"created"`
	Dataset       string         `json:"dataset"`
	TrainSamples  int            `json:"train_samples"`
	ValSamples    int            `json:"val_samples"`
	Optimizer     string         `json:"optimizer"`
	Epochs        int            `json:"epochs"`
	BatchSize     int            `json:"batch_size"`
	LR            float64        `json:"lr"`
	Seed          int64          `json:"seed"`
	Config        vehicle.Config `json:"config"`
	History       []EpochLosses  `json:"history"`
	FinalTrain    float64        `json:"final_train"`
	FinalVal      float64        `json:"final_val"`
	Seconds       float64        `json:"seconds"`
}

// Checkpoint is a saved weight set together with the configuration that
// shaped it, so a model can be rebuilt and reloaded without guesswork.
type Checkpoint struct {
	SchemaVersion int                  `json:"schema_version"`
	RunID         string               `json:"run_id"`
	Saved         time.Time            `json:"saved"`
	Config        vehicle.Config       `json:"config"`
	Weights       map[string][]float64 `json:"weights"`
}

func EncodeRun(r Run) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, err
	}
	if run.SchemaVersion != CurrentSchemaVersion {
		return Run{}, ErrVersionMismatch
	}
	return run, nil
}

func EncodeCheckpoint(c Checkpoint) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCheckpoint(data []byte) (Checkpoint, error) {
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, err
	}
	if cp.SchemaVersion != CurrentSchemaVersion {
		return Checkpoint{}, ErrVersionMismatch
	}
	return cp, nil
}
