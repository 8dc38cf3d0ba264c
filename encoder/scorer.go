package encoder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Scorer is a fitted model that consumes encoded features. Features returns
// the columns, in order, the model was trained on.
type Scorer interface {
	Features() []string
	Predict(ctx context.Context, table FeatureTable) ([]float64, error)
	Close() error
}

var ortInitMu sync.Mutex

func initRuntime(sharedLib string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if sharedLib != "" {
		ort.SetSharedLibraryPath(sharedLib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("init onnxruntime: %w", err)
	}
	return nil
}

// OrtScorer runs an ONNX model exported from the training pipeline. The
// model takes one float32 [rows, features] input.
type OrtScorer struct {
	mu       sync.Mutex
	session  *ort.DynamicAdvancedSession
	cfg      ScorerConfig
	features []string
}

// NewOrtScorer loads the model. features is used when cfg.Features is empty.
func NewOrtScorer(cfg ScorerConfig, features []string) (*OrtScorer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("model path is required")
	}
	if len(cfg.Features) > 0 {
		features = cfg.Features
	}
	if len(features) == 0 {
		return nil, errors.New("model feature list is empty")
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output"
	}
	if cfg.OutputWidth <= 0 {
		cfg.OutputWidth = 1
	}
	if err := initRuntime(cfg.OrtDLL); err != nil {
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", filepath.Base(cfg.ModelPath), err)
	}
	return &OrtScorer{
		session:  session,
		cfg:      cfg,
		features: cloneStrings(features),
	}, nil
}

// Features returns the training-time feature list.
func (o *OrtScorer) Features() []string {
	return cloneStrings(o.features)
}

// Predict scores every row of table. The table must carry exactly the
// model's features in order.
func (o *OrtScorer) Predict(ctx context.Context, table FeatureTable) ([]float64, error) {
	if o == nil || o.session == nil {
		return nil, errors.New("scorer is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateSchema(o.features, table.Columns); err != nil {
		return nil, err
	}
	rows := len(table.Rows)
	if rows == 0 {
		return nil, nil
	}
	width := len(o.features)
	data := make([]float32, 0, rows*width)
	for _, row := range table.Rows {
		for _, v := range row {
			data = append(data, float32(v))
		}
	}
	input, err := ort.NewTensor(ort.NewShape(int64(rows), int64(width)), data)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(rows), int64(o.cfg.OutputWidth)))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	o.mu.Lock()
	err = o.session.Run([]ort.Value{input}, []ort.Value{output})
	o.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}
	raw := output.GetData()
	preds := make([]float64, rows)
	for i := range preds {
		preds[i] = float64(raw[i*o.cfg.OutputWidth+o.cfg.OutputWidth-1])
	}
	return preds, nil
}

// Close releases ORT resources.
func (o *OrtScorer) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}
