package encoder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Prediction holds model output for one encoded batch.
type Prediction struct {
	BatchID  string    `json:"batchId"`
	Task     Task      `json:"task"`
	Values   []float64 `json:"values"`
	// Labels and Confidence are set for classification. A label is "Yes"
	// when the score reaches 0.5; confidence is the probability of the
	// chosen label, max(p, 1-p).
	Labels     []string     `json:"labels,omitempty"`
	Confidence []float64    `json:"confidence,omitempty"`
	Features   FeatureTable `json:"features"`
	Report     Report       `json:"report"`
}

// Service pairs the task encoders with the models that consume their output.
type Service struct {
	cfgMu    sync.RWMutex
	cfg      Config
	encoders map[Task]*Encoder

	scorersMu sync.RWMutex
	scorers   map[Task]Scorer

	logger *zap.Logger
}

// NewService constructs a service with encoders for both tasks.
func NewService(cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	return &Service{
		cfg:      cfg,
		encoders: buildEncoders(cfg.Options),
		scorers:  make(map[Task]Scorer),
		logger:   logger,
	}
}

func buildEncoders(opts Options) map[Task]*Encoder {
	return map[Task]*Encoder{
		TaskClassification: NewClassificationEncoder(opts),
		TaskRegression:     NewRegressionEncoder(opts),
	}
}

// Close releases every attached scorer.
func (s *Service) Close() error {
	s.scorersMu.Lock()
	defer s.scorersMu.Unlock()
	var errs []error
	for task, sc := range s.scorers {
		if err := sc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s scorer: %w", task, err))
		}
		delete(s.scorers, task)
	}
	return errors.Join(errs...)
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the configuration and rebuilds the encoders.
// Attached scorers are kept.
func (s *Service) UpdateConfig(cfg Config) {
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	encoders := buildEncoders(cfg.Options)
	s.cfgMu.Lock()
	s.cfg = cfg
	s.encoders = encoders
	s.cfgMu.Unlock()
}

// Encoder returns the encoder of a task.
func (s *Service) Encoder(task Task) (*Encoder, error) {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	enc, ok := s.encoders[task]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, task)
	}
	return enc, nil
}

// AttachScorer registers the model of a task. The model's feature list must
// match the encoder schema, otherwise ErrSchemaMismatch is returned.
func (s *Service) AttachScorer(task Task, sc Scorer) error {
	enc, err := s.Encoder(task)
	if err != nil {
		return err
	}
	if err := ValidateSchema(sc.Features(), enc.Schema()); err != nil {
		return fmt.Errorf("attach %s scorer: %w", task, err)
	}
	s.scorersMu.Lock()
	prev := s.scorers[task]
	s.scorers[task] = sc
	s.scorersMu.Unlock()
	if prev != nil && prev != sc {
		if err := prev.Close(); err != nil {
			s.logger.Warn("close replaced scorer", zap.String("task", string(task)), zap.Error(err))
		}
	}
	s.logger.Info("scorer attached", zap.String("task", string(task)), zap.Int("features", len(sc.Features())))
	return nil
}

// LoadScorers opens an ONNX Runtime scorer for every task with a configured model.
func (s *Service) LoadScorers() error {
	cfg := s.Config()
	for task, sc := range cfg.Scorers {
		if !sc.Enabled() {
			continue
		}
		enc, err := s.Encoder(task)
		if err != nil {
			return err
		}
		scorer, err := NewOrtScorer(sc, enc.Schema())
		if err != nil {
			return fmt.Errorf("init %s scorer: %w", task, err)
		}
		if err := s.AttachScorer(task, scorer); err != nil {
			_ = scorer.Close()
			return err
		}
	}
	return nil
}

// HasScorer reports whether a model is attached for task.
func (s *Service) HasScorer(task Task) bool {
	s.scorersMu.RLock()
	defer s.scorersMu.RUnlock()
	_, ok := s.scorers[task]
	return ok
}

// Encode encodes a batch for task and tags it with a batch id.
func (s *Service) Encode(ctx context.Context, task Task, responses []Response) (FeatureTable, Report, error) {
	if err := ctx.Err(); err != nil {
		return FeatureTable{}, Report{}, err
	}
	enc, err := s.Encoder(task)
	if err != nil {
		return FeatureTable{}, Report{}, err
	}
	batchID := uuid.NewString()
	log := s.logger.With(zap.String("batch_id", batchID), zap.String("task", string(task)))
	table, report, err := enc.Encode(responses)
	report.BatchID = batchID
	if err != nil {
		log.Warn("encode failed", zap.Error(err))
		return FeatureTable{}, report, fmt.Errorf("encode %s batch: %w", task, err)
	}
	if len(report.Ignored) > 0 {
		log.Warn("ignored unknown columns", zap.Strings("columns", report.Ignored))
	}
	if len(report.Absent) > 0 {
		log.Debug("absent columns", zap.Strings("columns", report.Absent))
	}
	log.Info("encoded batch",
		zap.Int("rows", report.Rows),
		zap.Int("features", len(table.Columns)),
		zap.Any("defaulted", report.Defaulted))
	return table, report, nil
}

// Predict encodes responses and scores them with the task's model. The
// encoded columns must match the model's training-time features exactly.
func (s *Service) Predict(ctx context.Context, task Task, responses []Response) (Prediction, error) {
	s.scorersMu.RLock()
	scorer, ok := s.scorers[task]
	s.scorersMu.RUnlock()
	if !ok {
		return Prediction{}, fmt.Errorf("no model attached for task %q", task)
	}
	table, report, err := s.Encode(ctx, task, responses)
	if err != nil {
		return Prediction{}, err
	}
	if err := ValidateSchema(scorer.Features(), table.Columns); err != nil {
		s.logger.Error("feature schema mismatch",
			zap.String("batch_id", report.BatchID),
			zap.String("task", string(task)),
			zap.Error(err))
		return Prediction{}, err
	}
	values, err := scorer.Predict(ctx, table)
	if err != nil {
		return Prediction{}, fmt.Errorf("score %s batch: %w", task, err)
	}
	if len(values) != table.Len() {
		return Prediction{}, fmt.Errorf("model returned %d predictions for %d rows", len(values), table.Len())
	}
	pred := Prediction{
		BatchID:  report.BatchID,
		Task:     task,
		Values:   values,
		Features: table,
		Report:   report,
	}
	if task == TaskClassification {
		pred.Labels = make([]string, len(values))
		pred.Confidence = make([]float64, len(values))
		for i, v := range values {
			pred.Labels[i] = treatmentLabel(v)
			pred.Confidence[i] = math.Max(v, 1-v)
		}
	}
	return pred, nil
}

func treatmentLabel(score float64) string {
	if score >= 0.5 {
		return "Yes"
	}
	return "No"
}
