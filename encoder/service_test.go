package encoder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"yashubustudio/surveyencoder/encoder"
)

type fakeScorer struct {
	features []string
	score    float64
	closed   bool
}

func (f *fakeScorer) Features() []string { return f.features }

func (f *fakeScorer) Predict(_ context.Context, table encoder.FeatureTable) ([]float64, error) {
	out := make([]float64, table.Len())
	for i := range out {
		out[i] = f.score
	}
	return out, nil
}

func (f *fakeScorer) Close() error {
	f.closed = true
	return nil
}

// completeResponse answers every feature of enc's schema.
func completeResponse(enc *encoder.Encoder) encoder.Response {
	r := encoder.Response{}
	for _, name := range enc.Schema() {
		r[name] = "Yes"
	}
	r[encoder.FieldAge] = 33.0
	r[encoder.FieldGender] = "female"
	return r
}

func newTestService(t *testing.T) *encoder.Service {
	t.Helper()
	svc := encoder.NewService(encoder.Config{}, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestServiceEncodeAssignsBatchID(t *testing.T) {
	svc := newTestService(t)
	table, report, err := svc.Encode(context.Background(), encoder.TaskClassification,
		[]encoder.Response{{"Gender": "m", "leave": "Very easy"}})
	require.NoError(t, err)
	require.NotEmpty(t, report.BatchID)
	require.Equal(t, []string{"Gender", "leave"}, table.Columns)

	_, again, err := svc.Encode(context.Background(), encoder.TaskClassification,
		[]encoder.Response{{"Gender": "m"}})
	require.NoError(t, err)
	require.NotEqual(t, report.BatchID, again.BatchID)

	_, _, err = svc.Encode(context.Background(), "clustering", nil)
	require.ErrorIs(t, err, encoder.ErrUnknownTask)
}

func TestServiceEncodeHonoursCancelledContext(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := svc.Encode(ctx, encoder.TaskRegression, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestServicePredict(t *testing.T) {
	svc := newTestService(t)
	enc, err := svc.Encoder(encoder.TaskClassification)
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), encoder.TaskClassification, nil)
	require.Error(t, err)
	require.False(t, svc.HasScorer(encoder.TaskClassification))

	sc := &fakeScorer{features: enc.Schema(), score: 0.7}
	require.NoError(t, svc.AttachScorer(encoder.TaskClassification, sc))
	require.True(t, svc.HasScorer(encoder.TaskClassification))

	pred, err := svc.Predict(context.Background(), encoder.TaskClassification,
		[]encoder.Response{completeResponse(enc), completeResponse(enc)})
	require.NoError(t, err)
	require.Equal(t, []float64{0.7, 0.7}, pred.Values)
	require.Equal(t, []string{"Yes", "Yes"}, pred.Labels)
	require.Equal(t, []float64{0.7, 0.7}, pred.Confidence)
	require.Equal(t, enc.Schema(), pred.Features.Columns)
	require.Equal(t, pred.BatchID, pred.Report.BatchID)
}

func TestServicePredictRegressionHasNoLabels(t *testing.T) {
	svc := newTestService(t)
	enc, err := svc.Encoder(encoder.TaskRegression)
	require.NoError(t, err)
	require.NoError(t, svc.AttachScorer(encoder.TaskRegression, &fakeScorer{features: enc.Schema(), score: 31}))

	pred, err := svc.Predict(context.Background(), encoder.TaskRegression, []encoder.Response{completeResponse(enc)})
	require.NoError(t, err)
	require.Equal(t, []float64{31}, pred.Values)
	require.Nil(t, pred.Labels)
	require.Nil(t, pred.Confidence)
}

func TestServicePredictRejectsIncompleteFeatures(t *testing.T) {
	svc := newTestService(t)
	enc, err := svc.Encoder(encoder.TaskClassification)
	require.NoError(t, err)
	require.NoError(t, svc.AttachScorer(encoder.TaskClassification, &fakeScorer{features: enc.Schema()}))

	_, err = svc.Predict(context.Background(), encoder.TaskClassification,
		[]encoder.Response{{"Age": 30, "Gender": "f"}})
	require.ErrorIs(t, err, encoder.ErrSchemaMismatch)
}

func TestAttachScorerValidatesFeatures(t *testing.T) {
	svc := newTestService(t)
	err := svc.AttachScorer(encoder.TaskRegression, &fakeScorer{features: []string{"Age"}})
	require.ErrorIs(t, err, encoder.ErrSchemaMismatch)
	require.False(t, svc.HasScorer(encoder.TaskRegression))

	err = svc.AttachScorer("clustering", &fakeScorer{})
	require.ErrorIs(t, err, encoder.ErrUnknownTask)
}

func TestAttachScorerClosesReplaced(t *testing.T) {
	svc := newTestService(t)
	enc, err := svc.Encoder(encoder.TaskRegression)
	require.NoError(t, err)

	first := &fakeScorer{features: enc.Schema()}
	second := &fakeScorer{features: enc.Schema()}
	require.NoError(t, svc.AttachScorer(encoder.TaskRegression, first))
	require.NoError(t, svc.AttachScorer(encoder.TaskRegression, second))
	require.True(t, first.closed)
	require.False(t, second.closed)

	require.NoError(t, svc.Close())
	require.True(t, second.closed)
	require.False(t, svc.HasScorer(encoder.TaskRegression))
}

func TestServiceUpdateConfig(t *testing.T) {
	svc := newTestService(t)
	batch := []encoder.Response{{"benefits": "Don't know"}}

	_, _, err := svc.Encode(context.Background(), encoder.TaskClassification, batch)
	require.NoError(t, err)

	cfg := svc.Config()
	cfg.Options.Strict = true
	svc.UpdateConfig(cfg)
	require.True(t, svc.Config().Options.Strict)

	_, _, err = svc.Encode(context.Background(), encoder.TaskClassification, batch)
	require.ErrorIs(t, err, encoder.ErrUnrecognizedValue)
}

func TestLoadScorersSkipsDisabledModels(t *testing.T) {
	svc := encoder.NewService(encoder.Config{
		Scorers: map[encoder.Task]encoder.ScorerConfig{encoder.TaskRegression: {}},
	}, nil)
	require.NoError(t, svc.LoadScorers())
	require.False(t, svc.HasScorer(encoder.TaskRegression))
}

func TestNewOrtScorerRequiresModel(t *testing.T) {
	_, err := encoder.NewOrtScorer(encoder.ScorerConfig{}, []string{"Age"})
	require.Error(t, err)

	var nilScorer *encoder.OrtScorer
	require.NoError(t, nilScorer.Close())
	_, err = nilScorer.Predict(context.Background(), encoder.FeatureTable{})
	require.Error(t, err)
}
