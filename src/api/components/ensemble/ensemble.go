package ensemble

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/veritas-ai/veritas-api/src/api/types"
)

// Logistic-regression meta-model over the 7 signal features, with a
// fixed-weight fallback when no trained model exists yet. The live
// model is copy-on-write: every mutation builds a fresh parameter set
// aside and swaps the pointer, so in-flight predictions always see a
// complete model.

const (
	NumFeatures = 7

	LabelReal = 0
	LabelFake = 1

	minRetrainSamples = 20
	onlineLearnRate   = 0.05
	batchLearnRate    = 0.01
	batchEpochs       = 200
	retrainSeed       = 42

	perfWindow  = time.Hour
	perfSamples = 500
	perfMinimum = 50
	perfAlpha   = 0.1
)

var FeatureNames = [NumFeatures]string{
	"nlp_fake_prob", "transformer_fake", "twitter_signal",
	"newsapi_signal", "factcheck_signal", "source_credibility",
	"claim_unverified_ratio",
}

// Fallback weights, index-aligned to FeatureNames, summing to 1 and
// biased toward the transformer and corroboration signals.
var fallbackWeights = [NumFeatures]float64{0.07, 0.20, 0.25, 0.20, 0.15, 0.10, 0.03}

var ErrBadVector = fmt.Errorf("feature vector must have exactly %d components", NumFeatures)
var ErrBadLabel = errors.New("label must be REAL (0) or FAKE (1)")

// params is one immutable trained parameter set.
type params struct {
	Weights [NumFeatures]float64 `json:"weights"`
	Bias    float64              `json:"bias"`
	Mean    [NumFeatures]float64 `json:"mean"`
	Std     [NumFeatures]float64 `json:"std"`
	Samples int                  `json:"samples"`
}

func (p *params) scale(fv []float64) [NumFeatures]float64 {
	var x [NumFeatures]float64
	for i := 0; i < NumFeatures; i++ {
		std := p.Std[i]
		if std == 0 {
			std = 1
		}
		x[i] = (fv[i] - p.Mean[i]) / std
	}
	return x
}

func (p *params) fakeProbability(fv []float64) float64 {
	x := p.scale(fv)
	z := p.Bias
	for i := 0; i < NumFeatures; i++ {
		z += p.Weights[i] * x[i]
	}
	return sigmoid(z)
}

// Store is the durable side of the model: snapshot persistence, the
// append-only feedback log, and recent verdicts for the performance
// estimate.
type Store interface {
	SaveModel(snapshot *types.ModelSnapshot) error
	LoadModel() (*types.ModelSnapshot, error)
	AppendFeedback(sample *types.FeedbackSample) error
	ListFeedback() ([]types.FeedbackSample, error)
	RecentPredictions(limit int) ([]types.Prediction, error)
}

type Model struct {
	store Store

	mu    sync.RWMutex // guards state pointer swap
	state *params      // nil -> fallback weighted average

	writeMu sync.Mutex // serializes all mutations

	perfMu   sync.Mutex
	perf     map[string]float64
	lastPerf time.Time
}

// New loads the persisted snapshot if one exists; a load failure means
// starting from the fallback, never a startup failure.
func New(store Store) *Model {
	m := &Model{store: store, perf: make(map[string]float64)}
	if store == nil {
		return m
	}
	snap, err := store.LoadModel()
	if err != nil {
		log.Printf("ensemble: could not load persisted model: %v", err)
		return m
	}
	if snap != nil {
		var p params
		if err := json.Unmarshal([]byte(snap.Params), &p); err != nil {
			log.Printf("ensemble: bad persisted model params: %v", err)
			return m
		}
		m.state = &p
		log.Printf("ensemble: loaded persisted model (%d samples)", p.Samples)
	}
	return m
}

func (m *Model) current() *params {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Model) swap(p *params) {
	m.mu.Lock()
	m.state = p
	m.mu.Unlock()
}

// Trained reports whether a learned model is live.
func (m *Model) Trained() bool { return m.current() != nil }

// Predict returns the label and the fake-class probability for one
// feature vector. Reads never block on concurrent updates.
func (m *Model) Predict(fv []float64) (string, float64, error) {
	if len(fv) != NumFeatures {
		return "", 0, ErrBadVector
	}
	var fp float64
	if p := m.current(); p != nil {
		fp = p.fakeProbability(fv)
	} else {
		var sum, wsum float64
		for i := 0; i < NumFeatures; i++ {
			sum += fv[i] * fallbackWeights[i]
			wsum += fallbackWeights[i]
		}
		fp = clamp01(sum / wsum)
	}
	if fp >= 0.5 {
		return "FAKE", fp, nil
	}
	return "REAL", fp, nil
}

// UpdateFromFeedback archives one labelled example and applies a single
// incremental gradient step to the live model. Persistence problems are
// logged and swallowed: feedback must never fail the caller's response.
func (m *Model) UpdateFromFeedback(fv []float64, label int, source, predictionID string) error {
	if len(fv) != NumFeatures {
		return ErrBadVector
	}
	if label != LabelReal && label != LabelFake {
		return ErrBadLabel
	}

	if m.store != nil {
		raw, _ := json.Marshal(fv)
		if err := m.store.AppendFeedback(&types.FeedbackSample{
			Features:     string(raw),
			Label:        label,
			Source:       source,
			PredictionID: predictionID,
			CreatedAt:    time.Now(),
		}); err != nil {
			log.Printf("ensemble: feedback archive failed: %v", err)
		}
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	old := m.current()
	if old == nil {
		// Nothing to update online yet; the sample waits for the next
		// batch retrain.
		return nil
	}

	next := *old
	x := next.scale(fv)
	grad := sigmoidAt(&next, x) - float64(label)
	for i := 0; i < NumFeatures; i++ {
		next.Weights[i] -= onlineLearnRate * grad * x[i]
	}
	next.Bias -= onlineLearnRate * grad
	next.Samples++

	m.swap(&next)
	m.persist(&next)
	return nil
}

// RetrainFromFeedback refits from the full accumulated log. Returns
// false without error when there is not enough data yet.
func (m *Model) RetrainFromFeedback() (bool, error) {
	if m.store == nil {
		return false, nil
	}
	samples, err := m.store.ListFeedback()
	if err != nil {
		return false, err
	}
	if len(samples) < minRetrainSamples {
		log.Printf("ensemble: not enough feedback (%d samples, need %d)", len(samples), minRetrainSamples)
		return false, nil
	}

	X := make([][]float64, 0, len(samples))
	y := make([]int, 0, len(samples))
	for _, s := range samples {
		var fv []float64
		if err := json.Unmarshal([]byte(s.Features), &fv); err != nil || len(fv) != NumFeatures {
			continue
		}
		X = append(X, fv)
		y = append(y, s.Label)
	}
	if len(X) < minRetrainSamples {
		return false, nil
	}

	p := fit(X, y)

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.swap(p)
	m.persist(p)
	log.Printf("ensemble: retrained on %d samples", len(X))
	return true, nil
}

// fit trains a fresh standardized, class-balanced logistic regression
// with seeded SGD, so retraining is deterministic for a fixed log.
func fit(X [][]float64, y []int) *params {
	n := len(X)
	p := &params{Samples: n}

	for i := 0; i < NumFeatures; i++ {
		var sum float64
		for _, row := range X {
			sum += row[i]
		}
		mean := sum / float64(n)
		var sq float64
		for _, row := range X {
			d := row[i] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(n))
		if std == 0 {
			std = 1
		}
		p.Mean[i], p.Std[i] = mean, std
	}

	scaled := make([][NumFeatures]float64, n)
	for j, row := range X {
		scaled[j] = p.scale(row)
	}

	// Balanced class weights: n / (2 * n_class).
	counts := [2]float64{}
	for _, label := range y {
		counts[label]++
	}
	classWeight := [2]float64{1, 1}
	for c := 0; c < 2; c++ {
		if counts[c] > 0 {
			classWeight[c] = float64(n) / (2 * counts[c])
		}
	}

	rng := rand.New(rand.NewSource(retrainSeed))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for epoch := 0; epoch < batchEpochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, j := range order {
			x := scaled[j]
			grad := (sigmoidAt(p, x) - float64(y[j])) * classWeight[y[j]]
			for i := 0; i < NumFeatures; i++ {
				p.Weights[i] -= batchLearnRate * grad * x[i]
			}
			p.Bias -= batchLearnRate * grad
		}
	}
	return p
}

func (m *Model) persist(p *params) {
	if m.store == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err == nil {
		err = m.store.SaveModel(&types.ModelSnapshot{
			ID:        1,
			Params:    string(raw),
			Samples:   p.Samples,
			UpdatedAt: time.Now(),
		})
	}
	if err != nil {
		log.Printf("ensemble: could not persist model: %v", err)
	}
}

// RefreshPerformance recomputes the per-method accuracy EMA from
// recent verdicts, at most once per window. Observability only; the
// estimate never feeds back into prediction weights.
func (m *Model) RefreshPerformance() {
	m.perfMu.Lock()
	defer m.perfMu.Unlock()
	if time.Since(m.lastPerf) < perfWindow {
		return
	}
	m.lastPerf = time.Now()
	if m.store == nil {
		return
	}

	recent, err := m.store.RecentPredictions(perfSamples)
	if err != nil {
		log.Printf("ensemble: performance refresh failed: %v", err)
		return
	}
	if len(recent) < perfMinimum {
		return
	}

	hits := make(map[string][]float64)
	for _, pred := range recent {
		v := 0.0
		if pred.Confidence > 0.7 {
			v = 1.0
		}
		hits[pred.Method] = append(hits[pred.Method], v)
	}
	for method, h := range hits {
		var sum float64
		for _, v := range h {
			sum += v
		}
		acc := sum / float64(len(h))
		old, ok := m.perf[method]
		if !ok {
			old = acc
		}
		m.perf[method] = perfAlpha*acc + (1-perfAlpha)*old
	}
}

// Performance returns a copy of the current per-method estimates.
func (m *Model) Performance() map[string]float64 {
	m.perfMu.Lock()
	defer m.perfMu.Unlock()
	out := make(map[string]float64, len(m.perf))
	for k, v := range m.perf {
		out[k] = v
	}
	return out
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func sigmoidAt(p *params, x [NumFeatures]float64) float64 {
	z := p.Bias
	for i := 0; i < NumFeatures; i++ {
		z += p.Weights[i] * x[i]
	}
	return sigmoid(z)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
