package naivebayes

import (
	"fmt"
	"math"
	"sync"
)

// Model is a thread-safe holder of a Classifier.
// Predictions run concurrently with each other, training is exclusive.
type Model struct {
	classifier *Classifier
	trained    bool
	lock       sync.RWMutex
}

// TrainResult is a result of training.
type TrainResult struct {
	Samples     int   // total number of samples
	ClassCounts []int // number of samples per class
}

// Prediction is a classification result for a single input.
type Prediction struct {
	Class         int       // index of the best class, -1 if no class has a finite score
	Scores        []float64 // unnormalized log-posteriors
	Probabilities []float64 // scores normalized to sum to one
	Certain       bool      // false if the best class ties with another one
}

// Params is a read-only copy of model parameters.
type Params struct {
	NumberOfClasses int
	InputDimension  int
	Trained         bool
	LogPriors       []float64
	LogLikelihoods  [][][2]float64
}

// NewModel makes a new untrained Model
func NewModel(inputDimension, numberOfClasses int) (*Model, error) {
	c, err := New(inputDimension, numberOfClasses)
	if err != nil {
		return nil, err
	}
	return &Model{classifier: c}, nil
}

// NumberOfClasses returns K
func (m *Model) NumberOfClasses() int { return m.classifier.NumberOfClasses() }

// InputDimension returns D
func (m *Model) InputDimension() int { return m.classifier.InputDimension() }

// Train replaces model parameters with ones estimated from inputs and labels
func (m *Model) Train(inputs [][]bool, labels []int) (TrainResult, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.classifier.Train(inputs, labels); err != nil {
		return TrainResult{}, fmt.Errorf("can't train model: %w", err)
	}
	m.trained = true

	res := TrainResult{Samples: len(labels), ClassCounts: make([]int, m.classifier.NumberOfClasses())}
	for _, l := range labels {
		res.ClassCounts[l]++
	}
	return res, nil
}

// Predict returns unnormalized log-posterior per class
func (m *Model) Predict(input []bool) ([]float64, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.classifier.Predict(input)
}

// Classify scores the input and picks the most probable class
func (m *Model) Classify(input []bool) (Prediction, error) {
	scores, err := m.Predict(input)
	if err != nil {
		return Prediction{}, err
	}

	res := Prediction{Class: -1, Scores: scores, Probabilities: Softmax(scores)}
	best := math.Inf(-1)
	for class, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, -1) {
			continue
		}
		switch {
		case res.Class < 0 || s > best:
			res.Class, best, res.Certain = class, s, true
		case s == best:
			res.Certain = false
		}
	}
	return res, nil
}

// Trained returns true if the model was trained at least once
func (m *Model) Trained() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.trained
}

// Snapshot returns a copy of the current parameters
func (m *Model) Snapshot() Params {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return Params{
		NumberOfClasses: m.classifier.NumberOfClasses(),
		InputDimension:  m.classifier.InputDimension(),
		Trained:         m.trained,
		LogPriors:       m.classifier.LogPriors(),
		LogLikelihoods:  m.classifier.LogLikelihoods(),
	}
}
