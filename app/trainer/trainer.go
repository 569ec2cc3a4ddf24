// Package trainer keeps a naive Bayes model trained on preset and user samples.
// Preset samples come from files shipped with the service, user samples are added at runtime
// and kept in a SampleStore (a file or a database). Any change of samples retrains the model
// from scratch, the model is never updated incrementally.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/fileutils"

	"github.com/amck/mlmodels/lib/dataset"
	"github.com/amck/mlmodels/lib/naivebayes"
)

//go:generate moq --out mocks/sample_store.go --pkg mocks --with-resets --skip-ensure . SampleStore

// ErrInvalidSample is returned (wrapped) for samples not matching the schema
var ErrInvalidSample = errors.New("invalid sample")

// Trainer trains the model on preset and user samples and reloads them on change
type Trainer struct {
	*naivebayes.Model
	params     Config
	reloadLock sync.Mutex    // serializes loading and training
	generation atomic.Uint64 // incremented on every successful training
}

// Config is a full set of trainer parameters
type Config struct {
	Schema      dataset.Schema // feature and class names, defines model dimensions
	PresetFiles []string       // preset sample files, all mandatory
	Store       SampleStore    // user samples, optional
	WatchDelay  time.Duration  // time to wait after the last file change before reloading
}

// SampleStore keeps user samples
type SampleStore interface {
	Append(ctx context.Context, sample dataset.Sample) error
	Remove(ctx context.Context, sample dataset.Sample) error
	Samples(ctx context.Context) ([]dataset.Sample, error)
}

// LoadResult is a result of samples loading and training
type LoadResult struct {
	Preset      int   `json:"preset"`       // number of preset samples
	User        int   `json:"user"`         // number of user samples
	ClassCounts []int `json:"class_counts"` // number of samples per class
}

// Evaluation is a result of hold-out evaluation
type Evaluation struct {
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
	Accuracy     float64 `json:"accuracy"`
	Unclassified int     `json:"unclassified"` // test samples without any finite score
	Confusion    [][]int `json:"confusion"`    // confusion[truth][predicted]
}

// New makes a Trainer with an untrained model sized by the schema
func New(params Config) (*Trainer, error) {
	if err := params.Schema.Validate(); err != nil {
		return nil, err
	}
	model, err := naivebayes.NewModel(params.Schema.InputDimension(), params.Schema.NumberOfClasses())
	if err != nil {
		return nil, fmt.Errorf("can't make model: %w", err)
	}
	return &Trainer{Model: model, params: params}, nil
}

// Schema returns dataset schema of the model
func (t *Trainer) Schema() dataset.Schema {
	return t.params.Schema
}

// Generation returns a number changed on every successful training, zero for untrained model
func (t *Trainer) Generation() uint64 {
	return t.generation.Load()
}

// Reload loads all samples and retrains the model
func (t *Trainer) Reload(ctx context.Context) (LoadResult, error) {
	t.reloadLock.Lock()
	defer t.reloadLock.Unlock()
	return t.reload(ctx)
}

func (t *Trainer) reload(ctx context.Context) (LoadResult, error) {
	log.Printf("[DEBUG] reloading samples")
	preset, user, err := t.load(ctx)
	if err != nil {
		return LoadResult{}, err
	}

	inputs, labels := dataset.Unzip(append(preset, user...))
	tr, err := t.Train(inputs, labels)
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to train on reloaded samples: %w", err)
	}
	t.generation.Add(1)

	res := LoadResult{Preset: len(preset), User: len(user), ClassCounts: tr.ClassCounts}
	log.Printf("[INFO] loaded samples - preset: %d, user: %d, per class: %v", res.Preset, res.User, res.ClassCounts)
	return res, nil
}

// load reads preset and user samples and checks them against the schema
func (t *Trainer) load(ctx context.Context) (preset, user []dataset.Sample, err error) {
	preset = []dataset.Sample{}
	for _, file := range t.params.PresetFiles {
		samples, e := t.readFile(file)
		if e != nil {
			return nil, nil, e
		}
		preset = append(preset, samples...)
	}

	user = []dataset.Sample{}
	if t.params.Store != nil {
		if user, err = t.params.Store.Samples(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to read user samples: %w", err)
		}
	}

	if err = t.params.Schema.CheckAll(preset); err != nil {
		return nil, nil, fmt.Errorf("%w, preset: %w", ErrInvalidSample, err)
	}
	if err = t.params.Schema.CheckAll(user); err != nil {
		return nil, nil, fmt.Errorf("%w, user: %w", ErrInvalidSample, err)
	}
	return preset, user, nil
}

func (t *Trainer) readFile(file string) ([]dataset.Sample, error) {
	if !fileutils.IsFile(file) {
		return nil, fmt.Errorf("preset samples file %q not found", file)
	}
	fh, err := os.Open(file) //nolint:gosec // file name is set by the app configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open preset samples file %q: %w", file, err)
	}
	defer fh.Close()

	res, err := dataset.Read(fh)
	if err != nil {
		return nil, fmt.Errorf("failed to parse preset samples file %q: %w", file, err)
	}
	return res, nil
}

// AddSample adds a user sample and retrains the model
func (t *Trainer) AddSample(ctx context.Context, sample dataset.Sample) (LoadResult, error) {
	return t.update(ctx, sample, "add", func(s SampleStore) error { return s.Append(ctx, sample) })
}

// RemoveSample removes a copy of user sample and retrains the model
func (t *Trainer) RemoveSample(ctx context.Context, sample dataset.Sample) (LoadResult, error) {
	return t.update(ctx, sample, "remove", func(s SampleStore) error { return s.Remove(ctx, sample) })
}

func (t *Trainer) update(ctx context.Context, sample dataset.Sample, op string, fn func(SampleStore) error) (LoadResult, error) {
	if err := t.params.Schema.Check(sample); err != nil {
		return LoadResult{}, fmt.Errorf("%w: %w", ErrInvalidSample, err)
	}
	if t.params.Store == nil {
		return LoadResult{}, errors.New("no user samples store")
	}

	t.reloadLock.Lock()
	defer t.reloadLock.Unlock()

	log.Printf("[DEBUG] %s user sample %q", op, dataset.FormatLine(sample))
	if err := fn(t.params.Store); err != nil {
		return LoadResult{}, fmt.Errorf("can't %s user sample: %w", op, err)
	}
	return t.reload(ctx)
}

// Samples returns all user samples
func (t *Trainer) Samples(ctx context.Context) ([]dataset.Sample, error) {
	if t.params.Store == nil {
		return []dataset.Sample{}, nil
	}
	res, err := t.params.Store.Samples(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read user samples: %w", err)
	}
	return res, nil
}

// Evaluate shuffles all samples with the seed, trains a separate model on the train part
// and classifies the test part with it. The served model is not changed.
func (t *Trainer) Evaluate(ctx context.Context, testRatio float64, seed int64) (Evaluation, error) {
	if math.IsNaN(testRatio) || testRatio <= 0 || testRatio >= 1 {
		return Evaluation{}, fmt.Errorf("test ratio %v must be in (0, 1)", testRatio)
	}

	preset, user, err := t.load(ctx)
	if err != nil {
		return Evaluation{}, err
	}
	train, test := dataset.Split(append(preset, user...), testRatio, rand.New(rand.NewSource(seed))) //nolint:gosec // reproducible split
	if len(test) == 0 {
		return Evaluation{}, fmt.Errorf("no test samples out of %d with ratio %v", len(train), testRatio)
	}

	model, err := naivebayes.NewModel(t.params.Schema.InputDimension(), t.params.Schema.NumberOfClasses())
	if err != nil {
		return Evaluation{}, fmt.Errorf("can't make model: %w", err)
	}
	if _, err = model.Train(dataset.Unzip(train)); err != nil {
		return Evaluation{}, err
	}

	res := Evaluation{TrainSamples: len(train), TestSamples: len(test)}
	truth, predicted := make([]int, len(test)), make([]int, len(test))
	for i, s := range test {
		p, e := model.Classify(s.Features)
		if e != nil {
			return Evaluation{}, fmt.Errorf("can't classify test sample %d: %w", i, e)
		}
		if p.Class < 0 {
			res.Unclassified++
		}
		truth[i], predicted[i] = s.Label, p.Class
	}
	res.Accuracy = dataset.Accuracy(truth, predicted)
	res.Confusion = dataset.ConfusionMatrix(truth, predicted, t.params.Schema.NumberOfClasses())
	log.Printf("[INFO] evaluated on %d samples, trained on %d, accuracy %.3f", res.TestSamples, res.TrainSamples, res.Accuracy)
	return res, nil
}
