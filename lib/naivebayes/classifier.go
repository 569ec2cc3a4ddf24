// Package naivebayes implements a discrete naive Bayes classifier over boolean features.
//
// Classifier learns class priors and class-conditional feature probabilities from labeled
// boolean vectors and scores inputs by unnormalized log-posterior. It is not thread-safe,
// Model wraps it with a read-write lock for shared use.
package naivebayes

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned (wrapped) for every contract violation:
// non-positive sizes, shape mismatches and out-of-range labels.
var ErrInvalidArgument = errors.New("invalid argument")

// Classifier is a Bernoulli naive Bayes estimator with K classes and D boolean features.
// Every Train call replaces all parameters, training is never incremental.
type Classifier struct {
	inputDimension int
	logPriors      []float64      // log P(class = c)
	logLikelihoods [][][2]float64 // log P(feature_d = v | class = c), v indexed by boolToIdx
}

// New makes a classifier with uniform parameters, so an untrained classifier returns
// log(1/K) + D*log(0.5) for every class and every input.
func New(inputDimension, numberOfClasses int) (*Classifier, error) {
	if inputDimension <= 0 {
		return nil, fmt.Errorf("%w: input dimension %d must be a positive integer", ErrInvalidArgument, inputDimension)
	}
	if numberOfClasses <= 0 {
		return nil, fmt.Errorf("%w: number of classes %d must be a positive integer", ErrInvalidArgument, numberOfClasses)
	}

	c := &Classifier{
		inputDimension: inputDimension,
		logPriors:      make([]float64, numberOfClasses),
		logLikelihoods: make([][][2]float64, numberOfClasses),
	}
	for class := range c.logLikelihoods {
		c.logLikelihoods[class] = make([][2]float64, inputDimension)
	}
	c.reset()
	return c, nil
}

// NumberOfClasses returns K
func (c *Classifier) NumberOfClasses() int { return len(c.logPriors) }

// InputDimension returns D
func (c *Classifier) InputDimension() int { return c.inputDimension }

// Train estimates priors and likelihoods from inputs and labels. All preconditions are checked
// before any parameter is touched, so a failed call leaves the classifier as it was.
// A class without samples gets -Inf prior and NaN likelihoods, no smoothing is applied.
func (c *Classifier) Train(inputs [][]bool, labels []int) error {
	if err := c.validate(inputs, labels); err != nil {
		return err
	}

	c.reset()

	k, d := c.NumberOfClasses(), c.InputDimension()
	classCounts := make([]float64, k)
	featureCounts := make([][][2]float64, k)
	for class := range featureCounts {
		featureCounts[class] = make([][2]float64, d)
	}

	for i, input := range inputs {
		class := labels[i]
		classCounts[class]++
		for feature, v := range input {
			featureCounts[class][feature][boolToIdx(v)]++
		}
	}

	total := 0.0
	for _, n := range classCounts {
		total += n
	}
	for class, n := range classCounts {
		c.logPriors[class] = math.Log(n / total)
	}

	for class := range featureCounts {
		for feature, counts := range featureCounts[class] {
			sum := counts[0] + counts[1] // always equals classCounts[class]
			c.logLikelihoods[class][feature][0] = math.Log(counts[0] / sum)
			c.logLikelihoods[class][feature][1] = math.Log(counts[1] / sum)
		}
	}
	return nil
}

// Predict returns the unnormalized log-posterior for each class:
// logPriors[c] + sum over d of logLikelihoods[c][d][input[d]].
func (c *Classifier) Predict(input []bool) ([]float64, error) {
	if len(input) != c.inputDimension {
		return nil, fmt.Errorf("%w: input length %d, expected %d", ErrInvalidArgument, len(input), c.inputDimension)
	}

	res := make([]float64, c.NumberOfClasses())
	for class, prior := range c.logPriors {
		score := prior
		for feature, v := range input {
			score += c.logLikelihoods[class][feature][boolToIdx(v)]
		}
		res[class] = score
	}
	return res, nil
}

// LogPriors returns a copy of the log-prior table
func (c *Classifier) LogPriors() []float64 {
	res := make([]float64, len(c.logPriors))
	copy(res, c.logPriors)
	return res
}

// LogLikelihoods returns a copy of the K x D log-likelihood table,
// each cell is {log P(false|c), log P(true|c)}.
func (c *Classifier) LogLikelihoods() [][][2]float64 {
	res := make([][][2]float64, len(c.logLikelihoods))
	for class := range c.logLikelihoods {
		res[class] = make([][2]float64, len(c.logLikelihoods[class]))
		copy(res[class], c.logLikelihoods[class])
	}
	return res
}

func (c *Classifier) validate(inputs [][]bool, labels []int) error {
	if len(inputs) != len(labels) {
		return fmt.Errorf("%w: %d inputs but %d labels", ErrInvalidArgument, len(inputs), len(labels))
	}
	for i, input := range inputs {
		if len(input) != c.inputDimension {
			return fmt.Errorf("%w: input %d has length %d, expected %d", ErrInvalidArgument, i, len(input), c.inputDimension)
		}
	}
	for i, label := range labels {
		if label < 0 || label >= c.NumberOfClasses() {
			return fmt.Errorf("%w: label %d at %d is out of range [0, %d]", ErrInvalidArgument, label, i, c.NumberOfClasses()-1)
		}
	}
	return nil
}

// reset sets all parameters back to the uniform baseline
func (c *Classifier) reset() {
	uniformPrior := math.Log(1.0 / float64(len(c.logPriors)))
	uniformLikelihood := math.Log(0.5)
	for class := range c.logPriors {
		c.logPriors[class] = uniformPrior
		for feature := range c.logLikelihoods[class] {
			c.logLikelihoods[class][feature] = [2]float64{uniformLikelihood, uniformLikelihood}
		}
	}
}

func boolToIdx(v bool) int {
	if v {
		return 1
	}
	return 0
}
