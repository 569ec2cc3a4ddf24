package dataset

import "math/rand"

// Unzip splits samples into model inputs and labels
func Unzip(samples []Sample) (inputs [][]bool, labels []int) {
	inputs = make([][]bool, len(samples))
	labels = make([]int, len(samples))
	for i, s := range samples {
		inputs[i] = s.Features
		labels[i] = s.Label
	}
	return inputs, labels
}

// Split shuffles samples with rnd and splits them into train and test sets by testRatio.
// The ratio is clamped to [0, 1].
func Split(samples []Sample, testRatio float64, rnd *rand.Rand) (train, test []Sample) {
	testRatio = min(max(testRatio, 0), 1)
	nTest := int(float64(len(samples)) * testRatio)
	for i, idx := range rnd.Perm(len(samples)) {
		if i < nTest {
			test = append(test, samples[idx])
			continue
		}
		train = append(train, samples[idx])
	}
	return train, test
}

// Accuracy returns the share of predicted labels equal to truth, 0 for empty input
func Accuracy(truth, predicted []int) float64 {
	if len(truth) == 0 || len(truth) != len(predicted) {
		return 0
	}
	correct := 0
	for i := range truth {
		if truth[i] == predicted[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}

// ConfusionMatrix returns k x k matrix, res[truth][predicted] is a number of such samples.
// Labels outside [0, k) are ignored.
func ConfusionMatrix(truth, predicted []int, k int) [][]int {
	res := make([][]int, k)
	for i := range res {
		res[i] = make([]int, k)
	}
	for i := range min(len(truth), len(predicted)) {
		t, p := truth[i], predicted[i]
		if t < 0 || t >= k || p < 0 || p >= k {
			continue
		}
		res[t][p]++
	}
	return res
}
