// Package dataset provides labeled boolean samples for the naive Bayes model: the text format
// of sample files, the dataset schema, and helpers for splitting and evaluation.
//
// Sample file format is one sample per line, label first and features after it, comma separated:
//
//	# label, is_female, first_class, child
//	1,1,0,0
//	0,false,true,false
//
// Features can be written as 0/1, t/f, true/false or y/n in any case. Blank lines and lines
// starting with # are ignored.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Sample is a single labeled boolean vector
type Sample struct {
	Features []bool `json:"features"`
	Label    int    `json:"label"`
}

// ParseLine parses a single sample line
func ParseLine(line string) (Sample, error) {
	elems := strings.Split(strings.TrimSpace(line), ",")
	if len(elems) < 2 {
		return Sample{}, fmt.Errorf("expected label and at least one feature, got %q", line)
	}

	label, err := strconv.Atoi(strings.TrimSpace(elems[0]))
	if err != nil {
		return Sample{}, fmt.Errorf("invalid label %q: %w", elems[0], err)
	}

	res := Sample{Label: label, Features: make([]bool, 0, len(elems)-1)}
	for i, e := range elems[1:] {
		v, err := ParseBool(e)
		if err != nil {
			return Sample{}, fmt.Errorf("feature %d: %w", i, err)
		}
		res.Features = append(res.Features, v)
	}
	return res, nil
}

// ParseBool parses a single feature value
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes":
		return true, nil
	case "0", "f", "false", "n", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q", s)
}

// ParseFeatures parses comma-separated feature values, without label
func ParseFeatures(s string) ([]bool, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("no features")
	}
	elems := strings.Split(s, ",")
	res := make([]bool, 0, len(elems))
	for i, e := range elems {
		v, err := ParseBool(e)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		res = append(res, v)
	}
	return res, nil
}

// FormatLine makes a sample line in the canonical 0/1 form, i.e. "1,0,1,1"
func FormatLine(s Sample) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(s.Label))
	for _, v := range s.Features {
		sb.WriteByte(',')
		sb.WriteString(boolDigit(v))
	}
	return sb.String()
}

// Bits returns features as a string of 0 and 1, i.e. "101"
func Bits(features []bool) string {
	var sb strings.Builder
	sb.Grow(len(features))
	for _, v := range features {
		sb.WriteString(boolDigit(v))
	}
	return sb.String()
}

// FromBits parses a string of 0 and 1 made by Bits
func FromBits(bits string) ([]bool, error) {
	res := make([]bool, len(bits))
	for i, ch := range bits {
		switch ch {
		case '1':
			res[i] = true
		case '0':
		default:
			return nil, fmt.Errorf("invalid bit %q at %d", ch, i)
		}
	}
	return res, nil
}

// MaxLineSize is the longest sample line accepted by Read, enough for about 4M features
const MaxLineSize = 8 * 1024 * 1024

// Read parses samples from all readers. It doesn't stop on a bad line, all line errors
// are collected and returned together with samples parsed successfully. A read error
// stops the reader it came from and is returned as well.
func Read(readers ...io.Reader) ([]Sample, error) {
	res := []Sample{}
	errs := new(multierror.Error)
	for idx, r := range readers {
		for ln := range lines(r) {
			if ln.err != nil {
				errs = multierror.Append(errs, fmt.Errorf("reader %d, after line %d: %w", idx, ln.num, ln.err))
				break
			}
			s, err := ParseLine(ln.text)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("reader %d, line %d: %w", idx, ln.num, err))
				continue
			}
			res = append(res, s)
		}
	}
	return res, errs.ErrorOrNil()
}

type numberedLine struct {
	num  int
	text string
	err  error // scanner failure, the last element of the sequence
}

// lines iterates over meaningful lines of the reader, skipping blanks and comments
func lines(r io.Reader) iter.Seq[numberedLine] {
	return func(yield func(numberedLine) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), MaxLineSize)
		num := 0
		for scanner.Scan() {
			num++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if !yield(numberedLine{num: num, text: line}) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(numberedLine{num: num, err: fmt.Errorf("failed to read samples: %w", err)})
		}
	}
}

func boolDigit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
