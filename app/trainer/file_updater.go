package trainer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-pkgz/fileutils"

	"github.com/amck/mlmodels/lib/dataset"
)

// FileUpdater keeps user samples in a text file, one sample line per line.
// It is a file-based alternative to the database store.
type FileUpdater struct {
	fileName string
	lock     sync.Mutex
}

// NewFileUpdater creates a new FileUpdater. The file is created on the first append.
func NewFileUpdater(fileName string) *FileUpdater {
	return &FileUpdater{fileName: fileName}
}

// FileName returns the name of the samples file
func (u *FileUpdater) FileName() string {
	return u.fileName
}

// Append a sample to the file. Duplicates are kept, each copy counts in training.
func (u *FileUpdater) Append(_ context.Context, sample dataset.Sample) error {
	u.lock.Lock()
	defer u.lock.Unlock()

	fh, err := os.OpenFile(u.fileName, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644) //nolint:gosec // keep it readable by all
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", u.fileName, err)
	}
	defer fh.Close()

	if _, err = fh.WriteString(dataset.FormatLine(sample) + "\n"); err != nil {
		return fmt.Errorf("failed to write to %s: %w", u.fileName, err)
	}
	return nil
}

// Remove the last copy of a sample from the file. Lines are compared after parsing,
// so "1,t,f" matches "1,1,0". Comments and blank lines are kept as is.
func (u *FileUpdater) Remove(_ context.Context, sample dataset.Sample) error {
	u.lock.Lock()
	defer u.lock.Unlock()

	if !fileutils.IsFile(u.fileName) {
		return fmt.Errorf("sample %q not found, no samples file %s", dataset.FormatLine(sample), u.fileName)
	}

	data, err := os.ReadFile(u.fileName)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", u.fileName, err)
	}

	lines := []string{}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 64*1024), dataset.MaxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err = scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", u.fileName, err)
	}

	want := dataset.FormatLine(sample)
	found := -1
	for i := len(lines) - 1; i >= 0; i-- {
		s, e := dataset.ParseLine(lines[i])
		if e != nil {
			continue // comments, blanks and broken lines never match
		}
		if dataset.FormatLine(s) == want {
			found = i
			break
		}
	}
	if found < 0 {
		return fmt.Errorf("sample %q not found in %s", want, u.fileName)
	}

	lines = append(lines[:found], lines[found+1:]...)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err = os.WriteFile(u.fileName, []byte(content), 0o644); err != nil { //nolint:gosec // keep it readable by all
		return fmt.Errorf("failed to write %s: %w", u.fileName, err)
	}
	return nil
}

// Samples returns all samples from the file, a missing file means no samples
func (u *FileUpdater) Samples(_ context.Context) ([]dataset.Sample, error) {
	u.lock.Lock()
	defer u.lock.Unlock()

	fh, err := os.Open(u.fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []dataset.Sample{}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", u.fileName, err)
	}
	defer fh.Close()

	res, err := dataset.Read(fh)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples from %s: %w", u.fileName, err)
	}
	return res, nil
}
