package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/replicator/internal/dynamo"
)

// Sample file layout: one line per sample, three space-separated shares with
// six decimals, no header. Plotting tools read this file directly, so the
// layout must not change.

// EncodeSamples writes states in the sample file layout.
func EncodeSamples(w io.Writer, states []dynamo.State) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)
	for i, s := range states {
		if len(s) != 3 {
			return errors.Errorf("sample %d has %d components, want 3", i, len(s))
		}
		buf = buf[:0]
		buf = strconv.AppendFloat(buf, s[0], 'f', 6, 64)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, s[1], 'f', 6, 64)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, s[2], 'f', 6, 64)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSamples replaces the file at path with states. Any failure, including
// on close, matches dynamo.ErrIOFailure. An interrupted write leaves a
// truncated file behind.
func WriteSamples(path string, states []dynamo.State) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return ioFailure(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = ioFailure(cerr, "close %s", path)
		}
	}()

	if err := EncodeSamples(f, states); err != nil {
		return ioFailure(err, "write %s", path)
	}
	return nil
}

// ReadSamples parses the sample file layout. Blank lines are skipped.
func ReadSamples(r io.Reader) ([]dynamo.State, error) {
	states := make([]dynamo.State, 0)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, errors.Errorf("line %d: expected 3 values, got %d", line, len(fields))
		}
		s := make(dynamo.State, 3)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			s[i] = v
		}
		states = append(states, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read samples")
	}
	return states, nil
}

func ReadSamplesFile(path string) ([]dynamo.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioFailure(err, "open %s", path)
	}
	defer f.Close()
	return ReadSamples(f)
}

// ioFailure wraps err with context and tags it with dynamo.ErrIOFailure.
func ioFailure(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", dynamo.ErrIOFailure, errors.Wrapf(err, format, args...))
}
