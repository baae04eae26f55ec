// Package corpus runs CSV-driven regression fixtures against the engine:
// dissect a hex-encoded packet as a named protocol, then assert one of its
// fields renders as an expected value. It exercises the engine the way a
// real caller would, via the public New/Summarize surface rather than
// package-internal state, following the same small I/O-adjacent loader/
// worker/writer shape as saver.go, repurposed for fixture-driven
// regression instead of live connection capture.
package corpus

import (
	"io"

	"github.com/gocarina/gocsv"
)

// Fixture is one CSV row: dissect HexBytes as Protocol, then check that
// Field renders as Expected in the dissected layer's summary.
type Fixture struct {
	Protocol string `csv:"protocol"`
	HexBytes string `csv:"hex"`
	Field    string `csv:"field"`
	Expected string `csv:"expected"`
}

// LoadFixtures decodes a corpus CSV file (header row: protocol,hex,field,
// expected) into Fixtures.
func LoadFixtures(r io.Reader) ([]Fixture, error) {
	var fixtures []Fixture
	if err := gocsv.Unmarshal(r, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}
