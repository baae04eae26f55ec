package corpus

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/go-test/deep"
	"github.com/gocarina/gocsv"
	"github.com/m-lab/uuid"
)

// Result is the outcome of running one Fixture, tagged with a short
// per-case identifier (derived via uuid.FromCookie, the same way saved
// connection files get tagged) so a failure can be correlated against an
// exported results file without re-running the whole corpus.
type Result struct {
	Fixture Fixture
	Tag     string
	Got     string
	Diff    []string
	Err     error
}

// Passed reports whether the fixture dissected cleanly and its field
// matched, with no diff recorded.
func (r Result) Passed() bool { return r.Err == nil && len(r.Diff) == 0 }

// Run dissects a fixture's hex-encoded packet with its named protocol and
// compares the named field's rendered value (as it appears in Summarize's
// "field=value" output) against the fixture's expected string. Summarize
// is only ever a debug aid, not a protocol contract, but that makes it a
// convenient, already-built assertion surface without adding a separate
// per-protocol reflection-based field accessor just for tests.
func Run(index int, f Fixture) Result {
	res := Result{Fixture: f, Tag: uuid.FromCookie(uint64(index))}

	ctor, ok := protocols[f.Protocol]
	if !ok {
		res.Err = fmt.Errorf("corpus: unknown protocol %q in case %d", f.Protocol, index)
		return res
	}
	buf, err := hex.DecodeString(strings.TrimSpace(f.HexBytes))
	if err != nil {
		res.Err = fmt.Errorf("corpus: bad hex in case %d: %w", index, err)
		return res
	}
	l, err := ctor(buf)
	if err != nil {
		res.Err = err
		return res
	}
	res.Got = l.String()

	got, found := extractField(res.Got, f.Field)
	if !found {
		res.Err = fmt.Errorf("corpus: field %q not present in summary of case %d", f.Field, index)
		return res
	}
	if diff := deep.Equal(got, f.Expected); diff != nil {
		res.Diff = diff
	}
	return res
}

// RunAll runs every fixture in order, returning one Result per row.
func RunAll(fixtures []Fixture) []Result {
	results := make([]Result, len(fixtures))
	for i, f := range fixtures {
		results[i] = Run(i, f)
	}
	return results
}

// extractField pulls "field" out of a Summarize-style "name=value, ..."
// line, stopping at the next comma, closing paren, or newline.
func extractField(summary, field string) (string, bool) {
	marker := field + "="
	idx := strings.Index(summary, marker)
	if idx < 0 {
		return "", false
	}
	rest := summary[idx+len(marker):]
	end := strings.IndexAny(rest, ",)\n")
	if end < 0 {
		end = len(rest)
	}
	return rest[:end], true
}

type exportRow struct {
	Tag      string `csv:"tag"`
	Protocol string `csv:"protocol"`
	Field    string `csv:"field"`
	Expected string `csv:"expected"`
	Got      string `csv:"got"`
	Pass     bool   `csv:"pass"`
	Error    string `csv:"error"`
}

// ExportResults writes a regression run's results back out as CSV, the
// same encode/decode roundtrip library (gocsv) used to load the fixtures
// in the first place.
func ExportResults(w io.Writer, results []Result) error {
	rows := make([]exportRow, len(results))
	for i, r := range results {
		row := exportRow{
			Tag:      r.Tag,
			Protocol: r.Fixture.Protocol,
			Field:    r.Fixture.Field,
			Expected: r.Fixture.Expected,
			Got:      r.Got,
			Pass:     r.Passed(),
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		rows[i] = row
	}
	return gocsv.Marshal(rows, w)
}
