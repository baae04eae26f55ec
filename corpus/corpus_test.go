package corpus

import (
	"strings"
	"testing"
)

const fixtureCSV = `protocol,hex,field,expected
ip4,450000140000000040110000c0a80001c0a80002,proto,0x11
ip4,450000140000000040110000c0a80001c0a80002,src,0xc0a80001
udp,1389003500080000,dport,0x0035
dns,000001000001000000000000016101620000010001,qtype,0x0001
`

func TestLoadRunAndExport(t *testing.T) {
	fixtures, err := LoadFixtures(strings.NewReader(fixtureCSV))
	if err != nil {
		t.Fatalf("LoadFixtures() error: %v", err)
	}
	if len(fixtures) != 4 {
		t.Fatalf("len(fixtures) = %d, want 4", len(fixtures))
	}

	results := RunAll(fixtures)
	for i, r := range results {
		if !r.Passed() {
			t.Errorf("case %d (%s/%s) did not pass: err=%v diff=%v got=%q",
				i, r.Fixture.Protocol, r.Fixture.Field, r.Err, r.Diff, r.Got)
		}
		if r.Tag == "" {
			t.Errorf("case %d has an empty Tag", i)
		}
	}

	var buf strings.Builder
	if err := ExportResults(&buf, results); err != nil {
		t.Fatalf("ExportResults() error: %v", err)
	}
	if !strings.Contains(buf.String(), "tag,protocol,field,expected,got,pass,error") {
		t.Errorf("ExportResults() output missing expected header: %q", buf.String())
	}
}

func TestRunUnknownProtocol(t *testing.T) {
	r := Run(0, Fixture{Protocol: "bogus", HexBytes: "00", Field: "x", Expected: "y"})
	if r.Passed() {
		t.Fatal("Run() with an unknown protocol reported Passed()")
	}
	if r.Err == nil {
		t.Fatal("Run() with an unknown protocol returned a nil error")
	}
}

func TestRunBadHex(t *testing.T) {
	r := Run(0, Fixture{Protocol: "ip4", HexBytes: "not-hex", Field: "proto", Expected: "0x11"})
	if r.Passed() {
		t.Fatal("Run() with malformed hex reported Passed()")
	}
}

func TestRunMismatchRecordsDiff(t *testing.T) {
	r := Run(0, Fixture{
		Protocol: "ip4",
		HexBytes: "450000140000000040110000c0a80001c0a80002",
		Field:    "proto",
		Expected: "0x06",
	})
	if r.Passed() {
		t.Fatal("Run() with a mismatched expected value reported Passed()")
	}
	if len(r.Diff) == 0 {
		t.Fatal("Run() with a mismatched expected value recorded no diff")
	}
}
