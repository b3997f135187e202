package logfile

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParse_HeadersAndDetails(t *testing.T) {
	input := strings.Join([]string{
		"10/15/26 3:04 PM E/net.sync: upload failed",
		"connection reset by peer",
		"  retry scheduled  ",
		"10/15/26 3:01 PM W/ui: slow frame",
		"10/14/26 11:59 AM I/boot: started",
		"",
	}, "\r\n")

	entries, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Parse returned %d entries, want 3", len(entries))
	}

	first := entries[0]
	if first.Level != Error || first.Tag != "net.sync" || first.Message != "upload failed" {
		t.Fatalf("entries[0] = %+v, want E/net.sync upload failed", first)
	}
	if first.Details != "connection reset by peer\n  retry scheduled" {
		t.Fatalf("entries[0].Details = %q", first.Details)
	}
	want := time.Date(2026, time.October, 15, 15, 4, 0, 0, time.Local)
	if !first.Time.Equal(want) {
		t.Fatalf("entries[0].Time = %v, want %v", first.Time, want)
	}
	if entries[1].HasDetails() {
		t.Fatalf("entries[1].Details = %q, want empty", entries[1].Details)
	}
	if entries[2].Time.Hour() != 11 || entries[2].Tag != "boot" {
		t.Fatalf("entries[2] = %+v, want 11:59 AM boot", entries[2])
	}
}

func TestParse_ZeroPaddedTimestamp(t *testing.T) {
	entries, err := Parse(strings.NewReader("06/08/16 09:05 AM I/app: hello\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Parse returned %d entries, want 1", len(entries))
	}
	want := time.Date(2016, time.June, 8, 9, 5, 0, 0, time.Local)
	if !entries[0].Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", entries[0].Time, want)
	}
}

func TestParse_MalformedHeaderIsDemotedToDetails(t *testing.T) {
	input := strings.Join([]string{
		"10/15/26 3:04 PM E/app: newest",
		"13/45/26 3:04 PM W/app: bad date",
		"10/15/26 3:03 PM X/app: unknown level",
		"10/15/26 3:02 PM I/app: oldest",
	}, "\n")

	entries, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Parse returned %d entries, want 2", len(entries))
	}
	if !strings.Contains(entries[0].Details, "bad date") || !strings.Contains(entries[0].Details, "unknown level") {
		t.Fatalf("entries[0].Details = %q, want demoted header lines", entries[0].Details)
	}
	if entries[1].Message != "oldest" {
		t.Fatalf("entries[1].Message = %q, want oldest", entries[1].Message)
	}
}

func TestParse_LeadingLinesAttachToFirstRecord(t *testing.T) {
	input := "stray text\n10/15/26 3:04 PM I/app: first\ndetail\n"
	entries, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Parse returned %d entries, want 1", len(entries))
	}
	if entries[0].Details != "stray text\ndetail" {
		t.Fatalf("Details = %q, want %q", entries[0].Details, "stray text\ndetail")
	}
}

func TestParse_NoHeaderIsMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader("just some text\nmore text\n"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Parse error = %v, want ErrMalformed", err)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "\r\n\r\n", "   \n"} {
		entries, err := Parse(strings.NewReader(input))
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", input, err)
		}
		if len(entries) != 0 {
			t.Fatalf("Parse(%q) returned %d entries, want 0", input, len(entries))
		}
	}
}

func TestFormatHeader_RoundTrip(t *testing.T) {
	ts := time.Date(2026, time.January, 2, 0, 7, 0, 0, time.Local)
	header := FormatHeader(ts, Warning, "db:pool\nmain", "message: with colon")
	if header != "1/2/26 12:07 AM W/db.pool main: message: with colon" {
		t.Fatalf("FormatHeader = %q", header)
	}

	entry, ok := parseHeader(header)
	if !ok {
		t.Fatalf("parseHeader(%q) did not match", header)
	}
	if entry.Level != Warning || entry.Tag != "db.pool main" || entry.Message != "message: with colon" {
		t.Fatalf("parseHeader = %+v", entry)
	}
	if !entry.Time.Equal(ts) {
		t.Fatalf("Time = %v, want %v", entry.Time, ts)
	}
}
