package placeholder

import (
	"regexp"
	"testing"
)

var placeholderRe = regexp.MustCompile(`^\{\{[A-Z]+-[0-9a-f]{8}\}\}$`)

func TestPlaceholderDeterministic(t *testing.T) {
	d := Default("1234")[4] // IP detector
	p1 := d.Placeholder("10.20.30.40")
	p2 := d.Placeholder("10.20.30.40")
	if p1 != p2 {
		t.Fatalf("placeholder not deterministic: %s vs %s", p1, p2)
	}
	if !placeholderRe.MatchString(p1) {
		t.Fatalf("placeholder %q does not match {{TAG-hash8}} shape", p1)
	}
}

func TestPlaceholderDiffersAcrossSalt(t *testing.T) {
	a := Default("1234")[4].Placeholder("10.20.30.40")
	b := Default("5678")[4].Placeholder("10.20.30.40")
	if a == b {
		t.Fatalf("expected different salts to yield different placeholders")
	}
}

func TestPlaceholderCaseInsensitiveOnInput(t *testing.T) {
	d := Default("1234")[2] // MAC detector
	a := d.Placeholder("AA:BB:CC:DD:EE:FF")
	b := d.Placeholder("aa:bb:cc:dd:ee:ff")
	if a != b {
		t.Fatalf("placeholder should key off lower(L): %s vs %s", a, b)
	}
}

func TestScenarioIPv4Only(t *testing.T) {
	dets := Default("1234")
	line := "connect from 10.20.30.40 ok"
	got := ScrubLine(dets, line)
	if got == line {
		t.Fatal("expected IPv4 to be scrubbed")
	}
	if !regexp.MustCompile(`^connect from \{\{IP-[0-9a-f]{8}\}\} ok$`).MatchString(got) {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestScenarioIPInsidePath(t *testing.T) {
	dets := Default("1234")
	line := "path /var/log/10.0.0.1.log failed"
	got := ScrubLine(dets, line)
	if !regexp.MustCompile(`^path \{\{FILE-[0-9a-f]{8}\}\} failed$`).MatchString(got) {
		t.Fatalf("expected only a FILE placeholder, got %q", got)
	}
}

func TestScenarioCredentialPair(t *testing.T) {
	dets := Default("1234")
	line := "ssh_user: admin"
	got := ScrubLine(dets, line)
	if !regexp.MustCompile(`^\{\{CRED-[0-9a-f]{8}\}\}$`).MatchString(got) {
		t.Fatalf("expected entire key/value replaced, got %q", got)
	}
}

func TestScenarioMACAndIPSameLine(t *testing.T) {
	dets := Default("1234")
	line := "host aa:bb:cc:dd:ee:ff at 192.168.1.1"
	got := ScrubLine(dets, line)
	if !regexp.MustCompile(`^host \{\{MAC-[0-9a-f]{8}\}\} at \{\{IP-[0-9a-f]{8}\}\}$`).MatchString(got) {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestIPv4WordBoundaryRejectsFifthOctet(t *testing.T) {
	d := Default("1234")[4]
	matches := d.FindAll("1.2.3.4.5")
	if len(matches) != 0 {
		t.Fatalf("expected no match for 1.2.3.4.5, got %v", matches)
	}
}

func TestFindAllReportsOffsets(t *testing.T) {
	d := Default("1234")[4]
	matches := d.FindAll("x 10.0.0.1 y")
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %d", len(matches))
	}
	if matches[0].Text != "10.0.0.1" {
		t.Fatalf("expected captured text 10.0.0.1, got %q", matches[0].Text)
	}
}
