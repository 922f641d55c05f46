// Package placeholder implements the detector set and the deterministic
// {{TAG-HASH8}} placeholder function: every sensitive literal a detector
// matches is replaced by a stable token derived from its category, a
// run salt, and the lowercased literal itself.
package placeholder

import (
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Category tags a placeholder with the kind of literal it replaced.
// Short forms are used on disk and in placeholders.
type Category string

const (
	IP   Category = "IP"
	MAC  Category = "MAC"
	File Category = "FILE"
	Cred Category = "CRED"
	Port Category = "PORT"
)

// Digest returns the 8 lowercase hex character stable digest of seed.
// Two calls with the same seed, in the same process or a different
// one, always agree — xxhash has no process-local state.
func Digest(seed string) string {
	sum := xxhash.Sum64String(seed)
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 8)
	v := uint32(sum)
	for i := 7; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf)
}

// Detector pairs a category with a compiled regex and salt, immutable
// after construction. Tier controls ordering: lower tiers are applied
// first so FILE_DIR/CRED/MAC/PORT run before IPV4 — an IPv4 literal
// nested inside a path or a credential value must not be rewritten out
// from under its parent match.
type Detector struct {
	Category Category
	Tier     int
	re       *regexp.Regexp
	seed1    string // digest(category+salt), precomputed once

	// rejectDottedExtension guards the IPv4 detector against RE2's lack
	// of lookaround: \b alone can't stop "1.2.3.4.5" from matching as
	// "1.2.3.4" plus a dangling ".5", since '.' is itself a non-word
	// char and already creates a boundary either side of it. When set,
	// a match immediately preceded by "<digit>." or followed by
	// ".<digit>" in the source text is part of a longer dotted run and
	// is discarded.
	rejectDottedExtension bool
}

func newDetector(category Category, tier int, pattern, salt string) *Detector {
	return &Detector{
		Category: category,
		Tier:     tier,
		re:       regexp.MustCompile(pattern),
		seed1:    Digest(string(category) + salt),
	}
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

// adjoinsExtraOctet reports whether the byte range [start,end) in text
// is glued to one more dotted digit group on either side.
func adjoinsExtraOctet(text string, start, end int) bool {
	if start >= 2 && text[start-1] == '.' && isDigitByte(text[start-2]) {
		return true
	}
	if end+1 < len(text) && text[end] == '.' && isDigitByte(text[end+1]) {
		return true
	}
	return false
}

// Placeholder computes placeholder(L) for a matched literal L:
//
//	seed1 = digest(T + S)
//	seed2 = digest(seed1 + lower(L))
//	placeholder = "{{" + T + "-" + seed2 + "}}"
//
// It is a pure function of (category, salt, lower(matched)) — the same
// literal always yields the same token, in this process or another,
// given the same salt.
func (d *Detector) Placeholder(matched string) string {
	seed2 := Digest(d.seed1 + strings.ToLower(matched))
	return "{{" + string(d.Category) + "-" + seed2 + "}}"
}

// Pattern returns the detector's regex source, for callers (the
// ripgrep strategy) that need to hand it to an external matcher rather
// than calling FindAll/Scrub directly.
func (d *Detector) Pattern() string { return d.re.String() }

// Match is one (start, end, text) occurrence reported by FindAll.
type Match struct {
	Start, End int
	Text       string
}

// FindAll returns every non-overlapping match of the detector's regex
// in text, leftmost-first.
func (d *Detector) FindAll(text string) []Match {
	idx := d.re.FindAllStringIndex(text, -1)
	if idx == nil {
		return nil
	}
	out := make([]Match, 0, len(idx))
	for _, pair := range idx {
		if d.rejectDottedExtension && adjoinsExtraOctet(text, pair[0], pair[1]) {
			continue
		}
		out = append(out, Match{Start: pair[0], End: pair[1], Text: text[pair[0]:pair[1]]})
	}
	return out
}

// Scrub rewrites every match of this detector in line with its placeholder.
func (d *Detector) Scrub(line string) string {
	if !d.rejectDottedExtension {
		return d.re.ReplaceAllStringFunc(line, d.Placeholder)
	}
	matches := d.FindAll(line)
	if len(matches) == 0 {
		return line
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(line[last:m.Start])
		b.WriteString(d.Placeholder(m.Text))
		last = m.End
	}
	b.WriteString(line[last:])
	return b.String()
}

const (
	ipv4Pattern = `\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9]{1,2})\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9]{1,2})(?:[:\\]\d+)?\b`
	macPattern  = `(?i)\b(?:[0-9a-f]{2}:){5}[0-9a-f]{2}\b`
	fileDirPattern = `\B/[^ \t:\n]+\b`
	portPattern    = `(?i)\bport\s*[#=:>-]\s*\d+`
)

// credentialKeywords lists the config-key identifiers whose value is
// always sensitive, regardless of its own shape.
var credentialKeywords = []string{
	"username", "user", "login", "password", "pass",
	"root_password", "root_username",
	"ipmi_password", "ipmi_user",
	"ipmi_user_supermicro", "ipmi_password_supermicro",
	"ipmi_user_cascadelake", "ipmi_password_cascadelake",
	"sudo_user", "vms_user", "ssh_user", "ssh_password",
	"vms_db_user", "vms_db_pass", "db_user", "redis_pass",
	"aws_ssh_user", "secret_key",
	"default_access_key_id", "default_secret_key_id",
	"default_support_access_key_id", "default_support_secret_key_id",
	"docker_registry",
	"mars_kafka_rest_password", "mars_kafka_rest_user",
	"admin_username", "admin_password", "admin_email",
	"support_username", "support_password",
	"api_key", "api_token", "access_token", "client_secret",
	"private_key", "auth_token",
}

func credentialPattern() string {
	return `\b(?:` + strings.Join(credentialKeywords, "|") + `)(?:[: =])+\S+`
}

// Tier constants controlling detector application order.
const (
	TierPrimary = 0 // FILE_DIR, CRED, MAC, PORT
	TierIPv4    = 1 // IPV4 — applied last so it never splits an address nested in a path
)

// Default returns the standard detector set, tier-ordered for Scrub
// callers that range over the slice in order.
func Default(salt string) []*Detector {
	ip := newDetector(IP, TierIPv4, ipv4Pattern, salt)
	ip.rejectDottedExtension = true
	return []*Detector{
		newDetector(File, TierPrimary, fileDirPattern, salt),
		newDetector(Cred, TierPrimary, credentialPattern(), salt),
		newDetector(MAC, TierPrimary, macPattern, salt),
		newDetector(Port, TierPrimary, portPattern, salt),
		ip,
	}
}

// ScrubLine applies every detector in detectors, in slice order, to
// line and returns the fully scrubbed result. Callers must pass
// detectors already tier-sorted (Default does this).
func ScrubLine(detectors []*Detector, line string) string {
	for _, d := range detectors {
		line = d.Scrub(line)
	}
	return line
}
