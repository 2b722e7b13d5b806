package demoserver

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var blacklist = []string{
	"bit.ly/malware",
	"phishing-site.com",
	"malware-download.net",
	"fake-bank.com",
	"scam-site.org",
}

var (
	ipPattern       = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	encodedPattern  = regexp.MustCompile(`%[0-9a-fA-F]{2}`)
	dashesPattern   = regexp.MustCompile(`-{3,}`)
	longWordPattern = regexp.MustCompile(`[a-z]{30,}`)
)

// maxEncodedChars is the number of %XX escapes tolerated before flagging.
const maxEncodedChars = 5

// URLReport is a static inspection of a URL, without fetching it.
type URLReport struct {
	URL       string        `json:"url"`
	Valid     bool          `json:"is_valid"`
	Blacklist BlacklistHit  `json:"blacklist"`
	Patterns  PatternReport `json:"suspicious"`
	Structure URLStructure  `json:"structure"`
}

type BlacklistHit struct {
	Listed bool   `json:"is_blacklisted"`
	Reason string `json:"reason,omitempty"`
}

type PatternReport struct {
	Suspicious bool     `json:"has_suspicious_patterns"`
	Findings   []string `json:"findings"`
	// RiskScore is 20 per finding, capped at 100.
	RiskScore int `json:"risk_score"`
}

type URLStructure struct {
	Protocol       string `json:"protocol"`
	Domain         string `json:"domain"`
	Path           string `json:"path"`
	HTTPS          bool   `json:"has_https"`
	SubdomainCount int    `json:"subdomain_count"`
	PathDepth      int    `json:"path_depth"`
}

// InspectURL checks u against the blacklist and a set of phishing patterns.
func InspectURL(u *url.URL) URLReport {
	raw := u.String()
	return URLReport{
		URL:       raw,
		Valid:     true,
		Blacklist: checkBlacklist(u, raw),
		Patterns:  checkPatterns(raw),
		Structure: structureOf(u),
	}
}

func checkBlacklist(u *url.URL, raw string) BlacklistHit {
	host := strings.ToLower(u.Host)
	lower := strings.ToLower(raw)
	for _, entry := range blacklist {
		if strings.Contains(host, entry) || strings.Contains(lower, entry) {
			return BlacklistHit{Listed: true, Reason: fmt.Sprintf("Domain matches blacklist entry: %s", entry)}
		}
	}
	return BlacklistHit{}
}

func checkPatterns(raw string) PatternReport {
	findings := []string{}
	if ipPattern.MatchString(raw) {
		findings = append(findings, "URL uses IP address instead of domain name")
	}
	if strings.Contains(raw, "@") {
		findings = append(findings, "URL contains @ symbol (potential phishing)")
	}
	if len(encodedPattern.FindAllString(raw, -1)) > maxEncodedChars {
		findings = append(findings, "URL contains excessive encoded characters")
	}
	if dashesPattern.MatchString(raw) {
		findings = append(findings, "URL contains unusual dash patterns")
	}
	if longWordPattern.MatchString(raw) {
		findings = append(findings, "URL contains unusually long string sequences")
	}
	return PatternReport{
		Suspicious: len(findings) > 0,
		Findings:   findings,
		RiskScore:  min(len(findings)*20, 100),
	}
}

func structureOf(u *url.URL) URLStructure {
	labels := strings.Split(u.Host, ".")
	subdomains := 0
	if len(labels) > 2 {
		subdomains = len(labels) - 2
	}
	depth := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			depth++
		}
	}
	return URLStructure{
		Protocol:       u.Scheme,
		Domain:         u.Host,
		Path:           u.Path,
		HTTPS:          u.Scheme == "https",
		SubdomainCount: subdomains,
		PathDepth:      depth,
	}
}
