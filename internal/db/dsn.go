package db

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	kvPairRegex   = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)
	passwordRegex = regexp.MustCompile(`(password=)([^\s]+)`)
)

// SQLiteDSN turns a database file path into a DSN with foreign keys enforced.
func SQLiteDSN(file string) string {
	q := url.Values{}
	q.Set("_foreign_keys", "1")
	q.Set("_busy_timeout", "5000")
	return "file:" + file + "?" + q.Encode()
}

// NormalizeDSN accepts either a URL style DSN (postgres://...) or a lib/pq key=value list.
// It trims quotes and whitespace and, if given key=value form, returns it cleaned.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	// not key=value pairs: leave it for the driver to reject
	if !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// MaskDSN hides the password of a DSN for logging.
func MaskDSN(dsn string) string {
	if strings.Contains(dsn, "password=") {
		return passwordRegex.ReplaceAllString(dsn, `${1}***`)
	}
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	return dsn
}
