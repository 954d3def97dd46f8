package app

import (
	"net/url"
	"strings"
)

// pgTarget is a postgres connection string in either lib/pq form: a
// postgres:// URL or space separated key=value pairs.
type pgTarget struct {
	raw  string
	url  *url.URL
	keys map[string]string
}

func parsePGTarget(raw string) pgTarget {
	raw = strings.TrimSpace(raw)
	target := pgTarget{raw: raw}
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		target.url = u
		return target
	}

	target.keys = make(map[string]string)
	for _, pair := range strings.Fields(raw) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		target.keys[key] = strings.Trim(value, `"'`)
	}
	return target
}

func (t pgTarget) param(key string) string {
	if t.url != nil {
		return t.url.Query().Get(key)
	}
	return t.keys[key]
}

// dbName is empty when the connection string leaves it to the server default.
func (t pgTarget) dbName() string {
	if t.url != nil {
		return strings.TrimSpace(strings.TrimPrefix(t.url.Path, "/"))
	}
	return t.keys["dbname"]
}

// driverDSN returns the string handed to lib/pq. An explicit
// binary_parameters setting in the input always wins.
func (t pgTarget) driverDSN(binaryParameters bool) string {
	if !binaryParameters || t.param("binary_parameters") != "" {
		return t.raw
	}
	if t.url == nil {
		return strings.TrimSpace(t.raw + " binary_parameters=yes")
	}

	u := *t.url
	query := u.Query()
	query.Set("binary_parameters", "yes")
	u.RawQuery = query.Encode()
	return u.String()
}
