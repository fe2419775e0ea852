package goduck

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
)

const memoryPrefix = ":memory:"

var inMemorySeq atomic.Uint64

// Options is a parsed data source name.
type Options struct {
	// Path is the canonical database path the instance is cached under.
	Path     string
	InMemory bool
	// Config holds engine settings by their engine names.
	Config map[string]string
}

// ParseDSN parses duckdb:[//]path[?key=value&...]. The prefix is optional.
// An empty path or :memory: opens a private in-memory database, a distinct
// one per call; :memory:name opens an in-memory database shared by every
// DSN naming it.
//
// Keys: mode (ro, rw, rwc, memory), defaultOrder (asc, desc),
// defaultNullOrder (first, last), externalAccess and unsignedExtensions
// (true, false), maxMemory and threads.
func ParseDSN(dsn string) (Options, error) {
	rest := strings.TrimPrefix(dsn, "duckdb:")
	rest = strings.TrimPrefix(rest, "//")

	database, params, _ := strings.Cut(rest, "?")
	database, err := url.PathUnescape(database)
	if err != nil {
		return Options{}, newError(ErrConfiguration, err, "invalid database path %q", database)
	}

	opts := Options{Config: map[string]string{}}
	if database == "" || database == memoryPrefix || strings.HasPrefix(database, memoryPrefix) {
		opts.InMemory = true
	}

	values, err := url.ParseQuery(params)
	if err != nil {
		return Options{}, newError(ErrConfiguration, err, "invalid parameters %q", params)
	}
	for key, vs := range values {
		value := vs[len(vs)-1]
		if err := opts.set(key, value); err != nil {
			return Options{}, err
		}
	}

	switch {
	case database == "" || database == memoryPrefix:
		opts.Path = fmt.Sprintf("%sgoduck-%d", memoryPrefix, inMemorySeq.Add(1))
	case opts.InMemory && !strings.HasPrefix(database, memoryPrefix):
		opts.Path = memoryPrefix + database
	default:
		opts.Path = database
	}
	if opts.InMemory && opts.Config["access_mode"] == "READ_ONLY" {
		return Options{}, newError(ErrConfiguration, nil, "an in-memory database cannot be opened read-only")
	}

	opts.Path, err = CanonicalPath(opts.Path)
	if err != nil {
		return Options{}, err
	}
	return opts, nil
}

func unknownValue(key, value string, expected ...string) error {
	return newError(ErrConfiguration, nil, "unknown value %q for `%s`, expected one of: `%s`",
		value, key, strings.Join(expected, "`, `"))
}

func (o *Options) set(key, value string) error {
	switch key {
	case "mode":
		switch value {
		case "ro":
			o.Config["access_mode"] = "READ_ONLY"
		case "rw", "rwc":
			o.Config["access_mode"] = "READ_WRITE"
		case "memory":
			o.InMemory = true
		default:
			return unknownValue(key, value, "ro", "rw", "rwc", "memory")
		}
	case "defaultOrder":
		switch value {
		case "asc", "desc":
			o.Config["default_order"] = value
		default:
			return unknownValue(key, value, "asc", "desc")
		}
	case "defaultNullOrder":
		switch value {
		case "first", "last":
			o.Config["default_null_order"] = "nulls_" + value
		default:
			return unknownValue(key, value, "first", "last")
		}
	case "externalAccess", "unsignedExtensions":
		if value != "true" && value != "false" {
			return unknownValue(key, value, "true", "false")
		}
		name := "enable_external_access"
		if key == "unsignedExtensions" {
			name = "allow_unsigned_extensions"
		}
		o.Config[name] = value
	case "maxMemory":
		if value == "" {
			return newError(ErrConfiguration, nil, "`maxMemory` needs a value")
		}
		o.Config["max_memory"] = value
	case "threads":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 1 {
			return newError(ErrConfiguration, err, "`threads` expects a positive integer, got %q", value)
		}
		o.Config["threads"] = strconv.FormatInt(n, 10)
	default:
		return newError(ErrConfiguration, nil, "unknown parameter `%s`", key)
	}
	return nil
}

// CanonicalPath is the key the instance cache files a database under:
// in-memory names as they are, file paths made absolute and clean.
func CanonicalPath(path string) (string, error) {
	if strings.HasPrefix(path, memoryPrefix) {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", newError(ErrConfiguration, err, "cannot resolve %q", path)
	}
	return abs, nil
}
