// Package native implements the goduck engine contract over the DuckDB C
// API. It is the only package that calls into C or does pointer arithmetic
// on engine memory; every read is bounds checked before it happens.
//
// Building it needs duckdb.h and libduckdb. Point CGO_CFLAGS and
// CGO_LDFLAGS at them when they are not installed system wide.
package native

/*
#cgo LDFLAGS: -lduckdb
#include <stdlib.h>
#include <duckdb.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/barsdeveloper/goduck"
)

// Engine opens DuckDB databases.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (*Engine) NewCache() (goduck.NativeCache, error) {
	c := C.duckdb_create_instance_cache()
	if c == nil {
		return nil, errors.New("duckdb_create_instance_cache returned NULL")
	}
	return &cache{ptr: c}, nil
}

func init() {
	goduck.RegisterDriver("duckdb", NewEngine())
}

type cache struct {
	mu  sync.Mutex
	ptr C.duckdb_instance_cache
}

func (c *cache) GetOrCreate(path string, config map[string]string) (goduck.Database, error) {
	cfg, err := newConfig(config)
	if err != nil {
		return nil, err
	}
	defer C.duckdb_destroy_config(&cfg)

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ptr == nil {
		return nil, errors.New("instance cache is closed")
	}

	var db C.duckdb_database
	var cErr *C.char
	if C.duckdb_get_or_create_from_cache(c.ptr, cPath, &db, cfg, &cErr) != C.DuckDBSuccess {
		msg := "could not open database"
		if cErr != nil {
			msg = C.GoString(cErr)
			C.duckdb_free(unsafe.Pointer(cErr))
		}
		return nil, errors.New(msg)
	}
	return &database{ptr: db, path: path}, nil
}

func (c *cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ptr != nil {
		C.duckdb_destroy_instance_cache(&c.ptr)
		c.ptr = nil
	}
}

// newConfig applies settings in key order, so the first bad one reported is
// always the same.
func newConfig(settings map[string]string) (C.duckdb_config, error) {
	var cfg C.duckdb_config
	if C.duckdb_create_config(&cfg) != C.DuckDBSuccess {
		return nil, errors.New("could not allocate config")
	}

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := C.CString(k)
		value := C.CString(settings[k])
		state := C.duckdb_set_config(cfg, name, value)
		C.free(unsafe.Pointer(name))
		C.free(unsafe.Pointer(value))
		if state != C.DuckDBSuccess {
			C.duckdb_destroy_config(&cfg)
			return nil, fmt.Errorf("Invalid Input Error: could not set option %s=%q", k, settings[k])
		}
	}
	return cfg, nil
}

type database struct {
	mu   sync.Mutex
	ptr  C.duckdb_database
	path string
}

func (db *database) Connect() (goduck.Connection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.ptr == nil {
		return nil, fmt.Errorf("Connection Error: database %q is closed", db.path)
	}

	var conn C.duckdb_connection
	if C.duckdb_connect(db.ptr, &conn) != C.DuckDBSuccess {
		return nil, fmt.Errorf("Connection Error: could not connect to %q", db.path)
	}
	return &connection{ptr: conn}, nil
}

// Close drops this handle on the instance. The cache keeps its own
// reference, so the instance stays open until the cache is destroyed.
func (db *database) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.ptr != nil {
		C.duckdb_close(&db.ptr)
		db.ptr = nil
	}
}

type connection struct {
	ptr C.duckdb_connection
}

func (c *connection) Prepare(query string) (goduck.Statement, error) {
	cQuery := C.CString(query)
	defer C.free(unsafe.Pointer(cQuery))

	var stmt C.duckdb_prepared_statement
	if C.duckdb_prepare(c.ptr, cQuery, &stmt) != C.DuckDBSuccess {
		msg := "could not prepare statement"
		if e := C.duckdb_prepare_error(stmt); e != nil {
			msg = C.GoString(e)
		}
		C.duckdb_destroy_prepare(&stmt)
		return nil, errors.New(msg)
	}
	return &statement{ptr: stmt}, nil
}

func (c *connection) Interrupt() {
	C.duckdb_interrupt(c.ptr)
}

func (c *connection) Close() {
	C.duckdb_disconnect(&c.ptr)
}
