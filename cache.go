package goduck

import (
	"log/slog"
	"sync"
)

// InstanceCache keeps one open database instance per canonical path. The
// engine level cache behind it is created on first use. An InstanceCache is
// meant to be built once per process and handed to everything that opens
// connections.
type InstanceCache struct {
	engine Engine
	log    *slog.Logger

	once    sync.Once
	native  *Guard[NativeCache]
	initErr error

	mu     sync.Mutex
	dbs    map[string]*Guard[Database]
	closed bool
}

func NewInstanceCache(engine Engine, logger *slog.Logger) *InstanceCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstanceCache{
		engine: engine,
		log:    logger,
		native: Absent[NativeCache](),
		dbs:    map[string]*Guard[Database]{},
	}
}

func (ic *InstanceCache) init() error {
	ic.once.Do(func() {
		nc, err := ic.engine.NewCache()
		if err != nil {
			ic.initErr = newError(ErrConfiguration, err, "could not create the instance cache")
			return
		}
		ic.native = Acquire(nc, NativeCache.Close)
	})
	return ic.initErr
}

// GetOrCreate returns the instance open at path together with a new
// connection to it, opening the instance with config on the first call for
// path. Later calls for the same path ignore config. Nothing is cached when
// opening fails.
func (ic *InstanceCache) GetOrCreate(path string, config map[string]string) (Database, *Guard[Connection], error) {
	if err := ic.init(); err != nil {
		return nil, nil, err
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()

	if ic.closed {
		return nil, nil, newError(ErrConfiguration, nil, "instance cache is closed")
	}

	dbGuard, ok := ic.dbs[path]
	if !ok {
		nc, _ := ic.native.Get()
		db, err := nc.GetOrCreate(path, config)
		if err != nil {
			return nil, nil, newError(ErrConfiguration, err, "could not open %q", path)
		}
		dbGuard = Acquire(db, Database.Close)
		ic.dbs[path] = dbGuard
		ic.log.Debug("database opened", "path", path, "config", config)
	}

	db := dbGuard.Borrow()
	conn, err := db.Connect()
	if err != nil {
		return nil, nil, newError(ErrConfiguration, err, "could not connect to %q", path)
	}
	return db, Acquire(conn, Connection.Close), nil
}

// Len reports how many instances are open.
func (ic *InstanceCache) Len() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return len(ic.dbs)
}

// Close closes every cached instance and then the engine level cache.
// Connections handed out earlier must be closed by their owners first.
func (ic *InstanceCache) Close() {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	if ic.closed {
		return
	}
	ic.closed = true
	for path, g := range ic.dbs {
		g.Close()
		delete(ic.dbs, path)
	}
	ic.native.Close()
	ic.log.Debug("instance cache closed")
}
