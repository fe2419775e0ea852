package goduck

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Conn is one native connection to a cached database instance. It runs at
// most one request at a time; further requests wait for the running one to
// finish. The instance itself belongs to the InstanceCache and outlives the
// connection.
type Conn struct {
	db     Database
	path   string
	handle *Guard[Connection]
	slot   *semaphore.Weighted

	inTransaction atomic.Bool
	closed        atomic.Bool

	mu sync.Mutex
	// cancel stops the request holding the slot.
	cancel context.CancelCauseFunc
}

// Establish opens (or reuses) the instance named by opts and connects to it.
func Establish(cache *InstanceCache, opts Options) (*Conn, error) {
	db, handle, err := cache.GetOrCreate(opts.Path, opts.Config)
	if err != nil {
		return nil, err
	}
	return &Conn{
		db:     db,
		path:   opts.Path,
		handle: handle,
		slot:   semaphore.NewWeighted(1),
	}, nil
}

// Path is the canonical path of the instance the connection is attached to.
func (c *Conn) Path() string {
	return c.path
}

// InTransaction reports whether a BEGIN issued through a transaction object
// is still open on the connection.
func (c *Conn) InTransaction() bool {
	return c.inTransaction.Load()
}

// acquire waits for the request slot. The caller must release it.
func (c *Conn) acquire(ctx context.Context) (Connection, error) {
	if c.closed.Load() {
		return nil, ErrConnClosed
	}
	if err := c.slot.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	native, ok := c.handle.Get()
	if !ok {
		c.slot.Release(1)
		return nil, ErrConnClosed
	}
	return native, nil
}

func (c *Conn) release() {
	c.slot.Release(1)
}

// setCancel records how to stop the request holding the slot. A request
// that starts after Close is cancelled at once.
func (c *Conn) setCancel(cancel context.CancelCauseFunc) {
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	if cancel != nil && c.closed.Load() {
		cancel(ErrConnClosed)
	}
}

// Interrupt asks the running request, if any, to stop.
func (c *Conn) Interrupt() {
	if native, ok := c.handle.Get(); ok {
		native.Interrupt()
	}
}

// Close stops the running request, waits for its worker to let go and
// disconnects. A stream left unread reports ErrConnClosed. Further requests
// fail with ErrConnClosed.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel(ErrConnClosed)
	}
	c.Interrupt()
	if err := c.slot.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer c.slot.Release(1)
	c.handle.Close()
	return nil
}
