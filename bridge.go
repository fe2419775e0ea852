package goduck

import (
	"cmp"
	"context"
	"database/sql/driver"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Cardinality is how many rows the caller wants back.
type Cardinality uint8

const (
	// Many streams every row of the result.
	Many Cardinality = iota
	// One sends at most the first row.
	One
	// None sends a Summary instead of rows.
	None
)

func (c Cardinality) String() string {
	switch c {
	case Many:
		return "many"
	case One:
		return "one"
	case None:
		return "none"
	}
	return "unknown"
}

// Request is one statement to run on a connection.
type Request struct {
	SQL         string
	Args        []driver.NamedValue
	Cardinality Cardinality
}

// Summary reports the effect of a statement that returns no rows.
type Summary struct {
	RowsAffected int64
	// LastInsertID is always 0, the engine has no row ids to report.
	LastInsertID int64
}

// Message is one item of a Stream: a Summary or a Row.
type Message struct {
	Summary *Summary
	Row     Row
}

// ColumnInfo describes a result column.
type ColumnInfo struct {
	Name string
	Type *Type
}

type BridgeOptions struct {
	// PoolSize bounds the number of statements running at once. Defaults
	// to four workers per CPU.
	PoolSize int
	// RowBuffer is how many rows a Many request may run ahead of its
	// consumer. Defaults to 256.
	RowBuffer int
	Logger    *slog.Logger
	Metrics   *Metrics
}

// Bridge runs statements on pool workers, where blocking in the engine does
// not hold up the caller, and streams their results back.
type Bridge struct {
	pool      *ants.Pool
	rowBuffer int
	log       *slog.Logger
	metrics   *Metrics
}

func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = runtime.NumCPU() * 4
	}
	if opts.RowBuffer <= 0 {
		opts.RowBuffer = 256
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	b := &Bridge{
		rowBuffer: opts.RowBuffer,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
	pool, err := ants.NewPool(opts.PoolSize, ants.WithPanicHandler(func(v any) {
		b.log.Warn("bridge worker panic", "panic", v)
	}))
	if err != nil {
		return nil, newError(ErrConfiguration, err, "could not create worker pool")
	}
	b.pool = pool
	return b, nil
}

// Close waits up to timeout for running statements and stops the workers.
func (b *Bridge) Close(timeout time.Duration) error {
	return b.pool.ReleaseTimeout(timeout)
}

// Execute starts req on conn and returns the stream of its results. It
// waits, bounded by ctx, until conn has finished its previous request.
// Cancelling ctx or closing the stream interrupts the statement.
func (b *Bridge) Execute(ctx context.Context, conn *Conn, req Request) (*Stream, error) {
	native, err := conn.acquire(ctx)
	if err != nil {
		return nil, err
	}

	capacity := 1
	if req.Cardinality == Many {
		capacity = b.rowBuffer
	}
	wctx, cancel := context.WithCancelCause(ctx)
	s := &Stream{
		ch:     make(chan item, capacity),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	// The request is copied so later changes by the caller are not seen.
	req.Args = append([]driver.NamedValue(nil), req.Args...)
	conn.setCancel(cancel)
	if err := b.pool.Submit(func() { b.run(wctx, conn, native, req, s) }); err != nil {
		cancel(nil)
		conn.setCancel(nil)
		conn.release()
		return nil, newError(ErrExecution, err, "could not schedule statement")
	}
	return s, nil
}

type item struct {
	msg Message
	err error
}

// job is the state of one request on its worker.
type job struct {
	b      *Bridge
	ctx    context.Context
	req    Request
	s      *Stream
	rows   int
	chunks int
}

// send delivers it unless the request was cancelled first.
func (j *job) send(it item) bool {
	select {
	case j.s.ch <- it:
		return true
	case <-j.ctx.Done():
		j.b.log.Debug("discarded result after cancellation", "sql", j.req.SQL)
		return false
	}
}

// fail delivers err as the terminal item and returns the outcome to record.
func (j *job) fail(err error, outcome string) string {
	if j.ctx.Err() != nil {
		return outcomeCanceled
	}
	j.s.publish(nil, err)
	j.send(item{err: err})
	return outcome
}

func (b *Bridge) run(ctx context.Context, conn *Conn, native Connection, req Request, s *Stream) {
	start := time.Now()
	j := &job{b: b, ctx: ctx, req: req, s: s}
	outcome := outcomeDone

	stop := context.AfterFunc(ctx, native.Interrupt)
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("statement panicked", "sql", req.SQL, "panic", r)
			outcome = j.fail(newError(ErrExecution, nil, "statement panicked: %v", r), outcomeExecutionError)
		}
		stop()
		if outcome == outcomeCanceled {
			s.err = context.Cause(ctx)
		}
		s.publish(nil, cmp.Or(s.err, ErrStreamClosed))
		close(s.ch)
		conn.setCancel(nil)
		conn.release()
		b.metrics.request(req.Cardinality, outcome, start)
		b.log.Debug("statement finished",
			"sql", req.SQL,
			"cardinality", req.Cardinality,
			"outcome", outcome,
			"rows", j.rows,
			"chunks", j.chunks,
			"elapsed", time.Since(start))
		close(s.done)
	}()

	outcome = j.execute(native)
}

func (j *job) execute(native Connection) string {
	stmt, err := native.Prepare(j.req.SQL)
	if err != nil {
		return j.fail(engineError(ErrPrepare, err), outcomePrepareError)
	}
	defer stmt.Close()

	if err := stmt.Bind(j.req.Args); err != nil {
		return j.fail(engineError(ErrExecution, err), outcomeExecutionError)
	}
	res, err := stmt.Execute(j.req.Cardinality == Many)
	if err != nil {
		return j.fail(engineError(ErrExecution, err), outcomeExecutionError)
	}
	defer res.Close()

	columns := make([]ColumnInfo, res.ColumnCount())
	for i := range columns {
		t, err := res.ColumnType(i)
		if err != nil {
			return j.fail(engineError(ErrDecode, err), outcomeDecodeError)
		}
		columns[i] = ColumnInfo{Name: res.ColumnName(i), Type: t}
	}
	j.s.publish(columns, nil)

	if j.req.Cardinality == None || res.StatementType().Mutates() {
		if !j.send(item{msg: Message{Summary: &Summary{RowsAffected: res.RowsChanged()}}}) {
			return outcomeCanceled
		}
		return outcomeDone
	}

	for {
		if j.ctx.Err() != nil {
			return outcomeCanceled
		}
		chunk, err := res.Fetch()
		if err != nil {
			return j.fail(engineError(ErrExecution, err), outcomeExecutionError)
		}
		if chunk == nil {
			return outcomeDone
		}
		outcome, more := j.drain(chunk, columns)
		chunk.Close()
		if !more {
			return outcome
		}
	}
}

// drain sends the rows of chunk. more is false once the request is over.
func (j *job) drain(chunk Chunk, columns []ColumnInfo) (outcome string, more bool) {
	n := chunk.Len()
	if n == 0 {
		return outcomeDone, false
	}
	j.chunks++
	j.b.metrics.chunk()

	if chunk.ColumnCount() != len(columns) {
		err := newError(ErrDecode, nil, "chunk has %d columns, result has %d", chunk.ColumnCount(), len(columns))
		return j.fail(err, outcomeDecodeError), false
	}
	cols := make([]ColumnVector, len(columns))
	for i, c := range columns {
		v, err := chunk.Vector(i)
		if err != nil {
			return j.fail(engineError(ErrDecode, err), outcomeDecodeError), false
		}
		cols[i] = ColumnVector{Name: c.Name, Vector: v}
	}

	sent := 0
	defer func() { j.b.metrics.rows(sent) }()
	for row := 0; row < n; row++ {
		r, err := DecodeRow(cols, row)
		if err != nil {
			return j.fail(err, outcomeDecodeError), false
		}
		if !j.send(item{msg: Message{Row: r}}) {
			return outcomeCanceled, false
		}
		sent++
		j.rows++
		if j.req.Cardinality == One {
			return outcomeDone, false
		}
	}
	return outcomeDone, true
}

// Stream delivers the results of one request in order. It must be closed.
type Stream struct {
	ch     chan item
	done   chan struct{}
	cancel context.CancelCauseFunc
	// err is set before ch is closed when the request was cancelled.
	err error

	ready      chan struct{}
	readyOnce  sync.Once
	columns    []ColumnInfo
	columnsErr error

	closed atomic.Bool
}

func (s *Stream) publish(columns []ColumnInfo, err error) {
	s.readyOnce.Do(func() {
		s.columns = columns
		s.columnsErr = err
		close(s.ready)
	})
}

// Columns waits until the statement has executed and returns its columns.
// It returns the statement's error when preparing or executing it failed.
func (s *Stream) Columns(ctx context.Context) ([]ColumnInfo, error) {
	select {
	case <-s.ready:
		return s.columns, s.columnsErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Next returns the next message. It returns io.EOF after the last one, the
// request's error if it failed, and the cancellation cause if it was
// cancelled.
func (s *Stream) Next(ctx context.Context) (Message, error) {
	if s.closed.Load() {
		return Message{}, ErrStreamClosed
	}
	select {
	case it, ok := <-s.ch:
		if !ok {
			if s.err != nil {
				return Message{}, s.err
			}
			return Message{}, io.EOF
		}
		return it.msg, it.err
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Collect reads the stream to its end.
func (s *Stream) Collect(ctx context.Context) ([]Message, error) {
	var messages []Message
	for {
		msg, err := s.Next(ctx)
		if err == io.EOF {
			return messages, nil
		}
		if err != nil {
			return messages, err
		}
		messages = append(messages, msg)
	}
}

// Close stops the request if it is still running and waits for its worker
// to let go of the connection.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel(nil)
	<-s.done
	return nil
}
