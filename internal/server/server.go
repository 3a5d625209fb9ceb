package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dopd-io/dopd/internal/logger"
	"github.com/dopd-io/dopd/internal/protocol/wire"
	"github.com/dopd-io/dopd/internal/ratelimiter"
	"github.com/dopd-io/dopd/pkg/metrics"
)

// Role identifies which side of the spawn boundary an execution context is
// on. The parent owns the listening endpoint; a worker never does.
type Role int

const (
	RoleParent Role = iota
	RoleWorker
)

func (r Role) String() string {
	switch r {
	case RoleParent:
		return "parent"
	case RoleWorker:
		return "worker"
	default:
		return "unknown"
	}
}

// Config holds the server's tunables.
type Config struct {
	// Port is the TCP port to listen on. 0 lets the OS pick (tests).
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// MaxConnections bounds concurrently running workers. New connections
	// past the bound are rejected at accept time. 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// AcceptRate/AcceptBurst throttle admission of new connections per
	// second. 0 disables throttling.
	AcceptRate  uint `mapstructure:"accept_rate"`
	AcceptBurst uint `mapstructure:"accept_burst"`

	// ReadTimeout bounds a worker's wait for its one request message.
	// 0 means no deadline, matching the originally observed behavior of
	// letting a silent client hold its worker.
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"min=0"`

	// ShutdownTimeout bounds the wait for in-flight workers after the
	// listener closes. Workers are never force-closed; on timeout they are
	// left to finish on their own.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`

	// MaxMessageSize bounds the declared body length of one request.
	// 0 selects wire.DefaultMaxMessageSize.
	MaxMessageSize uint32 `mapstructure:"max_message_size"`
}

const defaultShutdownTimeout = 30 * time.Second

type acceptResult struct {
	conn net.Conn
	err  error
}

// Server owns the listening endpoint and the coordinator event loop.
type Server struct {
	config  Config
	handler Handler
	logger  *logger.Logger
	metrics metrics.ServerMetrics
	limiter *ratelimiter.RateLimiter

	mu        sync.Mutex
	listener  net.Listener
	closed    atomic.Bool
	closeOnce sync.Once

	acceptResults chan acceptResult
	completions   chan workerExit

	// loopDone is closed when the coordinator stops consuming events, so
	// late workers and the acceptor never block on a dead channel.
	loopDone chan struct{}

	activeWorkers sync.WaitGroup
	workerCount   atomic.Int32
}

// New creates a Server. handler must not be nil; a nil log selects the
// process default; m may be nil to disable metrics.
func New(cfg Config, handler Handler, log *logger.Logger, m metrics.ServerMetrics) *Server {
	if handler == nil {
		panic("server: handler cannot be nil")
	}
	if log == nil {
		log = logger.Default()
	}

	var limiter *ratelimiter.RateLimiter
	if cfg.AcceptRate > 0 {
		limiter = ratelimiter.New(cfg.AcceptRate, cfg.AcceptBurst)
	}

	return &Server{
		config:        cfg,
		handler:       handler,
		logger:        log,
		metrics:       m,
		limiter:       limiter,
		acceptResults: make(chan acceptResult, 1),
		completions:   make(chan workerExit, 64),
		loopDone:      make(chan struct{}),
	}
}

// Listen binds the listening endpoint. Failure is a *BindError and fatal.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return &BindError{Port: s.config.Port, Err: err}
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Role reports the current role of this execution context. The listening
// endpoint being open is the sole criterion: a context that has closed or
// never owned it is, by definition, not the parent.
func (s *Server) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil && !s.closed.Load() {
		return RoleParent
	}
	return RoleWorker
}

// ActiveWorkers reports how many workers are currently running.
func (s *Server) ActiveWorkers() int {
	return int(s.workerCount.Load())
}

// Stop closes the listening endpoint, causing Serve to drain and return.
// Idempotent and safe to call from any goroutine.
func (s *Server) Stop() {
	s.closeListener()
}

func (s *Server) closeListener() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.mu.Lock()
		listener := s.listener
		s.mu.Unlock()
		if listener != nil {
			listener.Close()
		}
	})
}

// Serve runs the coordinator event loop until a termination signal or
// context cancellation closes the listener and all in-flight workers are
// reaped (or the shutdown timeout passes). It binds first if Listen was not
// called.
//
// Everything the loop reacts to - accept results, SIGTERM/SIGINT, worker
// completions - arrives over channels consumed by this one goroutine, so
// role checks and the actions taken on them are never split across
// concurrent handlers.
func (s *Server) Serve(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	defer close(s.loopDone)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	go s.acceptLoop(ctx)

	s.logger.Info("listening on %s [pid:%d role:%s]", s.Addr(), os.Getpid(), s.Role())

	cancel := ctx.Done()
	for {
		select {
		case <-cancel:
			cancel = nil // fires once; the clean stop arrives via acceptResults
			s.logger.Info("context cancelled [pid:%d]", os.Getpid())
			s.closeListener()

		case sig := <-sigs:
			// Role is checked and acted on inside this one iteration.
			if s.Role() == RoleParent {
				s.logger.Info("caught signal (parent) [pid:%d signal:%s]", os.Getpid(), sig)
				signal.Stop(sigs) // one shutdown is enough, do not re-arm
				s.closeListener()
				s.logger.Info("closed listening endpoint [pid:%d]", os.Getpid())
			}

		case exit := <-s.completions:
			s.reapAll(exit)

		case result := <-s.acceptResults:
			if result.err != nil {
				if errors.Is(result.err, net.ErrClosed) {
					// The distinguishable clean-stop condition.
					s.logger.Info("acceptor stopped [pid:%d]", os.Getpid())
					return s.awaitWorkers()
				}
				s.logger.Error("accept error: %v", result.err)
				if s.metrics != nil {
					s.metrics.AcceptError()
				}
				continue
			}
			if s.metrics != nil {
				s.metrics.ConnectionAccepted()
			}
			s.spawnWorker(ctx, result.conn)
		}
	}
}

// acceptLoop waits for connections and posts every outcome, success or
// error, to the coordinator. It re-arms immediately after posting; only the
// listener's closed condition ends the loop.
func (s *Server) acceptLoop(ctx context.Context) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				// Context gone; the listener close will surface the stop.
				s.closeListener()
			}
		}

		conn, err := listener.Accept()

		select {
		case s.acceptResults <- acceptResult{conn: conn, err: err}:
		case <-s.loopDone:
			if conn != nil {
				conn.Close()
			}
			return
		}

		if err != nil && errors.Is(err, net.ErrClosed) {
			return
		}
	}
}

// spawnWorker creates the isolated execution context for one accepted
// connection. The worker receives the connection and its collaborators and
// nothing else; the bookkeeping around the spawn (waitgroup, counters,
// completion event) stays on the parent side of the boundary.
func (s *Server) spawnWorker(ctx context.Context, conn net.Conn) {
	if s.config.MaxConnections > 0 && s.ActiveWorkers() >= s.config.MaxConnections {
		s.logger.Warn("connection limit %d reached, rejecting %s",
			s.config.MaxConnections, conn.RemoteAddr())
		conn.Close()
		return
	}

	w := newWorker(conn, s.handler, s.logger, s.config.maxMessageSize(), s.config.ReadTimeout)

	s.activeWorkers.Add(1)
	s.workerCount.Add(1)
	if s.metrics != nil {
		s.metrics.WorkerStarted()
	}
	s.logger.Debug("spawned worker %s for %s [role:%s]", w.id, conn.RemoteAddr(), w.Role())

	go func() {
		start := time.Now()
		err := w.run(ctx)

		// Post the completion before releasing the waitgroup so that by the
		// time Wait returns every exit event is at least buffered and the
		// final drain in awaitWorkers observes it.
		exit := workerExit{id: w.id, err: err, duration: time.Since(start)}
		select {
		case s.completions <- exit:
		case <-s.loopDone:
		}

		s.workerCount.Add(-1)
		s.activeWorkers.Done()
	}()
}

// reapAll collects the exit status of every worker that has completed so
// far. One completion wakeup can stand for several terminations, so the
// pending events are drained in a loop rather than dequeued one at a time.
func (s *Server) reapAll(first workerExit) {
	reaped := 1
	s.reap(first)

	for {
		select {
		case exit := <-s.completions:
			s.reap(exit)
			reaped++
		default:
			if reaped > 1 {
				s.logger.Debug("reaped %d workers in one pass", reaped)
			}
			if s.metrics != nil {
				s.metrics.WorkersReaped(reaped)
			}
			return
		}
	}
}

func (s *Server) reap(exit workerExit) {
	if exit.err != nil {
		s.logger.Debug("reaped worker %s after %s [err:%v]", exit.id, exit.duration, exit.err)
	} else {
		s.logger.Debug("reaped worker %s after %s", exit.id, exit.duration)
	}
	if s.metrics != nil {
		s.metrics.WorkerCompleted(exit.duration, exit.err)
	}
}

// awaitWorkers waits for in-flight workers after the listener has closed,
// reaping completions as they arrive. Workers are never force-closed: past
// the timeout they are left running and the server returns.
func (s *Server) awaitWorkers() error {
	timeout := s.config.ShutdownTimeout
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}

	idle := make(chan struct{})
	go func() {
		s.activeWorkers.Wait()
		close(idle)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case exit := <-s.completions:
			s.reapAll(exit)
		case <-idle:
			s.drainCompletions()
			s.logger.Info("all workers completed [pid:%d]", os.Getpid())
			return nil
		case <-timer.C:
			s.logger.Warn("shutdown timeout after %s with %d workers in flight, leaving them to finish",
				timeout, s.ActiveWorkers())
			return nil
		}
	}
}

func (s *Server) drainCompletions() {
	for {
		select {
		case exit := <-s.completions:
			s.reapAll(exit)
		default:
			return
		}
	}
}

// maxMessageSize resolves the configured bound, falling back to the wire
// default.
func (c Config) maxMessageSize() uint32 {
	if c.MaxMessageSize == 0 {
		return wire.DefaultMaxMessageSize
	}
	return c.MaxMessageSize
}
