package honeypot

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler runs one protocol dialogue over an accepted connection. It
// must return when the connection is exhausted, errors out, or ctx is
// cancelled; the listener closes the connection afterwards. Handlers
// never see each other's sessions.
type Handler interface {
	Name() string
	Handle(ctx context.Context, conn net.Conn)
}

// Sensor is anything the fleet can start and drain: a TCP listener
// wrapping a Handler, or the web honeypot's HTTP server.
type Sensor interface {
	Name() string
	Start(ctx context.Context) error
	Shutdown(grace time.Duration)
}

// Listener binds one TCP port and hands every accepted connection to a
// fresh goroutine running the handler. The accept loop is the only
// serialization point; sessions share nothing but the event store.
type Listener struct {
	addr        string
	handler     Handler
	maxSessions int
	logger      zerolog.Logger

	ln     net.Listener
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	sem   chan struct{}
}

// NewListener configures a listener for addr. maxSessions caps the
// number of concurrent sessions; 0 means unbounded, one goroutine per
// connection. Connections arriving over the cap are closed immediately.
func NewListener(addr string, handler Handler, maxSessions int, logger zerolog.Logger) *Listener {
	l := &Listener{
		addr:        addr,
		handler:     handler,
		maxSessions: maxSessions,
		logger:      logger.With().Str("honeypot", handler.Name()).Logger(),
		conns:       make(map[net.Conn]struct{}),
	}
	if maxSessions > 0 {
		l.sem = make(chan struct{}, maxSessions)
	}
	return l
}

func (l *Listener) Name() string { return l.handler.Name() }

// Addr returns the bound address, useful when listening on ":0".
func (l *Listener) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Start binds the port and launches the accept loop. A bind failure is
// returned to the caller and is fatal to this sensor; it never affects
// sensors on other ports.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	l.ln = ln

	sessCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.logger.Info().Str("addr", ln.Addr().String()).Msg("Honeypot listening")

	l.wg.Add(1)
	go l.acceptLoop(sessCtx)
	return nil
}

func (l *Listener) acceptLoop(ctx context.Context) {
	defer l.wg.Done()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				l.logger.Debug().Err(err).Msg("Accept failed")
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
			}
			return
		}

		if !l.admit() {
			l.logger.Debug().
				Str("remote", conn.RemoteAddr().String()).
				Msg("Session cap reached, rejecting connection")
			conn.Close()
			continue
		}

		l.track(conn)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.release()
			defer l.untrack(conn)
			defer conn.Close()

			l.logger.Info().
				Str("remote", conn.RemoteAddr().String()).
				Msg("Connection accepted")
			l.handler.Handle(ctx, conn)
		}()
	}
}

func (l *Listener) admit() bool {
	if l.sem == nil {
		return true
	}
	select {
	case l.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (l *Listener) release() {
	if l.sem != nil {
		<-l.sem
	}
}

func (l *Listener) track(conn net.Conn) {
	l.mu.Lock()
	l.conns[conn] = struct{}{}
	l.mu.Unlock()
}

func (l *Listener) untrack(conn net.Conn) {
	l.mu.Lock()
	delete(l.conns, conn)
	l.mu.Unlock()
}

// Shutdown stops accepting, signals in-flight sessions through their
// context, and waits up to grace for them to finish. Sessions still
// blocked on peer I/O after the grace period have their connections
// closed out from under them.
func (l *Listener) Shutdown(grace time.Duration) {
	if l.ln != nil {
		l.ln.Close()
	}
	if l.cancel != nil {
		l.cancel()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		l.mu.Lock()
		n := len(l.conns)
		for conn := range l.conns {
			conn.Close()
		}
		l.mu.Unlock()
		if n > 0 {
			l.logger.Warn().Int("sessions", n).Msg("Grace period expired, forcing sessions closed")
		}
		<-done
	}
	l.logger.Info().Msg("Honeypot stopped")
}

// SplitAddr breaks a peer address into IP and port. Unparseable
// addresses are recorded literally with port zero, never dropped.
func SplitAddr(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String(), tcp.Port
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	p, _ := strconv.Atoi(port)
	return host, p
}
