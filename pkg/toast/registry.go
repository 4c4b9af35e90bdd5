// Package toast keeps the set of transient notifications shown to the user.
//
// A Registry owns one goroutine that applies every mutation in order, so
// callers on any goroutine see a consistent list. Create it with New and
// release it with Close.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"asset-tracker/pkg/apperr"
)

// Type is the visual category of a toast.
type Type string

const (
	Success Type = "success"
	Error   Type = "error"
	Info    Type = "info"
	Warning Type = "warning"
)

// Default display durations. A zero duration keeps the toast until it is
// removed.
const (
	DefaultDuration = 5 * time.Second
	ErrorDuration   = 8 * time.Second
)

// Toast is one notification.
type Toast struct {
	ID        string
	Message   string
	Type      Type
	Duration  time.Duration
	CreatedAt time.Time
	Paused    bool
}

// Sticky reports whether the toast never expires on its own.
func (t Toast) Sticky() bool {
	return t.Duration <= 0
}

type entry struct {
	toast Toast
	timer *time.Timer
	// gen invalidates expiry callbacks from timers that were replaced.
	gen uint64
}

// Registry is the live toast set.
type Registry struct {
	cmds   chan func(*state)
	done   chan struct{}
	closed chan struct{}
	once   sync.Once
	logger *zap.Logger
	now    func() time.Time
}

type state struct {
	r       *Registry
	order   []string
	entries map[string]*entry
	subs    map[int]func([]Toast)
	nextSub int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for boundary failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New starts a Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		cmds:   make(chan func(*state)),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.loop()
	return r
}

func (r *Registry) loop() {
	defer close(r.closed)
	st := &state{r: r, entries: map[string]*entry{}, subs: map[int]func([]Toast){}}
	for {
		select {
		case cmd := <-r.cmds:
			cmd(st)
		case <-r.done:
			for _, e := range st.entries {
				if e.timer != nil {
					e.timer.Stop()
				}
			}
			return
		}
	}
}

// send runs cmd on the registry goroutine and waits for it. It reports false
// once the registry is closed.
func (r *Registry) send(cmd func(*state)) bool {
	ran := make(chan struct{})
	select {
	case r.cmds <- func(st *state) {
		cmd(st)
		close(ran)
	}:
	case <-r.done:
		return false
	}
	<-ran
	return true
}

// post queues cmd without waiting. Timer callbacks use it so that an expiry
// racing Close never blocks.
func (r *Registry) post(cmd func(*state)) {
	select {
	case r.cmds <- cmd:
	case <-r.done:
	}
}

// Close stops the registry goroutine and every pending timer. Calls after
// Close are no-ops.
func (r *Registry) Close() {
	r.once.Do(func() { close(r.done) })
	<-r.closed
}

// Add shows message for duration and returns the new toast's id.
func (r *Registry) Add(message string, typ Type, duration time.Duration) string {
	id := uuid.NewString()
	t := Toast{ID: id, Message: message, Type: typ, Duration: duration, CreatedAt: r.now()}
	r.send(func(st *state) {
		e := &entry{toast: t}
		st.entries[id] = e
		st.order = append(st.order, id)
		st.arm(e)
		st.notify()
	})
	return id
}

// Remove dismisses the toast with id. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.send(func(st *state) {
		if st.remove(id) {
			st.notify()
		}
	})
}

// ClearAll dismisses every toast.
func (r *Registry) ClearAll() {
	r.send(func(st *state) {
		if len(st.order) == 0 {
			return
		}
		for _, e := range st.entries {
			if e.timer != nil {
				e.timer.Stop()
			}
		}
		st.entries = map[string]*entry{}
		st.order = nil
		st.notify()
	})
}

// Pause stops the countdown of the toast with id, e.g. while it is hovered.
func (r *Registry) Pause(id string) {
	r.send(func(st *state) {
		e, ok := st.entries[id]
		if !ok || e.toast.Paused {
			return
		}
		e.toast.Paused = true
		e.gen++
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		st.notify()
	})
}

// Resume restarts the countdown of a paused toast with its full duration.
func (r *Registry) Resume(id string) {
	r.send(func(st *state) {
		e, ok := st.entries[id]
		if !ok || !e.toast.Paused {
			return
		}
		e.toast.Paused = false
		st.arm(e)
		st.notify()
	})
}

// List returns the active toasts in the order they were added.
func (r *Registry) List() []Toast {
	var out []Toast
	if !r.send(func(st *state) { out = st.snapshot() }) {
		return nil
	}
	return out
}

// Subscribe calls fn with the full list after every change, starting with
// the current list. fn runs on the registry goroutine and must not call back
// into the Registry.
func (r *Registry) Subscribe(fn func([]Toast)) (unsubscribe func()) {
	var id int
	r.send(func(st *state) {
		id = st.nextSub
		st.nextSub++
		st.subs[id] = fn
		fn(st.snapshot())
	})
	return func() {
		r.send(func(st *state) { delete(st.subs, id) })
	}
}

// ShowSuccess shows a success toast. The optional duration overrides
// DefaultDuration.
func (r *Registry) ShowSuccess(message string, duration ...time.Duration) string {
	return r.Add(message, Success, pick(duration, DefaultDuration))
}

// ShowInfo shows an informational toast.
func (r *Registry) ShowInfo(message string, duration ...time.Duration) string {
	return r.Add(message, Info, pick(duration, DefaultDuration))
}

// ShowWarning shows a warning toast.
func (r *Registry) ShowWarning(message string, duration ...time.Duration) string {
	return r.Add(message, Warning, pick(duration, DefaultDuration))
}

// ShowError formats err for the user and shows it as an error toast. The
// optional duration overrides ErrorDuration.
func (r *Registry) ShowError(err error, duration ...time.Duration) string {
	return r.Add(apperr.UserMessage(err), Error, pick(duration, ErrorDuration))
}

func pick(d []time.Duration, def time.Duration) time.Duration {
	if len(d) > 0 {
		return d[0]
	}
	return def
}

func (st *state) arm(e *entry) {
	if e.toast.Sticky() {
		return
	}
	e.gen++
	gen := e.gen
	id := e.toast.ID
	r := st.r
	e.timer = time.AfterFunc(e.toast.Duration, func() {
		r.post(func(st *state) {
			cur, ok := st.entries[id]
			if !ok || cur.gen != gen {
				return
			}
			st.remove(id)
			st.notify()
		})
	})
}

func (st *state) remove(id string) bool {
	e, ok := st.entries[id]
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(st.entries, id)
	for i, oid := range st.order {
		if oid == id {
			st.order = append(st.order[:i:i], st.order[i+1:]...)
			break
		}
	}
	return true
}

func (st *state) snapshot() []Toast {
	out := make([]Toast, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, st.entries[id].toast)
	}
	return out
}

func (st *state) notify() {
	if len(st.subs) == 0 {
		return
	}
	list := st.snapshot()
	for _, fn := range st.subs {
		fn(list)
	}
}
