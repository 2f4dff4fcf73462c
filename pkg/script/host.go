package script

import (
	"log/slog"
	"sync"

	"boxbridge/pkg/output"
	"boxbridge/pkg/registry"
)

// Host is the function table a script calls into.
type Host interface {
	// CreateNode registers a box and makes it the current root.
	CreateNode(children []registry.Handle, props map[string]any) (registry.Handle, error)
	// CalculateLayout lays out the current root's tree.
	CalculateLayout()
	// GetLayout returns the computed geometry of h, empty if there is none.
	GetLayout(h registry.Handle) map[string]float32
	// WriteData replaces the output artifact with text.
	WriteData(text string) error
	// Print is a diagnostic channel with no effect on the registry.
	Print(msg string)
}

// Session is the Host backing one pipeline run. It binds a Registry to an
// output Sink and remembers what the script wrote.
type Session struct {
	reg    *registry.Registry
	sink   output.Sink
	logger *slog.Logger

	mu      sync.Mutex
	written bool
	text    string
	fatal   error
}

// NewSession returns a Session over reg writing to sink. A nil logger means
// slog.Default().
func NewSession(reg *registry.Registry, sink output.Sink, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{reg: reg, sink: sink, logger: logger}
}

// Registry returns the session's registry.
func (s *Session) Registry() *registry.Registry {
	return s.reg
}

func (s *Session) CreateNode(children []registry.Handle, props map[string]any) (registry.Handle, error) {
	return s.reg.Create(children, props)
}

func (s *Session) CalculateLayout() {
	s.reg.ComputeLayout()
}

func (s *Session) GetLayout(h registry.Handle) map[string]float32 {
	return s.reg.LayoutOf(h)
}

// WriteData persists text. A sink failure is remembered as fatal so the run
// fails even when the script catches the exception.
func (s *Session) WriteData(text string) error {
	if err := s.sink.Persist(text); err != nil {
		s.mu.Lock()
		s.fatal = err
		s.mu.Unlock()
		s.logger.Error("Failed to write output", "error", err)
		return err
	}
	s.mu.Lock()
	s.written = true
	s.text = text
	s.mu.Unlock()
	s.logger.Debug("Wrote output", "bytes", len(text))
	return nil
}

func (s *Session) Print(msg string) {
	s.logger.Info("Script print", slog.Group("script", "msg", msg))
}

// Output returns the last text written and whether anything was.
func (s *Session) Output() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.written
}

// Fatal returns the output error that ended the run, if any.
func (s *Session) Fatal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatal
}
