// Package pipeline drives source text through the frontend and into either
// the interpreter or the lowering in one call.
//
// Design: every call is an independent run with its own lexer, parser and
// scope chain. A run ID ties together the log records of one call. Errors
// are returned unchanged so callers still see kind, message and line.
package pipeline

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/tinypy/pkg/codegen"
	"github.com/GriffinCanCode/tinypy/pkg/diag"
	"github.com/GriffinCanCode/tinypy/pkg/frontend"
	"github.com/GriffinCanCode/tinypy/pkg/interp"
	"github.com/GriffinCanCode/tinypy/pkg/logger"
)

type Pipeline struct {
	file     string
	maxDepth int
	interp   []interp.Option
	log      *slog.Logger
}

type Option func(*Pipeline)

// WithFile names the source in log records.
func WithFile(name string) Option {
	return func(p *Pipeline) { p.file = name }
}

// WithMaxDepth sets the parser nesting limit.
func WithMaxDepth(n int) Option {
	return func(p *Pipeline) { p.maxDepth = n }
}

// WithInterpreter passes options through to the interpreter.
func WithInterpreter(opts ...interp.Option) Option {
	return func(p *Pipeline) { p.interp = append(p.interp, opts...) }
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		file:     "<input>",
		maxDepth: frontend.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.With("component", "pipeline", "file", p.file)
	return p
}

// run carries the per-call logger and timing.
type run struct {
	*Pipeline
	id    string
	log   *slog.Logger
	start time.Time
}

func (p *Pipeline) begin(op string) *run {
	id := uuid.NewString()
	r := &run{Pipeline: p, id: id, log: p.log.With("run", id), start: time.Now()}
	r.log.Debug("Pipeline started", "op", op)
	return r
}

func (r *run) end(err error) {
	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			logger.LogError(de.Kind.Phase(), r.file, de.Line, de.Msg)
		}
		r.log.Debug("Pipeline failed", "duration", time.Since(r.start), "error", err)
		return
	}
	r.log.Debug("Pipeline finished", "duration", time.Since(r.start))
}

// Tokenize lexes src into its full token stream.
func (p *Pipeline) Tokenize(src string) (tokens []frontend.Token, err error) {
	r := p.begin("tokenize")
	defer func() { r.end(err) }()
	return r.tokenize(src)
}

// Parse lexes and parses src.
func (p *Pipeline) Parse(src string) (program *frontend.Block, err error) {
	r := p.begin("parse")
	defer func() { r.end(err) }()
	return r.parse(src)
}

// Run parses src and evaluates it against a fresh top-level scope.
func (p *Pipeline) Run(src string) (*interp.Result, error) {
	return p.RunIn(src, interp.NewEnv(nil))
}

// RunIn parses src and evaluates it against globals, which keeps every
// binding made before a failure.
func (p *Pipeline) RunIn(src string, globals *interp.Env) (res *interp.Result, err error) {
	r := p.begin("run")
	defer func() { r.end(err) }()

	program, err := r.parse(src)
	if err != nil {
		return nil, err
	}

	logger.LogPhase("run")
	opts := append([]interp.Option{interp.WithLogger(r.log)}, p.interp...)
	res, err = interp.New(opts...).RunIn(program, globals)
	if err != nil {
		return nil, err
	}
	logger.LogRun(p.file, res.Globals.Len())
	logger.LogPhaseComplete("run")
	return res, nil
}

// Lower parses src and lowers it to a pseudo-assembly listing.
func (p *Pipeline) Lower(src string) (lines []string, err error) {
	r := p.begin("lower")
	defer func() { r.end(err) }()

	program, err := r.parse(src)
	if err != nil {
		return nil, err
	}

	logger.LogPhase("lower")
	lines, err = codegen.Lower(program)
	if err != nil {
		return nil, err
	}
	logger.LogLowering(p.file, len(lines))
	logger.LogPhaseComplete("lower")
	return lines, nil
}

func (r *run) tokenize(src string) ([]frontend.Token, error) {
	logger.LogPhase("lex")
	tokens, err := frontend.Tokenize(src)
	if err != nil {
		return nil, err
	}
	logger.LogLexing(r.file, len(tokens))
	logger.LogPhaseComplete("lex")
	return tokens, nil
}

func (r *run) parse(src string) (*frontend.Block, error) {
	tokens, err := r.tokenize(src)
	if err != nil {
		return nil, err
	}

	logger.LogPhase("parse")
	parser := frontend.NewParser(tokens)
	parser.MaxDepth = r.maxDepth
	program, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	logger.LogParsing(r.file, frontend.CountNodes(program))
	logger.LogPhaseComplete("parse")
	return program, nil
}

// Tokenize lexes src with default settings.
func Tokenize(src string) ([]frontend.Token, error) {
	return New().Tokenize(src)
}

// Parse parses src with default settings.
func Parse(src string) (*frontend.Block, error) {
	return New().Parse(src)
}

// Run evaluates src with default settings plus the given interpreter options.
func Run(src string, opts ...interp.Option) (*interp.Result, error) {
	return New(WithInterpreter(opts...)).Run(src)
}

// Lower lowers src with default settings.
func Lower(src string) ([]string, error) {
	return New().Lower(src)
}
