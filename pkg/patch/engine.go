package patch

import (
	"context"
	"log/slog"
)

// Engine runs a fixed set of rules through the pipeline stages.
type Engine struct {
	stages map[Stage][]Rule
	strict bool
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrict makes NotFound outcomes and ambiguous regions fatal.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithLogger sets the logger used for stage and rule events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine groups rules by stage. Within a stage rules keep the order
// they were given in.
func NewEngine(rules []Rule, opts ...Option) *Engine {
	e := &Engine{
		stages: make(map[Stage][]Rule, len(Stages)),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, r := range rules {
		e.stages[r.Stage()] = append(e.stages[r.Stage()], r)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rules in execution order.
func (e *Engine) Rules() []Rule {
	var out []Rule
	for _, s := range Stages {
		out = append(out, e.stages[s]...)
	}
	return out
}

// RunOptions controls a single Run.
type RunOptions struct {
	Encoding string
	Atomic   bool
	// DryRun computes the result without persisting it.
	DryRun bool
}

// Transform applies every stage to text and returns the final buffer.
func (e *Engine) Transform(ctx context.Context, text string) (string, []Outcome, error) {
	report := &Report{}
	out, err := e.transform(ctx, text, report)
	return out, report.Outcomes, err
}

// Run loads the artifact at path, transforms it and persists the result.
// The returned report is never nil; on error its State is StateAborted.
func (e *Engine) Run(ctx context.Context, path string, opts RunOptions) (*Report, error) {
	src, err := Load(path, opts.Encoding)
	if err != nil {
		report := &Report{Target: path, DryRun: opts.DryRun}
		report.enter(StateAborted)
		e.logger.Error("load failed", slog.String("target", path), slog.Any("error", err))
		return report, err
	}
	return e.RunSource(ctx, src, opts)
}

// RunSource runs the pipeline over an already loaded source.
func (e *Engine) RunSource(ctx context.Context, src *Source, opts RunOptions) (*Report, error) {
	report := &Report{
		Target:       src.Path,
		Encoding:     src.Encoding,
		DryRun:       opts.DryRun,
		Before:       src.Text,
		After:        src.Text,
		DigestBefore: Digest(src.raw),
	}
	report.enter(StateLoaded)
	e.logger.Debug("loaded artifact",
		slog.String("target", src.Path),
		slog.String("encoding", src.Encoding),
		slog.Int("bytes", len(src.raw)))

	out, err := e.transform(ctx, src.Text, report)
	if err != nil {
		report.enter(StateAborted)
		return report, err
	}
	report.After = out
	report.Changed = out != src.Text

	if opts.DryRun {
		if data, err := src.Encode(out); err == nil {
			report.DigestAfter = Digest(data)
		}
		return report, nil
	}

	if err := ctx.Err(); err != nil {
		report.enter(StateAborted)
		return report, err
	}

	sink := Sink{Atomic: opts.Atomic}
	written, err := sink.Write(src, out)
	if err != nil {
		report.enter(StateAborted)
		e.logger.Error("persist failed", slog.String("target", src.Path), slog.Any("error", err))
		return report, err
	}
	report.Written = written
	if data, err := src.Encode(out); err == nil {
		report.DigestAfter = Digest(data)
	}
	report.enter(StatePersisted)
	e.logger.Debug("persisted artifact",
		slog.String("target", src.Path),
		slog.Bool("changed", report.Changed),
		slog.Bool("written", written))
	return report, nil
}

func (e *Engine) transform(ctx context.Context, text string, report *Report) (string, error) {
	for _, stage := range Stages {
		for _, rule := range e.stages[stage] {
			if err := ctx.Err(); err != nil {
				return text, err
			}

			next, o := rule.Apply(text)
			o.Rule = rule.Name()
			o.Kind = rule.Kind()
			o.Stage = stage
			report.Outcomes = append(report.Outcomes, o)

			e.logger.Debug("rule evaluated",
				slog.String("stage", string(stage)),
				slog.String("rule", o.Rule),
				slog.String("status", string(o.Status)),
				slog.Int("count", o.Count),
				slog.Int("candidates", o.Candidates))

			if o.Kind == KindRegionReplace && o.Candidates > 1 {
				e.logger.Warn("region anchors match more than one span; only the first is replaced",
					slog.String("rule", o.Rule), slog.Int("candidates", o.Candidates))
			}

			if e.strict {
				if err := strictCheck(o); err != nil {
					return text, &RuleError{Rule: o.Rule, Kind: o.Kind, Outcome: o, Err: err}
				}
			}
			text = next
		}
		report.enter(stage.doneState())
	}
	return text, nil
}

func strictCheck(o Outcome) error {
	if o.Status == StatusNotFound {
		return ErrRuleNotApplied
	}
	if o.Kind == KindRegionReplace && o.Candidates > 1 {
		return ErrAmbiguousRegion
	}
	return nil
}
