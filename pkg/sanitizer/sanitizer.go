package sanitizer

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dmitrymomot/styledoc/pkg/logger"
)

// maxSweepRounds bounds the final sweep. Each round only removes text, so
// a round without matches ends it; inputs still matching after this many
// rounds are emptied.
const maxSweepRounds = 8

// stripAll is the fail-closed path: every tag is removed, text is escaped.
var stripAll = bluemonday.StrictPolicy()

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithLogger sets the logger receiving audit and advisory records.
// Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sanitizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFilter replaces the structural pass with a custom HTMLFilter.
func WithFilter(f HTMLFilter) Option {
	return func(s *Sanitizer) {
		if f != nil {
			s.filter = f
		}
	}
}

// WithStrategy selects one of the built-in HTMLFilter implementations.
func WithStrategy(st Strategy) Option {
	return func(s *Sanitizer) {
		s.filter = st.filter()
	}
}

// Sanitizer removes script-executing constructs from untrusted HTML.
// It holds no mutable state and is safe for concurrent use.
type Sanitizer struct {
	policy *Policy
	filter HTMLFilter
	logger *slog.Logger
}

// New creates a Sanitizer for p. A nil policy means DefaultPolicy.
func New(p *Policy, opts ...Option) *Sanitizer {
	if p == nil {
		p = DefaultPolicy()
	}
	s := &Sanitizer{
		policy: p,
		filter: StructuralFilter{},
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("sanitizer"))
	return s
}

// Sanitize is a shorthand for New(p).Sanitize(ctx, raw).
func Sanitize(ctx context.Context, raw string, p *Policy) (string, error) {
	return New(p).Sanitize(ctx, raw)
}

// Policy returns the policy the sanitizer enforces.
func (s *Sanitizer) Policy() *Policy { return s.policy }

// Sanitize returns raw with every construct outside the policy removed.
// The only error is one wrapping ErrContentTooLarge; input is never truncated.
// Dangerous content is removed silently and reported to the audit log.
func (s *Sanitizer) Sanitize(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if n := utf8.RuneCountInString(raw); n > s.policy.MaxContentLength() {
		return "", fmt.Errorf("%w: %d characters, limit is %d", ErrContentTooLarge, n, s.policy.MaxContentLength())
	}

	s.precheck(ctx, raw)

	out, err := s.filter.Filter(raw, s.policy, s.auditor(ctx))
	if err != nil {
		s.logger.WarnContext(ctx, "sanitizer: markup could not be filtered, stripping all tags", logger.Error(err))
		out = stripAll.Sanitize(raw)
	}
	return s.sweep(ctx, out), nil
}

// FilterCSS is FilterCSS with drops reported to the audit log.
func (s *Sanitizer) FilterCSS(ctx context.Context, raw string) string {
	return newCSSFilter(s.policy, s.auditor(ctx)).filter(raw)
}

// FilterInlineStyle is FilterInlineStyle with drops reported to the audit log.
func (s *Sanitizer) FilterInlineStyle(ctx context.Context, raw string) string {
	return newCSSFilter(s.policy, s.auditor(ctx)).inline(raw)
}

// precheck logs blocked patterns found in the raw input. It never blocks:
// removal happens in the structural pass and the final sweep.
func (s *Sanitizer) precheck(ctx context.Context, raw string) {
	for i, re := range s.policy.blocked {
		if re.MatchString(raw) {
			s.logger.WarnContext(ctx, "sanitizer: blocked pattern in input",
				logger.Pattern(s.policy.sourcePatterns[i]),
			)
		}
	}
}

// sweep removes residual blocked-pattern matches from the serialized output
// until none is left.
func (s *Sanitizer) sweep(ctx context.Context, out string) string {
	for range maxSweepRounds {
		changed := false
		for i, re := range s.policy.blocked {
			if !re.MatchString(out) {
				continue
			}
			s.logger.WarnContext(ctx, "sanitizer: blocked pattern survived filtering",
				logger.Pattern(s.policy.sourcePatterns[i]),
			)
			out = re.ReplaceAllString(out, "")
			changed = true
		}
		if !changed {
			return out
		}
	}
	s.logger.ErrorContext(ctx, "sanitizer: output did not settle, dropping it",
		slog.Int("rounds", maxSweepRounds),
	)
	return ""
}

func (s *Sanitizer) auditor(ctx context.Context) AuditFunc {
	return func(kind, name, reason string) {
		s.logger.InfoContext(ctx, "sanitizer: dropped",
			logger.Kind(kind),
			logger.Name(name),
			logger.Reason(reason),
		)
	}
}
