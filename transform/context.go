// Package transform implements the transformation plumbing a template
// evaluator needs to run against a btree-backed source document: static
// configuration (message sink, include resolution, diagnostic logging),
// the dynamic per-evaluation context (context sequence/position, key
// index, variable bindings, the result tree being built), and the
// xsl:message/xsl:message-terminate sink. Compiling a stylesheet's
// template bodies into runnable callbacks is the caller's job — this
// package only supplies the context those callbacks run against.
package transform

import (
	"io"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/wilkmaciej/xdm/xdmerror"
)

// MessageSink receives the text of an xsl:message instruction. Returning
// an error aborts evaluation at the next boundary, the same as any other
// dynamic-context error.
type MessageSink func(text string) error

// IncludeResolver fetches the replacement text for an xsl:include/
// xsl:import href, already resolved against the stylesheet's base URI.
// The caller supplies this; fetching over a network or filesystem is
// outside this package's job.
type IncludeResolver func(resolvedHref string) (string, error)

type config struct {
	messageSink MessageSink
	resolver    IncludeResolver
	logger      *logrus.Logger
}

// Option configures a StaticContext, following the teacher pack's
// functional-options builder convention.
type Option func(*config)

// WithMessageSink registers the callback xsl:message invokes. Without one,
// messages are silently discarded (but terminate='yes' still aborts
// evaluation).
func WithMessageSink(fn MessageSink) Option {
	return func(c *config) { c.messageSink = fn }
}

// WithIncludeResolver registers the callback used to resolve xsl:include/
// xsl:import hrefs.
func WithIncludeResolver(fn IncludeResolver) Option {
	return func(c *config) { c.resolver = fn }
}

// WithLogger attaches a *logrus.Logger for diagnostic tracing of key
// population, xsl:message and include resolution. A nil logger (the default) discards
// everything.
func WithLogger(l *logrus.Logger) Option {
	return func(c *config) { c.logger = l }
}

// StaticContext carries the sinks that stay fixed across one evaluation:
// how xsl:message text is reported, how include/import hrefs resolve, and
// where diagnostic tracing goes. It is built once via NewStaticContext and
// never mutated afterwards.
type StaticContext struct {
	messageSink MessageSink
	resolver    IncludeResolver
	logger      *logrus.Logger
}

// NewStaticContext builds a StaticContext from the given options,
// defaulting the message sink to a no-op and the logger to one that
// discards everything.
func NewStaticContext(opts ...Option) *StaticContext {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.messageSink == nil {
		c.messageSink = func(string) error { return nil }
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetOutput(io.Discard)
	}
	return &StaticContext{messageSink: c.messageSink, resolver: c.resolver, logger: c.logger}
}

// Log returns the context's logger (never nil).
func (sc *StaticContext) Log() *logrus.Logger { return sc.logger }

// Message invokes the configured message sink with text, then, if
// terminate is set, returns a Terminated error carrying the fixed
// XTMM9000 code and text as its message, per xsl:message's termination
// contract. A sink error is returned as-is, never swallowed.
func (sc *StaticContext) Message(text string, terminate bool) error {
	sc.logger.WithField("terminate", terminate).Debug("xsl:message")
	if err := sc.messageSink(text); err != nil {
		return err
	}
	if terminate {
		return xdmerror.NewWithCode(xdmerror.Terminated, "XTMM9000", text)
	}
	return nil
}

// ResolveInclude resolves href against baseURI and fetches its replacement
// text through the configured resolver.
func (sc *StaticContext) ResolveInclude(baseURI, href string) (string, error) {
	if sc.resolver == nil {
		return "", xdmerror.New(xdmerror.Unknown, "no include resolver configured for xsl:include/xsl:import")
	}
	resolved := resolveHref(baseURI, href)
	sc.logger.WithFields(logrus.Fields{"base": baseURI, "href": href, "resolved": resolved}).
		Debug("resolving xsl:include/xsl:import")
	return sc.resolver(resolved)
}

// resolveHref joins href against baseURI using ordinary URI-reference
// resolution; a malformed baseURI or href just falls back to href itself,
// since this engine doesn't validate URIs beyond RFC 3986 reference
// resolution.
func resolveHref(baseURI, href string) string {
	base, err := url.Parse(baseURI)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
