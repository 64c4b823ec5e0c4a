// Package minijs provides the public API for parsing and running minijs
// programs against a context.
//
// minijs is a small JavaScript-like fragment: assignment to existing names,
// single-level property reads and writes, + and -, > and ==, && and ||,
// if/else, number/boolean/string literals and (...) / {...} grouping. All
// binary operators share one precedence level and associate left to right.
//
// Example usage:
//
//	ctx := map[string]interface{}{
//		"a": 3,
//		"b": map[string]interface{}{"x": 0},
//	}
//
//	out, err := minijs.Run("if (a > 2) { b.x = a - 1 }", ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	// out["b"] == map[string]interface{}{"x": 2}; ctx is unchanged
package minijs

import (
	"github.com/lacquerai/minijs/internal/ast"
	"github.com/lacquerai/minijs/internal/evaluator"
	"github.com/lacquerai/minijs/internal/parser"
)

// Program is a parsed source. Programs are immutable and may be evaluated
// any number of times, from any number of goroutines.
type Program = ast.Program

// Node is any node of a parsed program
type Node = ast.Node

// Position locates a token in the source
type Position = ast.Position

// Cache stores parsed programs keyed by their source text
type Cache interface {
	Get(source string) (*Program, bool)
	Put(source string, program *Program)
}

// Option configures a call to Run.
type Option func(*runConfig)

type runConfig struct {
	cache Cache
}

// WithCache makes Run look up parsed programs in cache before parsing, and
// store newly parsed programs in it.
func WithCache(cache Cache) Option {
	return func(c *runConfig) {
		c.cache = cache
	}
}

// Parse turns source into a Program.
//
// Errors:
//   - *LexError when the source contains a character no token starts with
//     (anything other than letters, digits, _, ", + - > = . ( ) { } & | and
//     spaces/tabs), an unterminated string, or a number literal out of range
//     (outside the int64 range)
//   - *SyntaxError when the tokens do not form exactly one expression
func Parse(source string) (*Program, error) {
	return parser.Parse(source)
}

// Evaluate runs an already parsed program against a copy of context and
// returns the copy.
func Evaluate(program *Program, context map[string]interface{}) (map[string]interface{}, error) {
	out, err := evaluator.Run(program, evaluator.Context(context))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Run parses source and evaluates it against context.
//
// The context is copied before evaluation (including nested mappings), so
// the map passed in is never modified; the updated copy is returned. Any
// error aborts the run and no context is returned.
//
// Parameters:
//   - source: the program text; empty source returns an unchanged copy
//   - context: variable bindings; values are numbers, booleans, strings or
//     map[string]interface{} for names used with property access
//   - options: functional options such as WithCache
//
// Errors can be *LexError, *SyntaxError, *UndefinedNameError,
// *UndefinedPropertyError or *TypeError; use errors.As to inspect them.
//
// Example:
//
//	out, err := minijs.Run("a = a + 1", map[string]interface{}{"a": 1})
//	// out["a"] == 2
func Run(source string, context map[string]interface{}, options ...Option) (map[string]interface{}, error) {
	cfg := &runConfig{}
	for _, option := range options {
		option(cfg)
	}

	var program *Program
	if cfg.cache != nil {
		program, _ = cfg.cache.Get(source)
	}
	if program == nil {
		var err error
		program, err = Parse(source)
		if err != nil {
			return nil, err
		}
		if cfg.cache != nil {
			cfg.cache.Put(source, program)
		}
	}

	return Evaluate(program, context)
}
