// File: lexer.go
// Title: Search Query Lexer
// Description: Character-driven state machine that builds clause trees from
//              query strings. Nested clauses are kept on an explicit frame
//              stack instead of the call stack.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial lexer implementation

package search

import (
	"strconv"
	"strings"
	"unicode"

	mberror "github.com/manebot/manebot/foundation/core/error"
)

const (
	quoteChar  = '"'
	escapeChar = '\\'
	openChar   = '('
	closeChar  = ')'
)

// Pagination directive prefixes, checked in order
var pagePrefixes = []string{"page:", "p:"}

// mode is the scanner currently owning the characters of a frame
type mode int

const (
	modeSeeking mode = iota
	modeString
	modeToken
)

// frame is the scanning state of one open clause
type frame struct {
	clause       *Clause
	requireClose bool

	mode    mode
	pending Operator // operator for the next element
	handled int      // completed elements in this clause

	// Element under construction
	elemOp Operator
	buf    strings.Builder
	escape bool
}

// finish records a completed element and resets the pending operator
func (f *frame) finish() {
	f.mode = modeSeeking
	f.pending = DefaultOperator
	f.handled++
	f.buf.Reset()
	f.escape = false
}

func (f *frame) emitToken() {
	f.clause.Add(&BareToken{Text: f.buf.String(), Op: f.elemOp})
	f.finish()
}

func (f *frame) emitString() {
	f.clause.Add(&StringLiteral{Text: f.buf.String(), Op: f.elemOp})
	f.finish()
}

// lexer holds the frame stack for a single Parse call
type lexer struct {
	root  *Clause
	stack []*frame
}

func newLexer() *lexer {
	root := &Clause{Op: Unspecified}
	return &lexer{
		root:  root,
		stack: []*frame{{clause: root, pending: Unspecified}},
	}
}

func (l *lexer) top() *frame {
	return l.stack[len(l.stack)-1]
}

// interpret feeds one character at byte offset pos into the state machine
func (l *lexer) interpret(pos int, c rune) error {
	f := l.top()

	switch f.mode {
	case modeString:
		switch {
		case f.escape:
			f.buf.WriteRune(c)
			f.escape = false
		case c == escapeChar:
			f.escape = true
		case c == quoteChar:
			f.emitString()
		default:
			f.buf.WriteRune(c)
		}
		return nil

	case modeToken:
		if unicode.IsSpace(c) {
			f.emitToken()
			return nil
		}
		if c != closeChar {
			f.buf.WriteRune(c)
			return nil
		}
		// The closing parenthesis ends the token and is then handled by
		// the clause itself
		f.emitToken()
	}

	return l.seek(pos, c)
}

// seek dispatches a character while no element scanner is active
func (l *lexer) seek(pos int, c rune) error {
	f := l.top()

	if unicode.IsSpace(c) {
		return nil
	}

	switch c {
	case quoteChar:
		f.mode = modeString
		f.elemOp = f.pending

	case '~', '+', '-':
		if f.handled <= 0 {
			return syntaxError(pos, c, "unexpected token: %c", c)
		}
		f.pending = operatorFor(c)

	case openChar:
		child := &Clause{Op: f.pending}
		f.clause.Add(child)
		l.stack = append(l.stack, &frame{
			clause:       child,
			requireClose: true,
			pending:      Unspecified,
		})

	case closeChar:
		if !f.requireClose {
			return syntaxError(pos, c, "unexpected end of clause")
		}
		l.stack = l.stack[:len(l.stack)-1]
		l.top().finish()

	default:
		f.mode = modeToken
		f.elemOp = f.pending
		f.buf.WriteRune(c)
	}

	return nil
}

// complete finishes the scan at end of input
func (l *lexer) complete(pos int) error {
	f := l.top()

	switch f.mode {
	case modeString:
		return syntaxError(pos, 0, "unterminated string")
	case modeToken:
		f.emitToken()
	}

	if f.requireClose {
		return syntaxError(pos, 0, "unmatched clause: missing %c", closeChar)
	}
	return nil
}

func operatorFor(c rune) Operator {
	switch c {
	case '+':
		return Merge
	case '-':
		return Exclude
	default:
		return Include
	}
}

func syntaxError(pos int, c rune, format string, args ...interface{}) *mberror.Error {
	err := mberror.Newf(format, args...).
		WithCode(mberror.CodeSyntax).
		WithOperation("search.Parse").
		WithDetail("position", pos)
	if c != 0 {
		err = err.WithDetail("char", string(c))
	}
	return err
}

// Parse lexes a query string into a Search. Any syntax error rejects the
// whole query.
func Parse(query string) (*Search, error) {
	l := newLexer()

	for pos, c := range query {
		if err := l.interpret(pos, c); err != nil {
			return nil, err
		}
	}

	if err := l.complete(len(query)); err != nil {
		return nil, err
	}

	page, err := extractPage(l.root)
	if err != nil {
		return nil, err
	}

	return &Search{Root: l.root, Page: page}, nil
}

// extractPage removes a trailing pagination directive from the deepest last
// clause and returns the page it names, or 1 when there is none.
func extractPage(root *Clause) (int, error) {
	clause := root
	for {
		nested, ok := clause.Last().(*Clause)
		if !ok {
			break
		}
		clause = nested
	}

	token, ok := clause.Last().(*BareToken)
	if !ok {
		return 1, nil
	}

	for _, prefix := range pagePrefixes {
		if !strings.HasPrefix(token.Text, prefix) {
			continue
		}

		value := token.Text[len(prefix):]
		page, err := strconv.Atoi(value)
		if err != nil {
			return 0, mberror.Wrap(err, "invalid page: "+value).
				WithCode(mberror.CodeInvalidFormat).
				WithOperation("search.Parse")
		}
		if page < 1 {
			return 0, mberror.Newf("invalid page: %d", page).
				WithCode(mberror.CodeInvalidFormat).
				WithOperation("search.Parse")
		}

		clause.Children = clause.Children[:len(clause.Children)-1]
		return page, nil
	}

	return 1, nil
}
