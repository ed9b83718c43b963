// Package revision implements git's revision parameter grammar
// (gitrevisions(7)): refs, ancestry operators (~N, ^N), reflog/checkout
// selectors (@{...}), object-type peeling (^{commit}), and the trailing
// colon path form (rev:path).
package revision

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Revisioner is one step of a parsed revision expression.
type Revisioner interface {
	re()
}

// Ref is a reference or object name, e.g. "HEAD", "master", an abbreviated
// hash, or a fully-qualified "refs/heads/master".
type Ref string

func (Ref) re() {}

// TildePath walks n first-parent generations back (rev~n).
type TildePath struct{ Depth int }

func (TildePath) re() {}

// CaretPath selects the nth parent of a commit (rev^n); rev^ is rev^1,
// and rev^0 is the commit itself.
type CaretPath struct{ Depth int }

func (CaretPath) re() {}

// CaretType peels rev until it resolves to an object of the given type
// (rev^{commit}, rev^{tree}, rev^{blob}, rev^{tag}, or "" for rev^{}).
type CaretType struct{ Type string }

func (CaretType) re() {}

// AtReflog selects the nth prior value of rev's reflog (rev@{n}).
type AtReflog struct{ N int }

func (AtReflog) re() {}

// AtCheckout selects the nth previous branch checked out (@{-n}).
type AtCheckout struct{ N int }

func (AtCheckout) re() {}

// AtUpstream selects the upstream branch configured for rev (rev@{u} or
// rev@{upstream}).
type AtUpstream struct{}

func (AtUpstream) re() {}

// Colon selects path inside the tree that rev resolves to (rev:path).
type Colon struct{ Path string }

func (Colon) re() {}

// Parse tokenizes and parses a gitrevisions(7) expression into an ordered
// list of Revisioner steps, applied left to right starting from the
// revision's base ref/object name.
func Parse(rev string) ([]Revisioner, error) {
	p := &parser{s: newScanner(strings.NewReader(rev))}
	return p.parse()
}

type parser struct {
	s    *scanner
	tok  token
	data string

	hasPushback bool
	pbTok       token
	pbData      string
}

func (p *parser) next() error {
	if p.hasPushback {
		p.tok, p.data = p.pbTok, p.pbData
		p.hasPushback = false
		return nil
	}

	tok, data, err := p.s.scan()
	if err != nil {
		return err
	}
	p.tok, p.data = tok, data
	return nil
}

// pushback makes the next call to next() return tok/data again instead of
// scanning, used when a lookahead token turns out to belong to the
// following grammar step.
func (p *parser) pushback(tok token, data string) {
	p.hasPushback = true
	p.pbTok, p.pbData = tok, data
}

func (p *parser) parse() ([]Revisioner, error) {
	var steps []Revisioner
	var ref strings.Builder

	flushRef := func() {
		if ref.Len() > 0 {
			steps = append(steps, Ref(ref.String()))
			ref.Reset()
		}
	}

	for {
		if err := p.next(); err != nil {
			return nil, err
		}

		switch p.tok {
		case eof:
			flushRef()
			return steps, nil

		case tilde:
			flushRef()
			n, err := p.parseOptionalNumber()
			if err != nil {
				return nil, err
			}
			steps = append(steps, TildePath{Depth: n})

		case caret:
			flushRef()
			step, err := p.parseCaret()
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)

		case at:
			flushRef()
			step, err := p.parseAt()
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)

		case colon:
			flushRef()
			path, err := io.ReadAll(p.remaining())
			if err != nil {
				return nil, err
			}
			steps = append(steps, Colon{Path: string(path)})
			return steps, nil

		case word, number, dot, slash, minus, emark, qmark, asterisk, obracket:
			ref.WriteString(p.data)

		case tokenError:
			return nil, fmt.Errorf("revision: unexpected character %q", p.data)

		default:
			return nil, fmt.Errorf("revision: unexpected token %q", p.data)
		}
	}
}

// remaining drains the rest of the scanner's underlying reader, used once
// a colon path is found (the rest of the expression is a literal path,
// not further grammar).
func (p *parser) remaining() io.Reader {
	return p.s.r
}

// parseOptionalNumber reads a decimal number following ~ or ^; absence of
// digits defaults to 1, matching git's own "~" == "~1" convention.
func (p *parser) parseOptionalNumber() (int, error) {
	tok, data, err := p.s.scan()
	if err != nil {
		return 0, err
	}
	if tok != number {
		// absence of a digit means depth 1 (git's "~" == "~1"), and the
		// token we peeked belongs to whatever follows.
		p.pushback(tok, data)
		return 1, nil
	}

	n, err := strconv.Atoi(data)
	if err != nil {
		return 0, fmt.Errorf("revision: invalid number %q", data)
	}
	return n, nil
}

func (p *parser) parseCaret() (Revisioner, error) {
	tok, data, err := p.s.scan()
	if err != nil {
		return nil, err
	}

	switch tok {
	case number:
		n, err := strconv.Atoi(data)
		if err != nil {
			return nil, fmt.Errorf("revision: invalid number %q", data)
		}
		return CaretPath{Depth: n}, nil

	case obrace:
		var typ strings.Builder
		for {
			tok, data, err := p.s.scan()
			if err != nil {
				return nil, err
			}
			if tok == cbrace {
				return CaretType{Type: typ.String()}, nil
			}
			if tok == eof {
				return nil, fmt.Errorf("revision: unterminated ^{...}")
			}
			typ.WriteString(data)
		}

	default:
		p.pushback(tok, data)
		return CaretPath{Depth: 1}, nil
	}
}

func (p *parser) parseAt() (Revisioner, error) {
	tok, _, err := p.s.scan()
	if err != nil {
		return nil, err
	}
	if tok != obrace {
		return nil, fmt.Errorf("revision: expected '{' after '@'")
	}

	var body strings.Builder
	for {
		tok, data, err := p.s.scan()
		if err != nil {
			return nil, err
		}
		if tok == cbrace {
			break
		}
		if tok == eof {
			return nil, fmt.Errorf("revision: unterminated @{...}")
		}
		body.WriteString(data)
	}

	sel := body.String()
	switch {
	case sel == "u" || sel == "upstream":
		return AtUpstream{}, nil
	case strings.HasPrefix(sel, "-"):
		n, err := strconv.Atoi(sel[1:])
		if err != nil {
			return nil, fmt.Errorf("revision: invalid checkout selector %q", sel)
		}
		return AtCheckout{N: n}, nil
	default:
		if sel == "" {
			return AtReflog{N: 0}, nil
		}
		n, err := strconv.Atoi(sel)
		if err != nil {
			return nil, fmt.Errorf("revision: unsupported @{...} selector %q", sel)
		}
		return AtReflog{N: n}, nil
	}
}
