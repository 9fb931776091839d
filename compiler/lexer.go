package compiler

// Lexer scans Brainfuck source into command tokens. Any byte that is not
// one of the eight commands is a comment and is skipped.
type Lexer struct {
	src    string
	pos    int
	line   int
	column int
}

// NewLexer creates a lexer for the given source text.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:    src,
		line:   1,
		column: 1,
	}
}

// NextToken returns the next command token, or a TokenEOF token once the
// source is exhausted.
func (l *Lexer) NextToken() Token {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		pos := Position{Offset: l.pos, Line: l.line, Column: l.column}
		l.advance(ch)

		switch ch {
		case '+':
			return Token{Type: TokenPlus, Pos: pos}
		case '-':
			return Token{Type: TokenMinus, Pos: pos}
		case '>':
			return Token{Type: TokenRight, Pos: pos}
		case '<':
			return Token{Type: TokenLeft, Pos: pos}
		case '.':
			return Token{Type: TokenPrint, Pos: pos}
		case ',':
			return Token{Type: TokenRead, Pos: pos}
		case '[':
			return Token{Type: TokenOpen, Pos: pos}
		case ']':
			return Token{Type: TokenClose, Pos: pos}
		}
		// Comment byte, keep scanning.
	}
	return Token{Type: TokenEOF, Pos: Position{Offset: l.pos, Line: l.line, Column: l.column}}
}

func (l *Lexer) advance(ch byte) {
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// Tokens scans the whole source and returns all command tokens, excluding
// the trailing EOF token.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}
