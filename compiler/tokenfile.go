package compiler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Token file codec
// ---------------------------------------------------------------------------

// DefaultTokenFile is where the scanner leaves its output by default.
const DefaultTokenFile = "lex_output.txt"

// ReadTokens decodes a token file: whitespace-separated kind numbers, with
// identifier and number kinds followed by their text. A skip token is
// returned like any other; Compile rejects it.
func ReadTokens(r io.Reader) ([]Token, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	var toks []Token
	for sc.Scan() {
		word := sc.Text()
		n, err := strconv.Atoi(word)
		if err != nil {
			return nil, &Error{Kind: LexicalError, Msg: fmt.Sprintf("token file: %q is not a token kind", word)}
		}
		kind := TokenKind(n)
		if !kind.Valid() {
			return nil, &Error{Kind: LexicalError, Msg: fmt.Sprintf("token file: unknown token kind %d", n)}
		}
		tok := Token{Kind: kind}
		if kind.HasText() {
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return nil, fmt.Errorf("reading tokens: %w", err)
				}
				return nil, &Error{Kind: LexicalError, Msg: fmt.Sprintf("token file: %s token without text at end of input", kind)}
			}
			tok.Text = sc.Text()
			if len(tok.Text) > MaxTextLen {
				return nil, &Error{Kind: LexicalError, Msg: fmt.Sprintf("token file: %q is longer than %d characters", tok.Text, MaxTextLen)}
			}
		}
		toks = append(toks, tok)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading tokens: %w", err)
	}
	return toks, nil
}

// ReadTokenFile reads the token file at path.
func ReadTokenFile(path string) ([]Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTokens(f)
}

// WriteTokens encodes toks in token file form on a single line.
func WriteTokens(w io.Writer, toks []Token) error {
	words := make([]string, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind == TokenEOF {
			continue
		}
		words = append(words, strconv.Itoa(int(tok.Kind)))
		if tok.Kind.HasText() {
			words = append(words, tok.Text)
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(words, " "))
	return err
}

// WriteTokenFile writes toks to path.
func WriteTokenFile(path string, toks []Token) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteTokens(f, toks)
}
