// Package mapfile implements the persistent map's line-oriented CSV format
// (spec §4.3): parsing with delta-encoded module ids, and serialization of
// newly minted rows. Grounded on the teacher's internal/config/gitignore.go
// line-by-line bufio.Scanner parsing style, adapted to a streaming
// character-level parser because the grammar here (fixed four-field rows
// with per-character charsets) needs column-accurate error spans that a
// line-based Scanner can't give for free.
package mapfile

import (
	"bufio"
	"fmt"
	"io"

	"github.com/standardbeagle/xiss/internal/idtypes"
)

// Row is one parsed map-file record. ModuleID is nil when this row's module
// is the same as the previous row's (spec §4.3 delta encoding); the first
// row of a stream always has a non-nil ModuleID.
type Row struct {
	Kind     idtypes.IdKind
	ModuleID *string
	Local    string
	Global   string
}

// InvalidChar reports an unexpected character at a specific line/column.
type InvalidChar struct {
	Line, Column int
	Char         byte
}

func (e *InvalidChar) Error() string {
	return fmt.Sprintf("mapfile: invalid character %q at line %d, column %d", e.Char, e.Line, e.Column)
}

// UnexpectedEOL reports a row that ended before all four fields were read.
type UnexpectedEOL struct {
	Line int
}

func (e *UnexpectedEOL) Error() string {
	return fmt.Sprintf("mapfile: unexpected end of line %d", e.Line)
}

// IOError wraps an underlying I/O failure encountered while reading.
type IOError struct {
	Underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("mapfile: io error: %v", e.Underlying)
}

func (e *IOError) Unwrap() error {
	return e.Underlying
}

func isModuleStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

func isModuleRest(b byte) bool {
	return isModuleStart(b) || b == '-' || b == '/'
}

func isLocalStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isLocalRest(b byte) bool {
	return isLocalStart(b) || (b >= '0' && b <= '9')
}

func isGlobalStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isGlobalRest(b byte) bool {
	return isGlobalStart(b) || (b >= '0' && b <= '9') || b == '_' || b == '-'
}

// Parser streams Rows out of a reader holding the persistent map format.
type Parser struct {
	r            *bufio.Reader
	line, column int
	prevModule   string
	havePrev     bool
	done         bool
}

// NewParser wraps r for row-at-a-time parsing.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: bufio.NewReader(r), line: 1, column: 1}
}

func (p *Parser) readByte() (byte, error) {
	b, err := p.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b == '\n' {
		p.line++
		p.column = 1
	} else {
		p.column++
	}
	return b, nil
}

func (p *Parser) unreadByte() {
	_ = p.r.UnreadByte()
	p.column--
}

// readField reads bytes while pred holds and stops at the first byte that
// does not match, pushing that byte back for the caller to check. End of
// input also ends a non-empty field. atLeastOne requires at least one byte
// to have been consumed.
func (p *Parser) readField(pred func(byte) bool, atLeastOne bool) (string, error) {
	startLine, startCol := p.line, p.column
	var buf []byte
	for {
		b, err := p.readByte()
		if err != nil {
			if err == io.EOF {
				if len(buf) > 0 {
					return string(buf), nil
				}
				return "", &UnexpectedEOL{Line: startLine}
			}
			return "", &IOError{Underlying: err}
		}
		if pred(b) {
			buf = append(buf, b)
			continue
		}
		if len(buf) == 0 && atLeastOne {
			return "", &InvalidChar{Line: startLine, Column: startCol, Char: b}
		}
		p.unreadByte()
		return string(buf), nil
	}
}

func (p *Parser) expect(want byte) error {
	b, err := p.readByte()
	if err != nil {
		if err == io.EOF {
			return &UnexpectedEOL{Line: p.line}
		}
		return &IOError{Underlying: err}
	}
	if b != want {
		return &InvalidChar{Line: p.line, Column: p.column - 1, Char: b}
	}
	return nil
}

// Next parses and returns the next Row, or io.EOF when the stream is
// exhausted. The last row may end at end of input without a trailing
// newline; WriteRow always writes one.
func (p *Parser) Next() (Row, error) {
	if p.done {
		return Row{}, io.EOF
	}

	kindByte, err := p.readByte()
	if err != nil {
		if err == io.EOF {
			p.done = true
			return Row{}, io.EOF
		}
		return Row{}, &IOError{Underlying: err}
	}
	kind, ok := idtypes.KindFromLetter(kindByte)
	if !ok {
		return Row{}, &InvalidChar{Line: p.line, Column: p.column - 1, Char: kindByte}
	}
	if err := p.expect(','); err != nil {
		return Row{}, err
	}

	moduleID, err := p.readField(isModuleRest, true)
	if err != nil {
		return Row{}, err
	}
	if !isModuleStart(moduleID[0]) {
		return Row{}, &InvalidChar{Line: p.line, Column: p.column, Char: moduleID[0]}
	}
	if err := p.expect(','); err != nil {
		return Row{}, err
	}

	localID, err := p.readField(isLocalRest, true)
	if err != nil {
		return Row{}, err
	}
	if !isLocalStart(localID[0]) {
		return Row{}, &InvalidChar{Line: p.line, Column: p.column, Char: localID[0]}
	}
	if err := p.expect(','); err != nil {
		return Row{}, err
	}

	globalID, err := p.readField(isGlobalRest, true)
	if err != nil {
		return Row{}, err
	}
	if !isGlobalStart(globalID[0]) {
		return Row{}, &InvalidChar{Line: p.line, Column: p.column, Char: globalID[0]}
	}

	// global_id is terminated by '\n' or end-of-input.
	b, err := p.readByte()
	if err != nil && err != io.EOF {
		return Row{}, &IOError{Underlying: err}
	}
	if err == nil && b != '\n' {
		return Row{}, &InvalidChar{Line: p.line, Column: p.column - 1, Char: b}
	}
	if err == io.EOF {
		p.done = true
	}

	row := Row{Kind: kind, Local: localID, Global: globalID}
	if p.havePrev && p.prevModule == moduleID {
		row.ModuleID = nil
	} else {
		m := moduleID
		row.ModuleID = &m
	}
	p.prevModule = moduleID
	p.havePrev = true
	return row, nil
}

// ParseAll drains the parser into a slice, stopping at the first error.
func ParseAll(r io.Reader) ([]Row, error) {
	p := NewParser(r)
	var rows []Row
	for {
		row, err := p.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// WriteRow appends one fully-resolved row (never delta-encoded; the writer
// always emits the explicit module id — delta encoding is a parser-side
// convenience, not a file-format requirement) to w.
func WriteRow(w io.Writer, kind idtypes.IdKind, moduleID, local, global string) error {
	_, err := fmt.Fprintf(w, "%c,%s,%s,%s\n", kind.Letter(), moduleID, local, global)
	return err
}
