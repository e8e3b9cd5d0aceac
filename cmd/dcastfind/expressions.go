package main

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	dircast "github.com/mattkeenan/dircast/pkg"
)

// Expression represents a test or operator in the find expression
type Expression interface {
	Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool
	String() string
}

// Action represents an action to perform on matching entries
type Action interface {
	Execute(info *dircast.EntryInfo, ctx *EvalContext) error
	String() string
}

// EvalContext provides context for expression evaluation
type EvalContext struct {
	Source string
	Cast   *dircast.Cast
	Out    io.Writer
}

// displayPath renders the root's empty path as "."
func displayPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}

// AndExpression is true when both sides are
type AndExpression struct {
	Left, Right Expression
}

func (e *AndExpression) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	return e.Left.Evaluate(info, ctx) && e.Right.Evaluate(info, ctx)
}

func (e *AndExpression) String() string {
	return fmt.Sprintf("(%s --and %s)", e.Left, e.Right)
}

// OrExpression is true when either side is
type OrExpression struct {
	Left, Right Expression
}

func (e *OrExpression) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	return e.Left.Evaluate(info, ctx) || e.Right.Evaluate(info, ctx)
}

func (e *OrExpression) String() string {
	return fmt.Sprintf("(%s --or %s)", e.Left, e.Right)
}

// NotExpression negates its operand
type NotExpression struct {
	Expr Expression
}

func (e *NotExpression) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	return !e.Expr.Evaluate(info, ctx)
}

func (e *NotExpression) String() string {
	return fmt.Sprintf("--not %s", e.Expr)
}

// NameTest matches the entry name against a glob
type NameTest struct {
	Pattern       string
	CaseSensitive bool
}

func newNameTest(pattern string, caseSensitive bool) (*NameTest, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &NameTest{Pattern: pattern, CaseSensitive: caseSensitive}, nil
}

func (t *NameTest) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	return globMatch(t.Pattern, info.Entry.Name, t.CaseSensitive)
}

func (t *NameTest) String() string {
	if t.CaseSensitive {
		return "--name " + t.Pattern
	}
	return "--iname " + t.Pattern
}

// PathTest matches the root-relative path against a glob. The root's path is ".".
type PathTest struct {
	Pattern       string
	CaseSensitive bool
}

func newPathTest(pattern string, caseSensitive bool) (*PathTest, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &PathTest{Pattern: pattern, CaseSensitive: caseSensitive}, nil
}

func (t *PathTest) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	return globMatch(t.Pattern, displayPath(info.Path), t.CaseSensitive)
}

func (t *PathTest) String() string {
	if t.CaseSensitive {
		return "--path " + t.Pattern
	}
	return "--ipath " + t.Pattern
}

// globMatch matches with path.Match; "*" does not cross "/"
func globMatch(pattern, name string, caseSensitive bool) bool {
	if !caseSensitive {
		pattern = strings.ToLower(pattern)
		name = strings.ToLower(name)
	}
	ok, _ := path.Match(pattern, name)
	return ok
}

// SizeTest compares the entry size: '+' greater, '-' less, '=' equal
type SizeTest struct {
	Size int64
	Mode byte
}

func (t *SizeTest) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	switch t.Mode {
	case '+':
		return info.Entry.Size > t.Size
	case '-':
		return info.Entry.Size < t.Size
	default:
		return info.Entry.Size == t.Size
	}
}

func (t *SizeTest) String() string {
	if t.Mode == '=' {
		return fmt.Sprintf("--size %dc", t.Size)
	}
	return fmt.Sprintf("--size %c%dc", t.Mode, t.Size)
}

// EmptyTest matches zero-length files and directories without children
type EmptyTest struct{}

func (t *EmptyTest) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	if info.Entry.IsDir() {
		return ctx.Cast.IsEmptyDir(info.Index)
	}
	return info.Entry.Size == 0
}

func (t *EmptyTest) String() string { return "--empty" }

// TypeTest matches the entry kind character
type TypeTest struct {
	Kind byte
}

func (t *TypeTest) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	return info.Entry.Kind.Char() == t.Kind
}

func (t *TypeTest) String() string { return "--type " + string(t.Kind) }

// HashTest matches a file whose strong digest or checksum equals Hash
type HashTest struct {
	Hash string
}

func (t *HashTest) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	if info.Entry.IsDir() {
		return false
	}
	return info.Entry.File.Digest == t.Hash || info.Entry.File.Checksum == t.Hash
}

func (t *HashTest) String() string { return "--hash " + t.Hash }

// HashPrefixTest matches a file whose strong digest starts with Prefix
type HashPrefixTest struct {
	Prefix string
}

func (t *HashPrefixTest) Evaluate(info *dircast.EntryInfo, ctx *EvalContext) bool {
	return !info.Entry.IsDir() && strings.HasPrefix(info.Entry.File.Digest, t.Prefix)
}

func (t *HashPrefixTest) String() string { return "--hash-prefix " + t.Prefix }

// PrintAction prints the path followed by a newline
type PrintAction struct{}

func (a *PrintAction) Execute(info *dircast.EntryInfo, ctx *EvalContext) error {
	_, err := fmt.Fprintln(ctx.Out, displayPath(info.Path))
	return err
}

func (a *PrintAction) String() string { return "--print" }

// Print0Action prints the path followed by a NUL byte
type Print0Action struct{}

func (a *Print0Action) Execute(info *dircast.EntryInfo, ctx *EvalContext) error {
	_, err := fmt.Fprintf(ctx.Out, "%s\x00", displayPath(info.Path))
	return err
}

func (a *Print0Action) String() string { return "--print0" }

// LsAction prints kind, size, both stats fields and the path
type LsAction struct{}

func (a *LsAction) Execute(info *dircast.EntryInfo, ctx *EvalContext) error {
	e := info.Entry
	_, err := fmt.Fprintf(ctx.Out, "%c %12d %16s %s  %s\n",
		e.Kind.Char(), e.Size, e.DigestA(), e.DigestB(), displayPath(info.Path))
	return err
}

func (a *LsAction) String() string { return "--ls" }

// PrintfAction prints a formatted line per entry
type PrintfAction struct {
	Format string
}

func (a *PrintfAction) Execute(info *dircast.EntryInfo, ctx *EvalContext) error {
	_, err := io.WriteString(ctx.Out, formatEntry(a.Format, info, ctx))
	return err
}

func (a *PrintfAction) String() string { return "--printf " + strconv.Quote(a.Format) }

// formatEntry expands % directives and backslash escapes. Unknown
// directives and escapes are copied through unchanged.
func formatEntry(format string, info *dircast.EntryInfo, ctx *EvalContext) string {
	var sb strings.Builder
	e := info.Entry

	for i := 0; i < len(format); i++ {
		ch := format[i]
		if i+1 >= len(format) || (ch != '%' && ch != '\\') {
			sb.WriteByte(ch)
			continue
		}
		i++
		next := format[i]

		if ch == '\\' {
			switch next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			continue
		}

		switch next {
		case 'p':
			sb.WriteString(displayPath(info.Path))
		case 'f':
			sb.WriteString(e.Name)
		case 'h':
			if slash := strings.LastIndex(info.Path, "/"); slash >= 0 {
				sb.WriteString(info.Path[:slash])
			} else {
				sb.WriteString(".")
			}
		case 's':
			sb.WriteString(strconv.FormatInt(e.Size, 10))
		case 'a':
			sb.WriteString(e.DigestA())
		case 'b':
			sb.WriteString(e.DigestB())
		case 'y':
			sb.WriteByte(e.Kind.Char())
		case 'i':
			sb.WriteString(ctx.Source)
		case 'd':
			sb.WriteString(strconv.Itoa(info.Depth))
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(next)
		}
	}
	return sb.String()
}
