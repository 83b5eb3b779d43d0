// Package fixture parses the tiny analyzable-function language used by
// test fixtures and by cmd/analyzecli's input files into program.Function
// values, the same AST shape the driver consumes. It plays the role the
// spec's §1 Non-goals assign to an external parser — "assume an AST is
// provided" — by being that external collaborator for tests and the CLI.
package fixture

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"absint/internal/program"
)

// grammarProgram is the root production: zero or more function
// definitions.
type grammarProgram struct {
	Functions []*grammarFunction `@@*`
}

var parser = participle.MustBuild[grammarProgram](
	participle.Lexer(fixtureLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

// ParseString parses source (labeled filename for diagnostics) into its
// function definitions.
func ParseString(filename, source string) ([]*program.Function, error) {
	g, err := parser.ParseString(filename, source)
	if err != nil {
		reportParseError(source, err)
		return nil, err
	}
	fns := make([]*program.Function, len(g.Functions))
	for i, gf := range g.Functions {
		fns[i] = buildFunction(gf)
	}
	return fns, nil
}

// ParseFile reads path and parses it as fixture source.
func ParseFile(path string) ([]*program.Function, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return ParseString(path, string(source))
}

// reportParseError prints a caret-style parse error.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("unexpected parse error: %s", err)
		return
	}
	p := pe.Position()
	lines := strings.Split(src, "\n")
	if p.Line <= 0 || p.Line > len(lines) {
		color.Red("syntax error at unknown location: %s", err)
		return
	}
	line := lines[p.Line-1]
	caret := strings.Repeat(" ", p.Column-1) + "^"
	color.Red("syntax error in %s at line %d, column %d:", p.Filename, p.Line, p.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}
