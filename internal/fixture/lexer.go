package fixture

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// fixtureLexer tokenizes the tiny analyzable-function language test
// fixtures are written in. Keywords are recognized by the grammar matching
// specific Ident values, not by the lexer. Where two rules match at the same
// spot the first listed wins, so Float comes before Integer and Operator
// before Punctuation; Ident cannot start with a digit, so its place relative
// to the numeric rules does not matter.
var fixtureLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Float", `[0-9]+\.[0-9]+`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Operator", `(==|!=|<=|>=|:=)`, nil},
		{"Punctuation", `[{}()\[\],;.<>=+\-*/%!]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
