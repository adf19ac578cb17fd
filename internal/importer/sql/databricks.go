package sql

import (
	"fmt"
	"regexp"
	"strings"

	"contractkit/internal/core"
	"contractkit/internal/importer"
)

// databricksHoist remembers one complex column type pulled out of the
// source text during step 9; hoists are kept in source order so
// reattachHoistedTypes can restore them after parsing.
type databricksHoist struct {
	original string
}

// preprocessDatabricks rewrites Databricks SQL DDL into a form the shared
// TiDB grammar accepts, while keeping the rewrite reversible enough to
// recover table names the grammar itself can't parse (spec.md §4.4.1).
//
// Grounded in the teacher's quote/comment-aware literal handling in
// internal/parser/mysql/parser.go (exprToString, tryUnquoteSQLStringLiteral
// in sql.go of this package), generalized here into an explicit scanner
// since this preprocessing runs over raw source text, before any AST
// exists to restore from.
func preprocessDatabricks(src string) (string, []importer.TableNameSuggestion, []databricksHoist, error) {
	s := src

	s = rewriteMaterializedView(s)
	s = stripTrailingTableComment(s)
	s = stripBalancedClause(s, "TBLPROPERTIES")
	s = stripClusterBy(s)

	s, suggestions := replaceIdentifierCalls(s)

	s = stripColumnVarAnnotations(s)
	s = replaceNestedVarRefsToFixpoint(s)
	s = normalizeWhitespaceAndComments(s)
	s, hoisted := hoistComplexTypes(s)

	return s, suggestions, hoisted, nil
}

// --- step 1: CREATE MATERIALIZED VIEW -> CREATE VIEW ---

var materializedViewRe = regexp.MustCompile(`(?i)CREATE\s+MATERIALIZED\s+VIEW`)

func rewriteMaterializedView(s string) string {
	return materializedViewRe.ReplaceAllString(s, "CREATE VIEW")
}

// --- step 2: strip table-level COMMENT '...' immediately after the
// closing ")" of the table body ---

var trailingCommentRe = regexp.MustCompile(`(?is)(\))(\s*)COMMENT\s+('(?:[^'\\]|\\.|'')*'|"(?:[^"\\]|\\.|"")*")`)

func stripTrailingTableComment(s string) string {
	return trailingCommentRe.ReplaceAllString(s, "$1")
}

// --- step 3: strip balanced-paren clauses like TBLPROPERTIES (...) ---

func stripBalancedClause(s string, keyword string) string {
	re := regexp.MustCompile(`(?i)` + keyword + `\s*\(`)
	for {
		loc := re.FindStringIndex(s)
		if loc == nil {
			return s
		}
		openParen := strings.IndexByte(s[loc[1]-1:], '(') + loc[1] - 1
		end := matchingParen(s, openParen)
		if end < 0 {
			return s
		}
		s = s[:loc[0]] + s[end+1:]
	}
}

// matchingParen returns the index of the ) matching the ( at open,
// respecting single- and double-quoted strings so a paren inside a
// literal doesn't unbalance the count.
func matchingParen(s string, open int) int {
	depth := 0
	state := stateDefault
	for i := open; i < len(s); i++ {
		c := s[i]
		switch state {
		case stateInSingleQuote:
			if c == '\'' {
				state = stateDefault
			}
			continue
		case stateInDoubleQuote:
			if c == '"' {
				state = stateDefault
			}
			continue
		}
		switch c {
		case '\'':
			state = stateInSingleQuote
		case '"':
			state = stateInDoubleQuote
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// --- step 4: strip CLUSTER BY (...|AUTO|col_list) tails ---

var clusterByParenRe = regexp.MustCompile(`(?i)CLUSTER\s+BY\s*\(`)
var clusterByAutoRe = regexp.MustCompile(`(?i)CLUSTER\s+BY\s+AUTO\b`)
var clusterByListRe = regexp.MustCompile(`(?i)CLUSTER\s+BY\s+[A-Za-z0-9_,\s]+?(;|\)|$)`)

func stripClusterBy(s string) string {
	if loc := clusterByParenRe.FindStringIndex(s); loc != nil {
		openParen := loc[1] - 1
		end := matchingParen(s, openParen)
		if end >= 0 {
			return s[:loc[0]] + s[end+1:]
		}
	}
	if loc := clusterByAutoRe.FindStringIndex(s); loc != nil {
		return s[:loc[0]] + s[loc[1]:]
	}
	return clusterByListRe.ReplaceAllString(s, "$1")
}

// --- step 5: IDENTIFIER(<expr>) -> placeholder, tracking table-name
// suggestions per spec.md §4.4.1 item 5 ---

var identifierCallRe = regexp.MustCompile(`(?is)IDENTIFIER\s*\(([^()]*)\)`)
var stringLiteralRe = regexp.MustCompile(`'(?:[^'\\]|\\.|'')*'`)

// databricksPlaceholderPrefix names every IDENTIFIER() placeholder; the
// table index is appended, e.g. "__databricks_table_0__".
const databricksPlaceholderPrefix = "__databricks_table_"

func replaceIdentifierCalls(s string) (string, []importer.TableNameSuggestion) {
	var suggestions []importer.TableNameSuggestion
	k := 0
	out := identifierCallRe.ReplaceAllStringFunc(s, func(match string) string {
		sub := identifierCallRe.FindStringSubmatch(match)
		expr := sub[1]
		placeholder := fmt.Sprintf("%s%d__", databricksPlaceholderPrefix, k)

		literals := stringLiteralRe.FindAllString(expr, -1)
		if len(literals) > 0 {
			var parts []string
			for _, lit := range literals {
				unquoted, _ := tryUnquoteSQLStringLiteral(lit)
				parts = append(parts, unquoted)
			}
			name := strings.Trim(strings.Join(parts, ""), ".")
			suggestions = append(suggestions, importer.TableNameSuggestion{
				TableIndex: k, SuggestedName: name, SuggestedNameOK: true,
			})
		} else {
			suggestions = append(suggestions, importer.TableNameSuggestion{
				TableIndex: k, SuggestedNameOK: false,
			})
		}
		k++
		return placeholder
	})
	return out, suggestions
}

// --- step 6: "column_name :var_name TYPE" -> "column_name TYPE" ---

var columnVarAnnotationRe = regexp.MustCompile(`(?i)(\b[A-Za-z_][A-Za-z0-9_]*\b)\s*:[A-Za-z_][A-Za-z0-9_]*\s+([A-Za-z])`)

func stripColumnVarAnnotations(s string) string {
	return columnVarAnnotationRe.ReplaceAllString(s, "$1 $2")
}

// --- step 7: nested variable refs inside STRUCT<field: :var> / ARRAY<:var>
// replaced with "string", iterated to a fixpoint ---

var structFieldVarRe = regexp.MustCompile(`(?i)(STRUCT\s*<[^<>]*?:\s*):[A-Za-z_][A-Za-z0-9_]*`)
var arrayVarRe = regexp.MustCompile(`(?i)(ARRAY\s*<\s*):[A-Za-z_][A-Za-z0-9_]*(\s*>)`)

func replaceNestedVarRefsToFixpoint(s string) string {
	for {
		next := structFieldVarRe.ReplaceAllString(s, "${1}string")
		next = arrayVarRe.ReplaceAllString(next, "${1}string${2}")
		if next == s {
			return s
		}
		s = next
	}
}

// --- step 8: normalize whitespace and -- comments while preserving
// string literals; backslash-escaped quotes -> doubled quotes ---

type scanState int

const (
	stateDefault scanState = iota
	stateInSingleQuote
	stateInDoubleQuote
	stateInLineComment
)

func normalizeWhitespaceAndComments(s string) string {
	var out strings.Builder
	state := stateDefault
	lastWasSpace := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch state {
		case stateInLineComment:
			if c == '\n' {
				state = stateDefault
				out.WriteByte('\n')
				lastWasSpace = true
			}
			continue
		case stateInSingleQuote:
			if c == '\\' && i+1 < len(s) && s[i+1] == '\'' {
				out.WriteString("''")
				i++
				continue
			}
			out.WriteByte(c)
			if c == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					out.WriteByte(s[i+1])
					i++
					continue
				}
				state = stateDefault
			}
			continue
		case stateInDoubleQuote:
			if c == '\\' && i+1 < len(s) && s[i+1] == '"' {
				out.WriteString(`""`)
				i++
				continue
			}
			out.WriteByte(c)
			if c == '"' {
				if i+1 < len(s) && s[i+1] == '"' {
					out.WriteByte(s[i+1])
					i++
					continue
				}
				state = stateDefault
			}
			continue
		}

		// stateDefault
		if c == '-' && i+1 < len(s) && s[i+1] == '-' {
			state = stateInLineComment
			i++
			continue
		}
		if c == '\'' {
			state = stateInSingleQuote
			out.WriteByte(c)
			lastWasSpace = false
			continue
		}
		if c == '"' {
			state = stateInDoubleQuote
			out.WriteByte(c)
			lastWasSpace = false
			continue
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if !lastWasSpace {
				out.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		out.WriteByte(c)
		lastWasSpace = false
	}
	return strings.TrimSpace(out.String())
}

// --- step 9: hoist STRUCT<...>/ARRAY<...>/MAP<...> column types out,
// leave STRING in their place so the shared grammar can parse, remember
// the original spelling to reattach after parsing ---

var complexTypeRe = regexp.MustCompile(`(?i)\b(STRUCT|ARRAY|MAP)\s*<`)

// hoistComplexTypes finds every top-level STRUCT<>/ARRAY<>/MAP<> column
// type, replaces it with STRING so the grammar can parse the statement,
// and returns the hoisted originals in the order encountered so
// reattachHoistedTypes can reattach the i-th hoisted type to the i-th
// STRING column it produced whose raw type says "STRING" only because of
// this substitution. Ordinary, genuinely-STRING columns are unaffected
// since they never appear in the hoisted list.
func hoistComplexTypes(s string) (string, []databricksHoist) {
	var hoisted []databricksHoist
	var out strings.Builder
	i := 0
	for {
		loc := complexTypeRe.FindStringIndex(s[i:])
		if loc == nil {
			out.WriteString(s[i:])
			break
		}
		start := i + loc[0]
		angleOpen := strings.IndexByte(s[i+loc[1]-1:], '<') + i + loc[1] - 1
		end := matchingAngle(s, angleOpen)
		if end < 0 {
			out.WriteString(s[i:])
			break
		}
		out.WriteString(s[i:start])
		out.WriteString("STRING")
		hoisted = append(hoisted, databricksHoist{original: s[start : end+1]})
		i = end + 1
	}
	return out.String(), hoisted
}

func matchingAngle(s string, open int) int {
	depth := 0
	state := stateDefault
	for i := open; i < len(s); i++ {
		c := s[i]
		switch state {
		case stateInSingleQuote:
			if c == '\'' {
				state = stateDefault
			}
			continue
		case stateInDoubleQuote:
			if c == '"' {
				state = stateDefault
			}
			continue
		}
		switch c {
		case '\'':
			state = stateInSingleQuote
		case '"':
			state = stateInDoubleQuote
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// reattachHoistedTypes walks the parsed tables in order and, for every
// column whose PhysicalType is exactly "STRING" (the step-9 placeholder),
// consumes the next hoisted original complex type string and restores it
// as that column's PhysicalType/DataType. Ordinary STRING columns that
// were never hoisted are untouched because they are never counted here:
// this function only ever consumes as many STRING columns as there are
// entries in hoisted, in source order, which is sound because step 9
// emits exactly one placeholder STRING per hoisted type and parsing
// preserves column order.
func reattachHoistedTypes(tables []*core.Table, hoisted []databricksHoist) {
	idx := 0
	for _, t := range tables {
		for _, col := range t.Schema {
			if idx >= len(hoisted) {
				return
			}
			if !strings.EqualFold(col.PhysicalType, "STRING") {
				continue
			}
			col.PhysicalType = hoisted[idx].original
			col.DataType = complexSQLTypeToCanonical(hoisted[idx].original)
			idx++
		}
	}
}

func complexSQLTypeToCanonical(original string) core.DataType {
	upper := strings.ToUpper(original)
	switch {
	case strings.HasPrefix(upper, "ARRAY"):
		return core.ArrayType(core.DataTypeString)
	case strings.HasPrefix(upper, "STRUCT"):
		return core.DataTypeStruct
	default:
		return core.DataTypeObject
	}
}

// reattachDatabricksTableNames fills in each table whose name is still one
// of step 5's placeholders with the suggestion recorded for that index,
// when one resolved to a concrete name; tables whose placeholder could not
// be resolved keep the placeholder name and remain flagged in suggestions
// for the caller via TablesRequiringName.
func reattachDatabricksTableNames(tables []*core.Table, suggestions []importer.TableNameSuggestion) []*core.Table {
	byIndex := make(map[int]importer.TableNameSuggestion, len(suggestions))
	for _, sug := range suggestions {
		byIndex[sug.TableIndex] = sug
	}
	for _, t := range tables {
		if !strings.HasPrefix(t.Name, databricksPlaceholderPrefix) {
			continue
		}
		rest := strings.TrimPrefix(t.Name, databricksPlaceholderPrefix)
		rest = strings.TrimSuffix(rest, "__")
		var k int
		if _, err := fmt.Sscanf(rest, "%d", &k); err != nil {
			continue
		}
		if sug, ok := byIndex[k]; ok && sug.SuggestedNameOK {
			t.Name = sug.SuggestedName
		}
	}
	return tables
}
