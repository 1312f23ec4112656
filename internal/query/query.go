// Package query builds parameterised SELECT statements from typed
// fragments. Identifiers come only from Name, which accepts a fixed
// lowercase alphabet, and from numeric aliases derived from primary keys;
// every value is bound as a ? argument.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Ident is a validated SQL identifier: a table, alias, or column name.
type Ident struct {
	name string
}

// Name returns the identifier s. It panics when s is not a lowercase
// identifier; identifiers are compile-time constants of the caller.
func Name(s string) Ident {
	if !identRE.MatchString(s) {
		panic(fmt.Sprintf("query: invalid identifier %q", s))
	}
	return Ident{name: s}
}

// NumberedAlias returns the alias prefix<id>, for example pv42. It panics
// on a non-positive id.
func NumberedAlias(prefix string, id int64) Ident {
	if id <= 0 {
		panic(fmt.Sprintf("query: alias id must be positive, got %d", id))
	}
	return Name(prefix + strconv.FormatInt(id, 10))
}

// Col returns the column name qualified by i.
func (i Ident) Col(name string) Column {
	return Column{table: i, name: Name(name)}
}

func (i Ident) String() string { return i.name }

// Expr is a fragment that can appear in a select list.
type Expr interface {
	writeExpr(w *writer)
}

// Column is a qualified column reference.
type Column struct {
	table Ident
	name  Ident
}

func (c Column) writeExpr(w *writer) {
	w.sb.WriteString(c.table.name)
	w.sb.WriteByte('.')
	w.sb.WriteString(c.name.name)
}

func (c Column) String() string { return c.table.name + "." + c.name.name }

type one struct{}

func (one) writeExpr(w *writer) { w.sb.WriteByte('1') }

// One is the literal 1, for EXISTS sub-selects.
var One Expr = one{}

type coalesce struct {
	col      Column
	fallback any
}

func (c coalesce) writeExpr(w *writer) {
	w.sb.WriteString("COALESCE(")
	c.col.writeExpr(w)
	w.sb.WriteString(", ")
	w.bind(c.fallback)
	w.sb.WriteByte(')')
}

// Coalesce is COALESCE(col, ?).
func Coalesce(col Column, fallback any) Expr {
	return coalesce{col: col, fallback: fallback}
}

// Op is a binary comparison operator.
type Op int

const (
	Eq Op = iota + 1
	Neq
	Gt
	Lt
)

func (o Op) sql() string {
	switch o {
	case Eq:
		return "="
	case Neq:
		return "!="
	case Gt:
		return ">"
	case Lt:
		return "<"
	default:
		panic(fmt.Sprintf("query: unknown operator %d", int(o)))
	}
}

// Dir is an ORDER BY direction.
type Dir int

const (
	Asc Dir = iota + 1
	Desc
)

func (d Dir) sql() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// writer accumulates SQL text and bound arguments in order.
type writer struct {
	sb   strings.Builder
	args []any
}

func (w *writer) bind(v any) {
	w.sb.WriteByte('?')
	w.args = append(w.args, v)
}
