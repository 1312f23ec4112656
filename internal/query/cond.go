package query

// Cond is a boolean predicate usable in WHERE and JOIN ... ON clauses.
type Cond interface {
	writeCond(w *writer)
}

type compare struct {
	col Column
	op  Op
	arg any
}

func (c compare) writeCond(w *writer) {
	c.col.writeExpr(w)
	w.sb.WriteString(" " + c.op.sql() + " ")
	w.bind(c.arg)
}

// Compare is col <op> ?.
func Compare(col Column, op Op, arg any) Cond {
	_ = op.sql() // panics on an unknown operator
	return compare{col: col, op: op, arg: arg}
}

type columnsEqual struct {
	a, b Column
}

func (c columnsEqual) writeCond(w *writer) {
	c.a.writeExpr(w)
	w.sb.WriteString(" = ")
	c.b.writeExpr(w)
}

// ColumnsEqual is a = b, for join keys.
func ColumnsEqual(a, b Column) Cond {
	return columnsEqual{a: a, b: b}
}

type between struct {
	col        Column
	start, end any
	not        bool
}

func (c between) writeCond(w *writer) {
	c.col.writeExpr(w)
	if c.not {
		w.sb.WriteString(" NOT")
	}
	w.sb.WriteString(" BETWEEN ")
	w.bind(c.start)
	w.sb.WriteString(" AND ")
	w.bind(c.end)
}

// Between is col BETWEEN ? AND ?.
func Between(col Column, start, end any) Cond {
	return between{col: col, start: start, end: end}
}

// NotBetween is col NOT BETWEEN ? AND ?.
func NotBetween(col Column, start, end any) Cond {
	return between{col: col, start: start, end: end, not: true}
}

type isNull struct {
	col Column
	not bool
}

func (c isNull) writeCond(w *writer) {
	c.col.writeExpr(w)
	if c.not {
		w.sb.WriteString(" IS NOT NULL")
		return
	}
	w.sb.WriteString(" IS NULL")
}

// IsNull is col IS NULL.
func IsNull(col Column) Cond { return isNull{col: col} }

// IsNotNull is col IS NOT NULL.
func IsNotNull(col Column) Cond { return isNull{col: col, not: true} }

type in struct {
	col  Column
	args []any
}

func (c in) writeCond(w *writer) {
	c.col.writeExpr(w)
	w.sb.WriteString(" IN (")
	for i, a := range c.args {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		w.bind(a)
	}
	w.sb.WriteByte(')')
}

// In is col IN (?, ...). It panics on an empty argument list, which SQLite
// accepts but other engines reject.
func In(col Column, args ...any) Cond {
	if len(args) == 0 {
		panic("query: In requires at least one argument")
	}
	return in{col: col, args: args}
}

type exists struct {
	sub *Select
	not bool
}

func (c exists) writeCond(w *writer) {
	if c.not {
		w.sb.WriteString("NOT ")
	}
	w.sb.WriteString("EXISTS (")
	c.sub.write(w)
	w.sb.WriteByte(')')
}

// Exists is EXISTS (sub).
func Exists(sub *Select) Cond { return exists{sub: sub} }

// NotExists is NOT EXISTS (sub).
func NotExists(sub *Select) Cond { return exists{sub: sub, not: true} }

type and []Cond

func (c and) writeCond(w *writer) {
	w.sb.WriteByte('(')
	writeConds(w, c)
	w.sb.WriteByte(')')
}

// And groups conds so they can be nested.
func And(conds ...Cond) Cond { return and(conds) }

func writeConds(w *writer, conds []Cond) {
	for i, c := range conds {
		if i > 0 {
			w.sb.WriteString(" AND ")
		}
		c.writeCond(w)
	}
}
