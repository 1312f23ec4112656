package query

type joinKind int

const (
	innerJoin joinKind = iota + 1
	leftJoin
)

type join struct {
	kind  joinKind
	table Ident
	alias Ident
	on    []Cond
}

type orderTerm struct {
	expr Expr
	dir  Dir
}

// Select is a SELECT statement under construction. Methods append and
// return the receiver so calls chain.
type Select struct {
	exprs  []Expr
	from   Ident
	alias  Ident
	joins  []join
	where  []Cond
	order  []orderTerm
	limit  int
	offset int
}

// From starts a SELECT over table aliased as alias.
func From(table, alias Ident) *Select {
	return &Select{from: table, alias: alias, limit: -1}
}

// Columns appends to the select list.
func (s *Select) Columns(exprs ...Expr) *Select {
	s.exprs = append(s.exprs, exprs...)
	return s
}

// Join adds an INNER JOIN of table AS alias ON all of on.
func (s *Select) Join(table, alias Ident, on ...Cond) *Select {
	s.joins = append(s.joins, join{kind: innerJoin, table: table, alias: alias, on: on})
	return s
}

// LeftJoin adds a LEFT JOIN of table AS alias ON all of on.
func (s *Select) LeftJoin(table, alias Ident, on ...Cond) *Select {
	s.joins = append(s.joins, join{kind: leftJoin, table: table, alias: alias, on: on})
	return s
}

// Where ANDs conds into the WHERE clause.
func (s *Select) Where(conds ...Cond) *Select {
	s.where = append(s.where, conds...)
	return s
}

// OrderBy appends an ORDER BY term.
func (s *Select) OrderBy(expr Expr, dir Dir) *Select {
	s.order = append(s.order, orderTerm{expr: expr, dir: dir})
	return s
}

// Limit sets LIMIT. A negative n removes the limit.
func (s *Select) Limit(n int) *Select {
	s.limit = n
	return s
}

// Offset sets OFFSET. Zero and negative values are omitted.
func (s *Select) Offset(n int) *Select {
	s.offset = n
	return s
}

// Build renders the statement and its arguments in placeholder order.
func (s *Select) Build() (string, []any) {
	var w writer
	s.write(&w)
	return w.sb.String(), w.args
}

func (s *Select) write(w *writer) {
	w.sb.WriteString("SELECT ")
	if len(s.exprs) == 0 {
		w.sb.WriteByte('*')
	}
	for i, e := range s.exprs {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		e.writeExpr(w)
	}
	w.sb.WriteString(" FROM " + s.from.name + " AS " + s.alias.name)

	for _, j := range s.joins {
		if j.kind == leftJoin {
			w.sb.WriteString(" LEFT JOIN ")
		} else {
			w.sb.WriteString(" JOIN ")
		}
		w.sb.WriteString(j.table.name + " AS " + j.alias.name + " ON ")
		writeConds(w, j.on)
	}

	if len(s.where) > 0 {
		w.sb.WriteString(" WHERE ")
		writeConds(w, s.where)
	}

	for i, o := range s.order {
		if i == 0 {
			w.sb.WriteString(" ORDER BY ")
		} else {
			w.sb.WriteString(", ")
		}
		o.expr.writeExpr(w)
		w.sb.WriteString(" " + o.dir.sql())
	}

	switch {
	case s.limit >= 0:
		w.sb.WriteString(" LIMIT ")
		w.bind(s.limit)
	case s.offset > 0:
		// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
		w.sb.WriteString(" LIMIT -1")
	}
	if s.offset > 0 {
		w.sb.WriteString(" OFFSET ")
		w.bind(s.offset)
	}
}
