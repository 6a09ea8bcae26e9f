package cgd

import "strings"

// layout is the header of one CGD export. amount names either a single
// signed column or a debit column followed by a credit column.
type layout struct {
	name   string
	date   string
	memo   string
	amount []string
}

// layouts are tried in order against each row until one binds. Card
// statements carry unsigned debit and credit columns.
var layouts = []layout{
	{name: "cartão", date: "Data", memo: "Descrição", amount: []string{"Débito", "Crédito"}},
	{name: "extrato", date: "Data mov.", memo: "Descrição", amount: []string{"Movimento"}},
	{name: "conta", date: "Data mov.", memo: "Descrição", amount: []string{"Montante"}},
}

// columns are the positions of a layout's headers within a row.
type columns struct {
	date   int
	memo   int
	amount []int
}

// headerPositions indexes the non-blank cells of row by their trimmed text.
func headerPositions(row []string) map[string]int {
	pos := make(map[string]int, len(row))

	for i, cell := range row {
		if name := strings.TrimSpace(cell); name != "" {
			pos[name] = i
		}
	}

	return pos
}

// bind resolves l against a header row. It fails unless every column l
// reads is present.
func (l layout) bind(pos map[string]int) (columns, bool) {
	var (
		c  = columns{amount: make([]int, len(l.amount))}
		ok bool
	)

	if c.date, ok = pos[l.date]; !ok {
		return columns{}, false
	}

	if c.memo, ok = pos[l.memo]; !ok {
		return columns{}, false
	}

	for i, name := range l.amount {
		if c.amount[i], ok = pos[name]; !ok {
			return columns{}, false
		}
	}

	return c, true
}
