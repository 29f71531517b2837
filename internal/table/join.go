package table

import "fmt"

// LeftJoin attaches the columns of right to every row of t whose leftOn
// value equals right's rightOn value. Unmatched rows get missing values.
//
// The join is many-to-one: rightOn must be unique in right, and a
// *CardinalityError is returned otherwise, even when the duplicated key is
// never referenced from t. When leftOn and rightOn share a name the key
// column appears once in the result. Missing keys never match.
func (t *Table) LeftJoin(right *Table, leftOn, rightOn string) (*Table, error) {
	li, err := t.mustIndex(leftOn)
	if err != nil {
		return nil, err
	}
	ri, err := right.mustIndex(rightOn)
	if err != nil {
		return nil, err
	}

	lookup := make(map[string]int, len(right.Rows))
	for i, row := range right.Rows {
		v := row[ri]
		if !v.Valid {
			continue
		}
		k := v.key()
		if first, dup := lookup[k]; dup {
			return nil, &CardinalityError{
				Table:  right.Name,
				Column: rightOn,
				Key:    v.Format(""),
				First:  first + 1,
				Second: i + 1,
			}
		}
		lookup[k] = i
	}

	var keep []int
	for i := range right.Columns {
		if i == ri && leftOn == rightOn {
			continue
		}
		keep = append(keep, i)
	}

	columns := append([]string(nil), t.Columns...)
	types := append([]ColumnType(nil), t.Types...)
	for _, i := range keep {
		if t.Index(right.Columns[i]) >= 0 {
			return nil, fmt.Errorf("table %s: join with %s would duplicate column %q",
				t.Name, right.Name, right.Columns[i])
		}
		columns = append(columns, right.Columns[i])
		types = append(types, right.Types[i])
	}

	rows := make([]Row, len(t.Rows))
	for r, row := range t.Rows {
		out := make(Row, 0, len(columns))
		out = append(out, row...)

		match, ok := -1, false
		if key := row[li]; key.Valid {
			match, ok = lookup[key.key()]
		}
		for _, i := range keep {
			if ok {
				out = append(out, right.Rows[match][i])
			} else {
				out = append(out, Missing(right.Types[i]))
			}
		}
		rows[r] = out
	}

	return t.derive(columns, types, rows), nil
}
