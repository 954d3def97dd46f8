package querybuilder

import "fmt"

// Model is a row that knows its own column layout.
type Model interface {
	Columns() []string
	Values() []any
}

func InsertModel(table string, model Model, suffix string) (string, []any, error) {
	if model == nil {
		return "", nil, fmt.Errorf("model cannot be nil")
	}
	return InsertModels(table, []Model{model}, suffix)
}

// InsertModels builds one multi-row insert. All models must share the column
// layout of the first one.
func InsertModels[M Model](table string, models []M, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("insert models are required")
	}

	cols := models[0].Columns()
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("model has no db columns")
	}

	builder := InsertInto(table).Columns(cols...)
	for i, model := range models {
		vals := model.Values()
		if len(vals) != len(cols) {
			return "", nil, fmt.Errorf("model %d has %d values, expected %d", i, len(vals), len(cols))
		}
		builder.Values(vals...)
	}
	return builder.Suffix(suffix).ToSQL()
}
