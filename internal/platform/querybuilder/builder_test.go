package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "name").
		From("users").
		Where(Eq("tenant_id", "t1"), Expr("created_at >= ?", "2020-11-02")).
		OrderBy("id").
		Limit(10).
		Offset(5).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, name FROM users WHERE tenant_id = $1 AND created_at >= $2 ORDER BY id LIMIT 10 OFFSET 5"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "t1" || args[1] != "2020-11-02" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("users").
		Columns("id", "name").
		Values("u1", "name-1").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO users (id, name) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "u1" || args[1] != "name-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyIn(t *testing.T) {
	query, args, err := Select("id").From("users").Where(In("id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM users WHERE 1=0" || len(args) != 0 {
		t.Fatalf("unexpected query: %s args=%+v", query, args)
	}
}

type testRow struct {
	id   string
	name string
}

func (r testRow) Columns() []string { return []string{"id", "name"} }
func (r testRow) Values() []any     { return []any{r.id, r.name} }

func TestInsertModels(t *testing.T) {
	rows := []testRow{{id: "u1", name: "name-1"}, {id: "u2", name: "name-2"}}
	query, args, err := InsertModels("users", rows, "ON CONFLICT (id) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO users (id, name) VALUES ($1, $2), ($3, $4) ON CONFLICT (id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[2] != "u2" || args[3] != "name-2" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModels[testRow]("users", nil, ""); err == nil {
		t.Fatalf("expected error for empty models")
	}
}
