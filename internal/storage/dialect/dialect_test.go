package dialect

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		dialectType DialectType
		wantName    string
		wantErr     bool
	}{
		{"sqlite", SQLite, "sqlite", false},
		{"postgres", Postgres, "postgres", false},
		{"mysql", MySQL, "mysql", false},
		{"unknown", DialectType("unknown"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.dialectType)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && d.Name() != tt.wantName {
				t.Errorf("Name() = %v, want %v", d.Name(), tt.wantName)
			}
		})
	}
}

func TestFromDriverName(t *testing.T) {
	tests := []struct {
		driverName string
		wantName   string
		wantErr    bool
	}{
		{"sqlite", "sqlite", false},
		{"sqlite3", "sqlite", false},
		{"postgres", "postgres", false},
		{"pgx", "postgres", false},
		{"mysql", "mysql", false},
		{"unknown", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.driverName, func(t *testing.T) {
			d, err := FromDriverName(tt.driverName)
			if (err != nil) != tt.wantErr {
				t.Errorf("FromDriverName() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && d.Name() != tt.wantName {
				t.Errorf("Name() = %v, want %v", d.Name(), tt.wantName)
			}
		})
	}
}

func TestSQLiteDialect_Rebind(t *testing.T) {
	d := &sqliteDialect{}
	query := "SELECT * FROM records WHERE id = ? AND data = ?"
	got := d.Rebind(query)
	if got != query {
		t.Errorf("Rebind() = %v, want %v", got, query)
	}
}

func TestPostgresDialect_Rebind(t *testing.T) {
	d := &postgresDialect{}
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM records WHERE id = ?", "SELECT * FROM records WHERE id = $1"},
		{"SELECT * FROM records WHERE id = ? AND data = ?", "SELECT * FROM records WHERE id = $1 AND data = $2"},
		{"INSERT INTO records VALUES (?, ?, ?)", "INSERT INTO records VALUES ($1, $2, $3)"},
		{"SELECT * FROM records", "SELECT * FROM records"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := d.Rebind(tt.query)
			if got != tt.want {
				t.Errorf("Rebind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMySQLDialect_Rebind(t *testing.T) {
	d := &mysqlDialect{}
	query := "SELECT * FROM records WHERE id = ? AND data = ?"
	got := d.Rebind(query)
	if got != query {
		t.Errorf("Rebind() = %v, want %v", got, query)
	}
}

func TestDialect_JSONField(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		wantExpr string
		wantArg  string
	}{
		{"sqlite", &sqliteDialect{}, "json_extract(data, ?)", "$.status"},
		{"postgres", &postgresDialect{}, "data::jsonb ->> ?", "status"},
		{"mysql", &mysqlDialect{}, "JSON_UNQUOTE(JSON_EXTRACT(data, ?))", "$.status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, arg := tt.dialect.JSONField("data", "status")
			if expr != tt.wantExpr {
				t.Errorf("JSONField() expr = %v, want %v", expr, tt.wantExpr)
			}
			if arg != tt.wantArg {
				t.Errorf("JSONField() arg = %v, want %v", arg, tt.wantArg)
			}
		})
	}
}

func TestDialect_Types(t *testing.T) {
	tests := []struct {
		name          string
		dialect       Dialect
		timestampType string
		textType      string
	}{
		{"sqlite", &sqliteDialect{}, "TIMESTAMP", "TEXT"},
		{"postgres", &postgresDialect{}, "TIMESTAMP WITH TIME ZONE", "TEXT"},
		{"mysql", &mysqlDialect{}, "DATETIME(6)", "LONGTEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.TimestampType(); got != tt.timestampType {
				t.Errorf("TimestampType() = %v, want %v", got, tt.timestampType)
			}
			if got := tt.dialect.TextType(); got != tt.textType {
				t.Errorf("TextType() = %v, want %v", got, tt.textType)
			}
		})
	}
}

func TestDialect_IsUniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{"sqlite match", &sqliteDialect{}, errors.New("constraint failed: UNIQUE constraint failed: records.id"), true},
		{"sqlite other", &sqliteDialect{}, errors.New("no such table: records"), false},
		{"postgres match", &postgresDialect{}, errors.New("ERROR: duplicate key value violates unique constraint \"records_pkey\" (SQLSTATE 23505)"), true},
		{"postgres other", &postgresDialect{}, errors.New("ERROR: relation does not exist"), false},
		{"mysql match", &mysqlDialect{}, errors.New("Error 1062 (23000): Duplicate entry 'rec-1' for key 'PRIMARY'"), true},
		{"mysql other", &mysqlDialect{}, errors.New("Error 1146: Table does not exist"), false},
		{"nil error", &sqliteDialect{}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDialect_InitStatements(t *testing.T) {
	sqliteD := &sqliteDialect{}
	if len(sqliteD.InitStatements()) == 0 {
		t.Error("SQLite should have init statements")
	}

	pgD := &postgresDialect{}
	if pgD.InitStatements() != nil {
		t.Error("PostgreSQL should not have init statements")
	}

	mysqlD := &mysqlDialect{}
	if mysqlD.InitStatements() != nil {
		t.Error("MySQL should not have init statements")
	}
}
