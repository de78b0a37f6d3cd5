package stubs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("ktlight.stubs")

// ErrNotFound indicates the requested declaration, usage or attribute is not
// in the store.
var ErrNotFound = errors.New("stubs: not found")

// Param is a compiled annotation class parameter.
type Param struct {
	Name    string
	Type    string
	Vararg  bool
	Default *Value // nil without default
}

// Declaration is a compiled annotation class.
type Declaration struct {
	FQN    string
	Params []Param
}

// Usage is a compiled annotation instance: the explicit attribute values of
// the ordinal-th annotation of type Annotation on Owner.
type Usage struct {
	Owner      string
	Annotation string
	Ordinal    int
	Attrs      map[string]*Value
}

// Store is a stub database backed by SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS declarations (
	fqn TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS params (
	annotation TEXT NOT NULL,
	position   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	type       TEXT NOT NULL,
	vararg     INTEGER NOT NULL,
	default_value BLOB,
	PRIMARY KEY (annotation, name)
);
CREATE TABLE IF NOT EXISTS usages (
	owner      TEXT NOT NULL,
	annotation TEXT NOT NULL,
	ordinal    INTEGER NOT NULL,
	name       TEXT NOT NULL,
	value      BLOB NOT NULL,
	PRIMARY KEY (owner, annotation, ordinal, name)
);
`

// Open opens or creates the stub database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating stub directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PutDeclaration stores an annotation class, replacing any previous one.
func (s *Store) PutDeclaration(ctx context.Context, d *Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving declaration %s: %w", d.FQN, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO declarations (fqn) VALUES (?)", d.FQN); err != nil {
		return fmt.Errorf("saving declaration %s: %w", d.FQN, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM params WHERE annotation = ?", d.FQN); err != nil {
		return fmt.Errorf("saving declaration %s: %w", d.FQN, err)
	}
	for i, p := range d.Params {
		var def []byte
		if p.Default != nil {
			if def, err = MarshalValue(p.Default); err != nil {
				return fmt.Errorf("encoding default of %s.%s: %w", d.FQN, p.Name, err)
			}
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO params (annotation, position, name, type, vararg, default_value) VALUES (?, ?, ?, ?, ?, ?)",
			d.FQN, i, p.Name, p.Type, p.Vararg, def,
		)
		if err != nil {
			return fmt.Errorf("saving parameter %s.%s: %w", d.FQN, p.Name, err)
		}
	}
	return tx.Commit()
}

// Declaration loads an annotation class.
func (s *Store) Declaration(ctx context.Context, fqn string) (*Declaration, error) {
	var found string
	err := s.db.QueryRowContext(ctx, "SELECT fqn FROM declarations WHERE fqn = ?", fqn).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying declaration: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, type, vararg, default_value FROM params WHERE annotation = ? ORDER BY position", fqn)
	if err != nil {
		return nil, fmt.Errorf("querying parameters: %w", err)
	}
	defer rows.Close()

	d := &Declaration{FQN: found}
	for rows.Next() {
		var p Param
		var def []byte
		if err := rows.Scan(&p.Name, &p.Type, &p.Vararg, &def); err != nil {
			return nil, fmt.Errorf("scanning parameter: %w", err)
		}
		if len(def) > 0 {
			if p.Default, err = UnmarshalValue(def); err != nil {
				return nil, err
			}
		}
		d.Params = append(d.Params, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying parameters: %w", err)
	}
	return d, nil
}

// PutUsage stores the explicit attributes of an annotation instance,
// replacing any previous ones.
func (s *Store) PutUsage(ctx context.Context, u *Usage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving usage: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "DELETE FROM usages WHERE owner = ? AND annotation = ? AND ordinal = ?",
		u.Owner, u.Annotation, u.Ordinal)
	if err != nil {
		return fmt.Errorf("saving usage: %w", err)
	}
	for name, v := range u.Attrs {
		data, err := MarshalValue(v)
		if err != nil {
			return fmt.Errorf("encoding %s of %s: %w", name, u.Annotation, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO usages (owner, annotation, ordinal, name, value) VALUES (?, ?, ?, ?, ?)",
			u.Owner, u.Annotation, u.Ordinal, name, data,
		)
		if err != nil {
			return fmt.Errorf("saving usage: %w", err)
		}
	}
	return tx.Commit()
}

// Attribute returns the compiled value of one attribute: the usage's
// explicit value when stored, otherwise the annotation class default.
func (s *Store) Attribute(ctx context.Context, owner, annotation string, ordinal int, name string) (*Value, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM usages WHERE owner = ? AND annotation = ? AND ordinal = ? AND name = ?",
		owner, annotation, ordinal, name,
	).Scan(&data)
	if err == nil {
		return UnmarshalValue(data)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying usage: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT default_value FROM params WHERE annotation = ? AND name = ?", annotation, name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying default: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	log.Debugf("%s.%s: using compiled default", annotation, name)
	return UnmarshalValue(data)
}
