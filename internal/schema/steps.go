package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type Step struct {
	Version int
	Name    string
	Run     func(ctx context.Context) error
}

type columnSet map[string]bool

func (c columnSet) missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !c[n] {
			out = append(out, n)
		}
	}
	return out
}

func (c columnSet) sorted() []string {
	out := make([]string, 0, len(c))
	for n := range c {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (m *Migrator) columns(ctx context.Context) (columnSet, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'users'`)
	if err != nil {
		return nil, fmt.Errorf("list users columns: %w", err)
	}
	defer rows.Close()

	cols := columnSet{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("column row iteration: %w", err)
	}
	return cols, nil
}

// require fails with ErrSchemaDrift when any of the named columns is absent.
func (m *Migrator) require(ctx context.Context, names ...string) error {
	cols, err := m.columns(ctx)
	if err != nil {
		return err
	}
	if missing := cols.missing(names...); len(missing) > 0 {
		return fmt.Errorf("users has no column %s: %w", strings.Join(missing, ", "), ErrSchemaDrift)
	}
	return nil
}

func (m *Migrator) exec(ctx context.Context, query string, args ...any) error {
	_, err := m.db.ExecContext(ctx, query, args...)
	return err
}

// execRequiring runs query only when the columns it touches exist.
func (m *Migrator) execRequiring(cols []string, query string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := m.require(ctx, cols...); err != nil {
			return err
		}
		return m.exec(ctx, query)
	}
}

func (m *Migrator) steps() []Step {
	return []Step{
		{Version: 1, Name: "create users table", Run: m.createUsers},
		{Version: 2, Name: "add account columns", Run: m.addColumns},
		{Version: 3, Name: "relax legacy not-null columns", Run: m.relaxLegacyColumns},
		{Version: 4, Name: "mirror password into pword", Run: m.execRequiring(
			[]string{"password", "pword"},
			`UPDATE users SET pword = password
			 WHERE (pword IS NULL OR pword = '') AND (password IS NOT NULL AND password <> '')`)},
		{Version: 5, Name: "backfill password from legacy credential", Run: m.backfillPassword},
		{Version: 6, Name: "backfill name from fname and lname", Run: m.execRequiring(
			[]string{"name", "fname", "lname"},
			`UPDATE users SET name = CONCAT_WS(' ', fname, lname)
			 WHERE (name IS NULL OR name = '') AND (COALESCE(fname, '') <> '' OR COALESCE(lname, '') <> '')`)},
		{Version: 7, Name: "mirror name into fname", Run: m.execRequiring(
			[]string{"name", "fname"},
			`UPDATE users SET fname = name
			 WHERE (fname IS NULL OR fname = '') AND (name IS NOT NULL AND name <> '')`)},
		{Version: 8, Name: "map account_type to role", Run: m.execRequiring(
			[]string{"role", "account_type"},
			`UPDATE users SET role = CASE WHEN account_type::text = 'seller' THEN 'seller' ELSE 'customer' END
			 WHERE role IS NULL OR role = '' OR (role = 'customer' AND account_type::text = 'seller')`)},
		{Version: 9, Name: "unique email index", Run: func(ctx context.Context) error {
			return m.exec(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique ON users(email)`)
		}},
		{Version: 10, Name: "seed test account", Run: m.seedAccount},
	}
}

func (m *Migrator) createUsers(ctx context.Context) error {
	return m.exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255),
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(50) NOT NULL DEFAULT 'customer',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
}

func (m *Migrator) addColumns(ctx context.Context) error {
	stmts := []string{
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS role VARCHAR(50) NOT NULL DEFAULT 'customer'`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS name VARCHAR(150)`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS password TEXT`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS pword TEXT`,
	}
	for _, stmt := range stmts {
		if err := m.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// relaxLegacyColumns drops NOT NULL on whichever legacy columns exist.
func (m *Migrator) relaxLegacyColumns(ctx context.Context) error {
	cols, err := m.columns(ctx)
	if err != nil {
		return err
	}

	legacy := []string{"pword", "fname", "lname"}
	present := 0
	for _, c := range legacy {
		if !cols[c] {
			m.logger.Debug("legacy column absent", zap.String("column", c))
			continue
		}
		present++
		if err := m.exec(ctx, fmt.Sprintf(`ALTER TABLE users ALTER COLUMN %s DROP NOT NULL`, c)); err != nil {
			return fmt.Errorf("relax %s: %w", c, err)
		}
	}
	if present == 0 {
		return fmt.Errorf("users has none of %s: %w", strings.Join(legacy, ", "), ErrSchemaDrift)
	}
	return nil
}

// legacyCredentials lists the legacy credential columns in the order they are
// preferred when more than one is populated.
var legacyCredentials = []string{"pword", "password_hash"}

// backfillPassword fills an empty password from the first populated legacy
// credential column of the same row.
func (m *Migrator) backfillPassword(ctx context.Context) error {
	cols, err := m.columns(ctx)
	if err != nil {
		return err
	}

	var sources []string
	for _, src := range legacyCredentials {
		if !cols[src] {
			m.logger.Debug("legacy credential column absent", zap.String("column", src))
			continue
		}
		sources = append(sources, fmt.Sprintf("NULLIF(%s, '')", src))
	}
	if len(sources) == 0 {
		return fmt.Errorf("users has no legacy credential column: %w", ErrSchemaDrift)
	}

	credential := "COALESCE(" + strings.Join(sources, ", ") + ")"
	return m.exec(ctx, fmt.Sprintf(`UPDATE users SET password = %[1]s
		WHERE (password IS NULL OR password = '') AND %[1]s IS NOT NULL`, credential))
}

// seedAccount inserts the seed account in the current shape, falling back
// to the legacy fname/lname/pword shape.
func (m *Migrator) seedAccount(ctx context.Context) error {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, m.seed.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("look up seed account: %w", err)
	}
	if exists {
		return fmt.Errorf("seed account %s present: %w", m.seed.Email, errNothingToDo)
	}

	hash, err := m.hashSeedPassword()
	if err != nil {
		return err
	}

	err = m.exec(ctx,
		`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, $4)`,
		m.seed.Name, m.seed.Email, hash, m.seed.Role)
	if err == nil {
		return nil
	}
	m.logger.Debug("seed insert failed, trying legacy shape", zap.Error(err))

	first, last, _ := strings.Cut(m.seed.Name, " ")
	legacyErr := m.exec(ctx,
		`INSERT INTO users (fname, lname, email, password, pword, role) VALUES ($1, $2, $3, $4, $5, $6)`,
		first, last, m.seed.Email, hash, hash, m.seed.Role)
	if legacyErr != nil {
		return errors.Join(fmt.Errorf("insert seed account: %w", err), fmt.Errorf("insert legacy seed account: %w", legacyErr))
	}
	return nil
}
