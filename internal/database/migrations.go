package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migration holds a single schema migration with its target version and the
// statements for each supported dialect.  Statements run one at a time
// because the MySQL driver rejects multi-statement strings by default.
type migration struct {
	version int
	mysql   []string
	sqlite  []string
}

// migrations is the ordered list of schema migrations.  Versions must be
// sequential starting from 1.  Foreign keys cascade as a backstop; the
// repositories delete dependent rows explicitly as well.
var migrations = []migration{
	{
		version: 1,
		mysql: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
				username      VARCHAR(50)  NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				name          VARCHAR(100) NOT NULL,
				email         VARCHAR(255) NULL,
				role          VARCHAR(20)  NOT NULL DEFAULT 'user',
				created_at    DATETIME(6)  NOT NULL,
				updated_at    DATETIME(6)  NOT NULL,
				UNIQUE KEY uq_users_username (username),
				UNIQUE KEY uq_users_email (email)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS auth_tokens (
				id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
				token_hash CHAR(64)        NOT NULL,
				user_id    BIGINT UNSIGNED NOT NULL,
				created_at DATETIME(6)     NOT NULL,
				UNIQUE KEY uq_auth_tokens_hash (token_hash),
				CONSTRAINT fk_auth_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS boards (
				id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
				name        VARCHAR(100)    NOT NULL,
				description TEXT            NULL,
				owner_id    BIGINT UNSIGNED NOT NULL,
				created_at  DATETIME(6)     NOT NULL,
				updated_at  DATETIME(6)     NOT NULL,
				KEY idx_boards_owner (owner_id),
				CONSTRAINT fk_boards_owner FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS board_columns (
				id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
				board_id   BIGINT UNSIGNED NOT NULL,
				name       VARCHAR(100)    NOT NULL,
				color      VARCHAR(20)     NOT NULL DEFAULT 'slate',
				position   INT             NOT NULL DEFAULT 0,
				created_at DATETIME(6)     NOT NULL,
				updated_at DATETIME(6)     NOT NULL,
				KEY idx_board_columns_board (board_id, position),
				CONSTRAINT fk_board_columns_board FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS tickets (
				id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
				board_id    BIGINT UNSIGNED NOT NULL,
				column_id   BIGINT UNSIGNED NOT NULL,
				title       VARCHAR(255)    NOT NULL,
				description TEXT            NULL,
				priority    VARCHAR(20)     NOT NULL DEFAULT 'medium',
				start_date  DATETIME(6)     NULL,
				due_date    DATETIME(6)     NULL,
				position    INT             NOT NULL DEFAULT 0,
				created_at  DATETIME(6)     NOT NULL,
				updated_at  DATETIME(6)     NOT NULL,
				KEY idx_tickets_board (board_id),
				KEY idx_tickets_column (column_id, position),
				CONSTRAINT fk_tickets_board FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE,
				CONSTRAINT fk_tickets_column FOREIGN KEY (column_id) REFERENCES board_columns(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
		sqlite: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				username      TEXT     NOT NULL UNIQUE,
				password_hash TEXT     NOT NULL,
				name          TEXT     NOT NULL,
				email         TEXT     UNIQUE,
				role          TEXT     NOT NULL DEFAULT 'user',
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS auth_tokens (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				token_hash TEXT     NOT NULL UNIQUE,
				user_id    INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS boards (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				name        TEXT     NOT NULL,
				description TEXT,
				owner_id    INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at  DATETIME NOT NULL,
				updated_at  DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner_id)`,
			`CREATE TABLE IF NOT EXISTS board_columns (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				board_id   INTEGER  NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
				name       TEXT     NOT NULL,
				color      TEXT     NOT NULL DEFAULT 'slate',
				position   INTEGER  NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_board_columns_board ON board_columns(board_id, position)`,
			`CREATE TABLE IF NOT EXISTS tickets (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				board_id    INTEGER  NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
				column_id   INTEGER  NOT NULL REFERENCES board_columns(id) ON DELETE CASCADE,
				title       TEXT     NOT NULL,
				description TEXT,
				priority    TEXT     NOT NULL DEFAULT 'medium',
				start_date  DATETIME,
				due_date    DATETIME,
				position    INTEGER  NOT NULL DEFAULT 0,
				created_at  DATETIME NOT NULL,
				updated_at  DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tickets_board ON tickets(board_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tickets_column ON tickets(column_id, position)`,
		},
	},
}

// Migrate checks the current schema version and applies any outstanding
// migrations in order.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		stmts := m.sqlite
		if db.DriverName() == "mysql" {
			stmts = m.mysql
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("applying migration v%d: %w", m.version, err)
			}
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration version, 0 for an
// empty database.
func SchemaVersion(ctx context.Context, db *sqlx.DB) (int, error) {
	var v int
	if err := db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
