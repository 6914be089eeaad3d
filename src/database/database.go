package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/creditfolio/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateClientsTable()
	migrateCreditReportsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		portal_code_hash TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS credit_reports (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		client_id TEXT NOT NULL,
		source_format TEXT NOT NULL,
		parsed_at TIMESTAMP NOT NULL,
		tradeline_count INTEGER NOT NULL,
		violation_count INTEGER NOT NULL,
		aggregate_json TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(client_id) REFERENCES clients(id)
	);

	CREATE TABLE IF NOT EXISTS entitlements (
		user_id INTEGER PRIMARY KEY,
		plan TEXT NOT NULL DEFAULT 'free',
		status TEXT NOT NULL DEFAULT 'inactive',
		monthly_report_limit INTEGER NOT NULL DEFAULT 1,
		current_period_end TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// tableColumns returns the existing column set of a table, or nil when
// the table does not exist yet (fresh database, CREATE TABLE handles it).
func tableColumns(table string) map[string]bool {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName)
	if err != nil {
		if err != sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Error("Error checking for table", "table", table, "error", err)
			} else {
				stdlog.Printf("Error checking for table %s: %v", table, err)
			}
		}
		return nil
	}

	rows, err := DB.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema", "table", table, "error", err)
		} else {
			stdlog.Printf("Error querying table schema for %s: %v", table, err)
		}
		return nil
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info", "table", table, "error", err)
			} else {
				stdlog.Printf("Error scanning column info for %s: %v", table, err)
			}
			return nil
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info", "table", table, "error", err)
		}
		return nil
	}
	return columnExists
}

func addColumnIfMissing(table string, columns map[string]bool, column, definition string) {
	if columns == nil {
		return
	}
	if _, ok := columns[column]; ok {
		return
	}
	_, err := DB.Exec("ALTER TABLE " + table + " ADD COLUMN " + column + " " + definition)
	if err != nil {
		logger.L.Error("Error adding column", "table", table, "column", column, "error", err)
	} else {
		logger.L.Info("Added column", "table", table, "column", column)
	}
}

func migrateClientsTable() {
	columns := tableColumns("clients")
	addColumnIfMissing("clients", columns, "email", "TEXT")
	addColumnIfMissing("clients", columns, "portal_code_hash", "TEXT")
	addColumnIfMissing("clients", columns, "updated_at", "TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
}

func migrateCreditReportsTable() {
	columns := tableColumns("credit_reports")
	addColumnIfMissing("credit_reports", columns, "tradeline_count", "INTEGER NOT NULL DEFAULT 0")
	addColumnIfMissing("credit_reports", columns, "violation_count", "INTEGER NOT NULL DEFAULT 0")
	addColumnIfMissing("credit_reports", columns, "source_format", "TEXT NOT NULL DEFAULT 'html'")
}
