package grid

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for bridge registration persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a bridge by its unique identifier.
	// Returns ErrUnknownBridge if the bridge does not exist.
	GetByID(ctx context.Context, id string) (*Bridge, error)

	// GetByAddress retrieves a bridge by its network address.
	// Returns ErrUnknownBridge if no bridge is registered at that address.
	GetByAddress(ctx context.Context, address string) (*Bridge, error)

	// List retrieves all registered bridges.
	List(ctx context.Context) ([]Bridge, error)

	// Create inserts a new bridge registration.
	// Returns ErrDuplicateBridge if the address is already registered.
	Create(ctx context.Context, bridge *Bridge) error

	// UpdateStatus updates a bridge's liveness status.
	// Returns ErrUnknownBridge if the bridge does not exist.
	UpdateStatus(ctx context.Context, id string, status BridgeStatus) error

	// Delete removes a bridge registration.
	// Returns ErrUnknownBridge if the bridge does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const bridgeColumns = `id, address, username, name, model_id, sw_version, status, registered_at, updated_at`

// GetByID retrieves a bridge by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Bridge, error) {
	query := `SELECT ` + bridgeColumns + ` FROM bridges WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	bridge, err := scanBridge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownBridge
		}
		return nil, fmt.Errorf("querying bridge by id: %w", err)
	}
	return bridge, nil
}

// GetByAddress retrieves a bridge by its network address.
func (r *SQLiteRepository) GetByAddress(ctx context.Context, address string) (*Bridge, error) {
	query := `SELECT ` + bridgeColumns + ` FROM bridges WHERE address = ?`

	row := r.db.QueryRowContext(ctx, query, address)
	bridge, err := scanBridge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownBridge
		}
		return nil, fmt.Errorf("querying bridge by address: %w", err)
	}
	return bridge, nil
}

// List retrieves all registered bridges, oldest registration first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Bridge, error) {
	query := `SELECT ` + bridgeColumns + ` FROM bridges ORDER BY registered_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying bridges: %w", err)
	}
	defer rows.Close()

	var bridges []Bridge
	for rows.Next() {
		bridge, err := scanBridge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bridge: %w", err)
		}
		bridges = append(bridges, *bridge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bridges: %w", err)
	}

	return bridges, nil
}

// Create inserts a new bridge registration.
func (r *SQLiteRepository) Create(ctx context.Context, bridge *Bridge) error {
	now := time.Now().UTC()
	if bridge.RegisteredAt.IsZero() {
		bridge.RegisteredAt = now
	}
	bridge.UpdatedAt = now

	query := `
		INSERT INTO bridges (` + bridgeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		bridge.ID,
		bridge.Address,
		bridge.Username,
		bridge.Name,
		bridge.ModelID,
		bridge.SWVersion,
		string(bridge.Status),
		bridge.RegisteredAt.Format(time.RFC3339),
		bridge.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateBridge
		}
		return fmt.Errorf("inserting bridge: %w", err)
	}

	return nil
}

// UpdateStatus updates a bridge's liveness status.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status BridgeStatus) error {
	query := `UPDATE bridges SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(status),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating bridge status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUnknownBridge
	}

	return nil
}

// Delete removes a bridge registration.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM bridges WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting bridge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUnknownBridge
	}

	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBridge scans a row or rows result into a Bridge.
func scanBridge(scanner rowScanner) (*Bridge, error) {
	var b Bridge
	var status, registeredAt, updatedAt string

	err := scanner.Scan(
		&b.ID,
		&b.Address,
		&b.Username,
		&b.Name,
		&b.ModelID,
		&b.SWVersion,
		&status,
		&registeredAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = BridgeStatus(status)

	var parseErr error
	b.RegisteredAt, parseErr = time.Parse(time.RFC3339, registeredAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing registered_at: %w", parseErr)
	}
	b.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &b, nil
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
