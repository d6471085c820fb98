package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/CTAG07/wordchain/pkg/markov"
)

// ErrChainNotFound is returned when no chain with the requested name exists.
var ErrChainNotFound = errors.New("chain not found")

// ChainInfo holds the metadata of a stored chain.
type ChainInfo struct {
	Id     int    `json:"id"`
	Name   string `json:"name"`
	Order  int    `json:"order"`
	States int    `json:"states"`
}

// SetupSchema initializes the necessary tables in the provided database.
// It is idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaChains = `
CREATE TABLE IF NOT EXISTS wordchain_chains (
    chain_id INTEGER PRIMARY KEY,
    chain_name TEXT NOT NULL UNIQUE,
    chain_order INTEGER NOT NULL
);
`
		schemaStates = `
CREATE TABLE IF NOT EXISTS wordchain_states (
    chain_id INTEGER NOT NULL,
    state_index INTEGER NOT NULL,
    state_text TEXT NOT NULL,
    PRIMARY KEY (chain_id, state_index)
);
`
		schemaSuccessors = `
CREATE TABLE IF NOT EXISTS wordchain_successors (
    chain_id INTEGER NOT NULL,
    state_index INTEGER NOT NULL,
    position INTEGER NOT NULL,
    word TEXT NOT NULL,
    PRIMARY KEY (chain_id, state_index, position)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing. If it fails, this will clean up.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaChains); err != nil {
		return fmt.Errorf("could not create chains schema: %w", err)
	}

	if _, err = tx.Exec(schemaStates); err != nil {
		return fmt.Errorf("could not create states schema: %w", err)
	}

	if _, err = tx.Exec(schemaSuccessors); err != nil {
		return fmt.Errorf("could not create successors schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store saves and loads chains. It holds prepared statements for the
// read paths; writes run in their own transactions.
type Store struct {
	db                *sql.DB
	stmtGetChainInfo  *sql.Stmt
	stmtGetChains     *sql.Stmt
	stmtGetStates     *sql.Stmt
	stmtGetSuccessors *sql.Stmt
	logger            *slog.Logger
}

// New creates a Store on a database whose schema was set up with SetupSchema.
func New(db *sql.DB) (*Store, error) {
	stmtGetChainInfo, err := db.Prepare(`SELECT chain_id, chain_order FROM wordchain_chains WHERE chain_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetChains, err := db.Prepare(`
SELECT c.chain_id, c.chain_name, c.chain_order,
       (SELECT COUNT(*) FROM wordchain_states s WHERE s.chain_id = c.chain_id)
FROM wordchain_chains c ORDER BY c.chain_name;`)
	if err != nil {
		return nil, err
	}

	stmtGetStates, err := db.Prepare(`SELECT state_index, state_text FROM wordchain_states WHERE chain_id = ? ORDER BY state_index;`)
	if err != nil {
		return nil, err
	}

	stmtGetSuccessors, err := db.Prepare(`SELECT state_index, word FROM wordchain_successors WHERE chain_id = ? ORDER BY state_index, position;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                db,
		stmtGetChainInfo:  stmtGetChainInfo,
		stmtGetChains:     stmtGetChains,
		stmtGetStates:     stmtGetStates,
		stmtGetSuccessors: stmtGetSuccessors,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGetChainInfo.Close()
	_ = s.stmtGetChains.Close()
	_ = s.stmtGetStates.Close()
	_ = s.stmtGetSuccessors.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// List returns the metadata of every stored chain, ordered by name.
func (s *Store) List(ctx context.Context) ([]ChainInfo, error) {
	rows, err := s.stmtGetChains.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var chains []ChainInfo
	for rows.Next() {
		var info ChainInfo
		if err = rows.Scan(&info.Id, &info.Name, &info.Order, &info.States); err != nil {
			return nil, err
		}
		chains = append(chains, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return chains, nil
}

// Save writes chain under name, replacing whatever was stored under that
// name before. The operation is performed within a transaction.
func (s *Store) Save(ctx context.Context, name string, chain *markov.Chain) error {
	if name == "" {
		return errors.New("chain name must not be empty")
	}
	snapshot := chain.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var chainID int
	err = tx.QueryRowContext(ctx, "SELECT chain_id FROM wordchain_chains WHERE chain_name = ?", name).Scan(&chainID)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.ExecContext(ctx, "INSERT INTO wordchain_chains (chain_name, chain_order) VALUES (?, ?)", name, snapshot.Order)
		if err != nil {
			return fmt.Errorf("failed to insert chain '%s': %w", name, err)
		}
		newID, _ := res.LastInsertId()
		chainID = int(newID)
	} else if err != nil {
		return fmt.Errorf("failed to query for chain '%s': %w", name, err)
	} else {
		if _, err = tx.ExecContext(ctx, "UPDATE wordchain_chains SET chain_order = ? WHERE chain_id = ?", snapshot.Order, chainID); err != nil {
			return fmt.Errorf("failed to update chain '%s': %w", name, err)
		}
		if err = deleteChainRows(ctx, tx, chainID); err != nil {
			return err
		}
	}

	stmtInsertState, err := tx.PrepareContext(ctx, `INSERT INTO wordchain_states (chain_id, state_index, state_text) VALUES (?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare state insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertState)

	stmtInsertSuccessor, err := tx.PrepareContext(ctx, `INSERT INTO wordchain_successors (chain_id, state_index, position, word) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare successor insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertSuccessor)

	var transitions int
	for i, state := range snapshot.States {
		stateText := strings.Join(state.State, " ")
		if _, err = stmtInsertState.ExecContext(ctx, chainID, i, stateText); err != nil {
			return fmt.Errorf("failed to insert state '%s': %w", stateText, err)
		}
		for pos, word := range state.Successors {
			if _, err = stmtInsertSuccessor.ExecContext(ctx, chainID, i, pos, word); err != nil {
				return fmt.Errorf("failed to insert successor (%s -> %s): %w", stateText, word, err)
			}
		}
		transitions += len(state.Successors)
	}

	s.logger.InfoContext(ctx, "Chain saved",
		slog.String("chain_name", name),
		slog.Int("chain_id", chainID),
		slog.Int("states", len(snapshot.States)),
		slog.Int("transitions", transitions),
	)

	return tx.Commit()
}

// Load reads the chain stored under name. It returns ErrChainNotFound if
// there is none. opts are passed to the new chain.
func (s *Store) Load(ctx context.Context, name string, opts ...markov.Option) (*markov.Chain, error) {
	var chainID, order int
	err := s.stmtGetChainInfo.QueryRowContext(ctx, name).Scan(&chainID, &order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrChainNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query for chain '%s': %w", name, err)
	}

	snapshot := markov.ExportedChain{Order: order}

	rows, err := s.stmtGetStates.QueryContext(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("could not query states: %w", err)
	}
	indexes := make(map[int]int)
	for rows.Next() {
		var index int
		var text string
		if err = rows.Scan(&index, &text); err != nil {
			_ = rows.Close()
			return nil, err
		}
		indexes[index] = len(snapshot.States)
		snapshot.States = append(snapshot.States, markov.ExportedState{State: strings.Split(text, " ")})
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	sRows, err := s.stmtGetSuccessors.QueryContext(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("could not query successors: %w", err)
	}
	for sRows.Next() {
		var index int
		var word string
		if err = sRows.Scan(&index, &word); err != nil {
			_ = sRows.Close()
			return nil, err
		}
		i, ok := indexes[index]
		if !ok {
			_ = sRows.Close()
			return nil, fmt.Errorf("consistency error: successor for unknown state index %d", index)
		}
		snapshot.States[i].Successors = append(snapshot.States[i].Successors, word)
	}
	_ = sRows.Close()
	if err = sRows.Err(); err != nil {
		return nil, err
	}

	chain, err := markov.FromSnapshot(snapshot, opts...)
	if err != nil {
		return nil, fmt.Errorf("stored chain '%s' is invalid: %w", name, err)
	}

	s.logger.InfoContext(ctx, "Chain loaded",
		slog.String("chain_name", name),
		slog.Int("chain_id", chainID),
		slog.Int("states", chain.Len()),
	)
	return chain, nil
}

// Remove deletes the chain stored under name and all of its rows. Removing a
// name that does not exist is not an error.
func (s *Store) Remove(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var chainID int
	err = tx.QueryRowContext(ctx, "SELECT chain_id FROM wordchain_chains WHERE chain_name = ?", name).Scan(&chainID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if err = deleteChainRows(ctx, tx, chainID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM wordchain_chains WHERE chain_id = ?", chainID); err != nil {
		return fmt.Errorf("failed to remove chain %d: %w", chainID, err)
	}

	s.logger.InfoContext(ctx, "Chain removed",
		slog.String("chain_name", name),
		slog.Int("chain_id", chainID),
	)

	return tx.Commit()
}

// deleteChainRows removes the states and successors of a chain.
func deleteChainRows(ctx context.Context, tx *sql.Tx, chainID int) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM wordchain_successors WHERE chain_id = ?", chainID); err != nil {
		return fmt.Errorf("failed to remove successors for chain %d: %w", chainID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM wordchain_states WHERE chain_id = ?", chainID); err != nil {
		return fmt.Errorf("failed to remove states for chain %d: %w", chainID, err)
	}
	return nil
}
