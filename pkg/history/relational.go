package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
)

// Relational is a Store over a single SQL table, for the memory.kind =
// relational backend family (§1, §4.1). Table/column identifiers come
// from the column-mapping contract and are validated against the
// SQL-identifier pattern before being interpolated into any query (§9),
// mirroring vectorstore/pgvector's treatment of the same contract.
type Relational struct {
	pool        *pgxpool.Pool
	table       string
	cols        RelationalColumns
	maxMessages int
}

// RelationalColumns names the table's expected columns; callers map these
// from config.DatabaseConfig.ColumnMap the same way other persistence
// adapters do.
type RelationalColumns struct {
	SessionID string
	Role      string
	Content   string
	CreatedAt string
}

func defaultColumns() RelationalColumns {
	return RelationalColumns{SessionID: "session_id", Role: "role", Content: "content", CreatedAt: "created_at"}
}

// NewRelational opens a pool and validates the table/column identifiers.
// It does not create the table; operators provision it per the
// column-mapping contract.
func NewRelational(ctx context.Context, connString, table string, cols RelationalColumns, maxMessages int) (*Relational, error) {
	if table == "" {
		table = "chat_history"
	}
	if !config.ValidIdentifier(table) {
		return nil, fmt.Errorf("history/relational: table name %q is not a safe SQL identifier", table)
	}
	if cols == (RelationalColumns{}) {
		cols = defaultColumns()
	}
	for _, c := range []string{cols.SessionID, cols.Role, cols.Content, cols.CreatedAt} {
		if !config.ValidIdentifier(c) {
			return nil, fmt.Errorf("history/relational: column name %q is not a safe SQL identifier", c)
		}
	}
	if maxMessages <= 0 {
		maxMessages = 20
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("history/relational: connect: %w", err)
	}
	return &Relational{pool: pool, table: table, cols: cols, maxMessages: maxMessages}, nil
}

var _ Store = (*Relational)(nil)

func (r *Relational) AddMessage(ctx context.Context, sessionID string, role Role, content string) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, now())",
		r.table, r.cols.SessionID, r.cols.Role, r.cols.Content, r.cols.CreatedAt,
	)
	_, err := r.pool.Exec(ctx, query, sessionID, string(role), content)
	if err != nil {
		return fmt.Errorf("history/relational: insert: %w", err)
	}
	return nil
}

// GetRecent queries in descending timestamp and reverses the result for
// chronological order, per §6's contract for persistent variants. Ties on
// the mapped CreatedAt column (two messages inserted within the same
// clock tick, e.g. a user/assistant pair appended back to back) are
// broken by the table's implicit insertion-order primary key, "id" — not
// part of the column-mapping contract since every provisioned table is
// expected to carry one, so ORDER BY never depends on clock resolution
// alone.
func (r *Relational) GetRecent(ctx context.Context, sessionID string, n int) ([]ChatMessage, error) {
	limit := n
	if limit <= 0 {
		limit = r.maxMessages
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s DESC, id DESC LIMIT $2",
		r.cols.Role, r.cols.Content, r.cols.CreatedAt, r.table, r.cols.SessionID, r.cols.CreatedAt,
	)
	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("history/relational: select: %w", err)
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var role string
		if err := rows.Scan(&role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("history/relational: scan: %w", err)
		}
		m.SessionID = sessionID
		m.Role = Role(role)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
