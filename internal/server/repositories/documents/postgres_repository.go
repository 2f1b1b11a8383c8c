package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/ridekeeper/internal/common"
	"github.com/dmitrijs2005/ridekeeper/internal/dbx"
	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
)

const uniqueViolation = "23505"

// newID is a seam for tests.
var newID = uuid.NewString

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func encode(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
	}
	return string(b), nil
}

func decode(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return data, nil
}

func dbError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.ErrorAlreadyExists
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, collection string, data map[string]any) (docrpc.Document, error) {
	body, err := encode(data)
	if err != nil {
		return docrpc.Document{}, err
	}

	query :=
		`INSERT INTO documents (collection, id, data)
		 VALUES ($1, $2, $3::jsonb)
		 RETURNING version`

	doc := docrpc.Document{ID: newID(), Data: data}
	if err := r.db.QueryRowContext(ctx, query, collection, doc.ID, body).Scan(&doc.Version); err != nil {
		return docrpc.Document{}, dbError(err)
	}
	return doc, nil
}

func (r *PostgresRepository) Set(ctx context.Context, collection, id string, data map[string]any) (docrpc.Document, error) {
	body, err := encode(data)
	if err != nil {
		return docrpc.Document{}, err
	}

	query :=
		`INSERT INTO documents (collection, id, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE
		 SET data = EXCLUDED.data, version = documents.version + 1, updated_at = now()
		 RETURNING version`

	doc := docrpc.Document{ID: id, Data: data}
	if err := r.db.QueryRowContext(ctx, query, collection, id, body).Scan(&doc.Version); err != nil {
		return docrpc.Document{}, dbError(err)
	}
	return doc, nil
}

func (r *PostgresRepository) Update(ctx context.Context, collection, id string, fields map[string]any) (docrpc.Document, error) {
	body, err := encode(fields)
	if err != nil {
		return docrpc.Document{}, err
	}

	query :=
		`UPDATE documents
		 SET data = data || $3::jsonb, version = version + 1, updated_at = now()
		 WHERE collection = $1 AND id = $2
		 RETURNING data, version`

	return r.scanOne(r.db.QueryRowContext(ctx, query, collection, id, body), id)
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (docrpc.Document, error) {
	query :=
		`SELECT data, version FROM documents
		 WHERE collection = $1 AND id = $2`

	return r.scanOne(r.db.QueryRowContext(ctx, query, collection, id), id)
}

func (r *PostgresRepository) scanOne(row *sql.Row, id string) (docrpc.Document, error) {
	var raw []byte
	doc := docrpc.Document{ID: id}
	if err := row.Scan(&raw, &doc.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docrpc.Document{}, common.ErrorNotFound
		}
		return docrpc.Document{}, dbError(err)
	}

	data, err := decode(raw)
	if err != nil {
		return docrpc.Document{}, err
	}
	doc.Data = data
	return doc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return dbError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Query matches each filter with jsonb containment, so it uses the GIN
// index on data.
func (r *PostgresRepository) Query(ctx context.Context, collection string, filters []docrpc.Filter) ([]docrpc.Document, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, data, version FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range filters {
		body, err := encode(map[string]any{f.Field: f.Value})
		if err != nil {
			return nil, err
		}
		args = append(args, body)
		fmt.Fprintf(&b, ` AND data @> $%d::jsonb`, len(args))
	}
	b.WriteString(` ORDER BY id`)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []docrpc.Document
	for rows.Next() {
		var (
			doc docrpc.Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &raw, &doc.Version); err != nil {
			return nil, dbError(err)
		}
		if doc.Data, err = decode(raw); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}
