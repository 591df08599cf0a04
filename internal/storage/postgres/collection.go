package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avetra/sales-api/internal/query"
)

// Collection-level sentinels; typed repositories map them to their domain's
// errors.
var (
	errNoDocument = errors.New("document not found")
	errConflict   = errors.New("document version conflict")
)

// FieldKind tells the translator how to cast a JSONB field for comparison and
// ordering.
type FieldKind uint8

const (
	KindText FieldKind = iota
	KindUUID
	KindNumeric
	KindTimestamp
	KindBool
)

// CollectionConfig describes one document table: its name, the filterable
// fields with their kinds, the sortable-field whitelist, and the documented
// default ordering.
type CollectionConfig struct {
	Table       string
	Fields      map[string]FieldKind
	Sortable    func(field string) bool
	DefaultSort []query.Sort
}

// Collection is a generic whole-document store over a (id, version, doc jsonb)
// table. It owns the translation of query.Filter criteria and sort keys into
// SQL, and enforces optimistic concurrency on Replace.
type Collection[T any] struct {
	pool *pgxpool.Pool
	cfg  CollectionConfig
}

// NewCollection creates a Collection bound to a pool and a table config.
func NewCollection[T any](pool *pgxpool.Pool, cfg CollectionConfig) *Collection[T] {
	return &Collection[T]{pool: pool, cfg: cfg}
}

// Create inserts a new document at version 1.
func (c *Collection[T]) Create(ctx context.Context, id uuid.UUID, doc *T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}

	sql := fmt.Sprintf(`INSERT INTO %s (id, version, doc) VALUES ($1, 1, $2)`, c.cfg.Table)
	if _, err := c.pool.Exec(ctx, sql, id, body); err != nil {
		return errors.Wrapf(err, "insert into %s", c.cfg.Table)
	}
	return nil
}

// Upsert inserts the document or overwrites an existing one, bumping its
// version. Intended for idempotent bulk loads, not for request handling.
func (c *Collection[T]) Upsert(ctx context.Context, id uuid.UUID, doc *T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}

	sql := fmt.Sprintf(`INSERT INTO %s (id, version, doc) VALUES ($1, 1, $2)
ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, version = %s.version + 1`, c.cfg.Table, c.cfg.Table)
	if _, err := c.pool.Exec(ctx, sql, id, body); err != nil {
		return errors.Wrapf(err, "upsert into %s", c.cfg.Table)
	}
	return nil
}

// GetByID loads one document and its current version.
func (c *Collection[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, int64, error) {
	sql := fmt.Sprintf(`SELECT doc, version FROM %s WHERE id = $1`, c.cfg.Table)

	var (
		body    []byte
		version int64
	)
	err := c.pool.QueryRow(ctx, sql, id).Scan(&body, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, errNoDocument
		}
		return nil, 0, errors.Wrapf(err, "select from %s", c.cfg.Table)
	}

	doc := new(T)
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, 0, errors.Wrap(err, "unmarshal document")
	}
	return doc, version, nil
}

// Replace overwrites the whole document, compare-and-swapping on version.
// It returns errNoDocument for unknown ids and errConflict when a concurrent
// writer advanced the version first.
func (c *Collection[T]) Replace(ctx context.Context, id uuid.UUID, version int64, doc *T) (int64, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, errors.Wrap(err, "marshal document")
	}

	sql := fmt.Sprintf(`UPDATE %s SET doc = $3, version = version + 1 WHERE id = $1 AND version = $2`, c.cfg.Table)
	tag, err := c.pool.Exec(ctx, sql, id, version, body)
	if err != nil {
		return 0, errors.Wrapf(err, "update %s", c.cfg.Table)
	}
	if tag.RowsAffected() == 1 {
		return version + 1, nil
	}

	// Distinguish a missing document from a lost race.
	existsSQL := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, c.cfg.Table)
	var exists bool
	if err := c.pool.QueryRow(ctx, existsSQL, id).Scan(&exists); err != nil {
		return 0, errors.Wrapf(err, "check %s", c.cfg.Table)
	}
	if !exists {
		return 0, errNoDocument
	}
	return 0, errConflict
}

// Delete removes a document, reporting whether it existed.
func (c *Collection[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.cfg.Table)
	tag, err := c.pool.Exec(ctx, sql, id)
	if err != nil {
		return false, errors.Wrapf(err, "delete from %s", c.cfg.Table)
	}
	return tag.RowsAffected() > 0, nil
}

// Distinct returns the distinct non-empty values of a text field, sorted.
func (c *Collection[T]) Distinct(ctx context.Context, field string) ([]string, error) {
	kind, ok := c.cfg.Fields[field]
	if !ok || kind != KindText {
		return nil, errors.Errorf("distinct on unknown or non-text field %q in %s", field, c.cfg.Table)
	}

	expr := fieldExpr(field, kind)
	sql := fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE COALESCE(%s, '') <> '' ORDER BY 1`,
		expr, c.cfg.Table, expr)

	rows, err := c.pool.Query(ctx, sql)
	if err != nil {
		return nil, errors.Wrapf(err, "select distinct from %s", c.cfg.Table)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan value")
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "read distinct from %s", c.cfg.Table)
	}
	return values, nil
}

// CountAll counts every document in the collection.
func (c *Collection[T]) CountAll(ctx context.Context) (int64, error) {
	return c.Count(ctx, nil)
}

// Count counts the documents matching the filter.
func (c *Collection[T]) Count(ctx context.Context, f query.Filter) (int64, error) {
	where, args, err := c.buildWhere(f, 1)
	if err != nil {
		return 0, err
	}

	sql := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, c.cfg.Table, where)
	var count int64
	if err := c.pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, errors.Wrapf(err, "count %s", c.cfg.Table)
	}
	return count, nil
}

// GetPage returns one page of documents plus the total count over the same
// filtered set. The request is clamped first; an offset past the end yields an
// empty page, not an error.
func (c *Collection[T]) GetPage(ctx context.Context, f query.Filter, req query.PageRequest) ([]T, int64, error) {
	req = req.Normalize()

	total, err := c.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	where, args, err := c.buildWhere(f, 1)
	if err != nil {
		return nil, 0, err
	}
	orderBy := c.buildOrderBy(req.OrderBy)

	n := len(args)
	sql := fmt.Sprintf(`SELECT doc FROM %s%s%s LIMIT $%d OFFSET $%d`,
		c.cfg.Table, where, orderBy, n+1, n+2)
	args = append(args, req.Size, req.Offset())

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "select page from %s", c.cfg.Table)
	}
	defer rows.Close()

	items := make([]T, 0, req.Size)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, 0, errors.Wrap(err, "scan document")
		}
		var doc T
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, 0, errors.Wrap(err, "unmarshal document")
		}
		items = append(items, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrapf(err, "read page from %s", c.cfg.Table)
	}

	return items, total, nil
}

// buildWhere translates the criteria list into a WHERE clause with positional
// arguments starting at argStart. An empty filter yields no clause at all.
func (c *Collection[T]) buildWhere(f query.Filter, argStart int) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(f))
	args := make([]any, 0, len(f))

	for _, cr := range f {
		kind, ok := c.cfg.Fields[cr.Field]
		if !ok {
			return "", nil, errors.Errorf("unknown filter field %q in %s", cr.Field, c.cfg.Table)
		}

		expr := fieldExpr(cr.Field, kind)
		n := argStart + len(args)

		switch cr.Op {
		case query.OpContains, query.OpPrefix, query.OpSuffix:
			if kind != KindText {
				return "", nil, errors.Errorf("pattern match on non-text field %q", cr.Field)
			}
			conds = append(conds, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, expr, n))
			args = append(args, likePattern(cr.Op, fmt.Sprint(cr.Value)))
		case query.OpEquals:
			if kind == KindText {
				conds = append(conds, fmt.Sprintf(`LOWER(%s) = LOWER($%d)`, expr, n))
			} else {
				conds = append(conds, fmt.Sprintf(`%s = $%d`, expr, n))
			}
			args = append(args, criterionArg(kind, cr.Value))
		case query.OpGTE:
			conds = append(conds, fmt.Sprintf(`%s >= $%d`, expr, n))
			args = append(args, criterionArg(kind, cr.Value))
		case query.OpLTE:
			conds = append(conds, fmt.Sprintf(`%s <= $%d`, expr, n))
			args = append(args, criterionArg(kind, cr.Value))
		default:
			return "", nil, errors.Errorf("unsupported comparison %d on field %q", cr.Op, cr.Field)
		}
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// buildOrderBy parses the order-by expression against the collection's
// sortable whitelist, falling back to the default ordering, and appends the id
// column as a tiebreak so paging is deterministic.
func (c *Collection[T]) buildOrderBy(orderBy string) string {
	sorts := query.ParseOrderBy(orderBy, c.cfg.Sortable, c.cfg.DefaultSort)

	keys := make([]string, 0, len(sorts)+1)
	for _, s := range sorts {
		kind, ok := c.cfg.Fields[s.Field]
		if !ok {
			continue
		}
		dir := " ASC"
		if s.Desc {
			dir = " DESC"
		}
		keys = append(keys, fieldExpr(s.Field, kind)+dir)
	}
	keys = append(keys, "id ASC")

	return " ORDER BY " + strings.Join(keys, ", ")
}

// fieldExpr builds the JSONB accessor for a (possibly nested) document field,
// cast according to its kind. "name.firstName" becomes
// doc->'name'->>'firstName'.
func fieldExpr(field string, kind FieldKind) string {
	parts := strings.Split(field, ".")

	var b strings.Builder
	b.WriteString("doc")
	for i, part := range parts {
		if i == len(parts)-1 {
			b.WriteString("->>")
		} else {
			b.WriteString("->")
		}
		b.WriteString("'" + part + "'")
	}
	accessor := b.String()

	switch kind {
	case KindNumeric:
		return "(" + accessor + ")::numeric"
	case KindTimestamp:
		return "(" + accessor + ")::timestamptz"
	case KindBool:
		return "(" + accessor + ")::boolean"
	default:
		return accessor
	}
}

// criterionArg converts a criterion operand into a parameter pgx can bind
// against the casted field expression.
func criterionArg(kind FieldKind, value any) any {
	switch kind {
	case KindUUID:
		// The accessor yields text; bind the canonical string form.
		return fmt.Sprint(value)
	default:
		return value
	}
}

// likePattern escapes LIKE metacharacters in the term and wraps it according
// to the comparison kind.
func likePattern(op query.Op, term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	switch op {
	case query.OpPrefix:
		return escaped + "%"
	case query.OpSuffix:
		return "%" + escaped
	default:
		return "%" + escaped + "%"
	}
}
