package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NoLimit means the query returns every matching document.
const NoLimit = -1

// Where is one filter triple.
type Where struct {
	Field string
	Op    string
	Value any
}

// Query is the canonical composed query: a collection path, optional
// ordering, filters, limit and pagination cursor.
//
// A Limit of exactly zero is a sentinel meaning "do not execute at all":
// RunQuery and subscriptions short-circuit before touching the database.
// Callers use it when they only need the collection's write capabilities
// without paying for a read. Build queries with NewQuery so the default is
// NoLimit, not the sentinel.
type Query struct {
	Path       string
	Group      bool // query the whole collection lineage, ignoring parent
	OrderBy    string
	Desc       bool
	Filters    []Where
	Limit      int
	StartAfter any // cursor: last seen value of the OrderBy field
	hasCursor  bool
}

// NewQuery starts a query over a collection path.
func NewQuery(path string) Query {
	return Query{Path: JoinPath(SplitPath(path)...), Limit: NoLimit}
}

// OrderedBy sets the ordering field and direction.
func (q Query) OrderedBy(field string, desc bool) Query {
	q.OrderBy = field
	q.Desc = desc
	return q
}

// Filtered appends one filter triple. Call repeatedly for several filters;
// they combine with AND.
func (q Query) Filtered(field, op string, value any) Query {
	q.Filters = append(q.Filters, Where{Field: field, Op: op, Value: value})
	return q
}

// WithFilters appends a list of triples at once.
func (q Query) WithFilters(filters ...Where) Query {
	q.Filters = append(q.Filters, filters...)
	return q
}

// WithLimit caps the result size. Zero is the do-not-execute sentinel.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// After sets the pagination cursor: results strictly after the given value
// of the OrderBy field, in query order.
func (q Query) After(cursor any) Query {
	q.StartAfter = cursor
	q.hasCursor = true
	return q
}

// InGroup widens the query to every collection of the same lineage,
// regardless of parent document.
func (q Query) InGroup() Query {
	q.Group = true
	return q
}

var whereOps = map[string]string{
	"==": "$eq",
	"!=": "$ne",
	"<":  "$lt",
	"<=": "$lte",
	">":  "$gt",
	">=": "$gte",
	"in": "$in",
}

// mongoFilter composes the Mongo filter document for the query.
func (q Query) mongoFilter() (bson.M, error) {
	filter := bson.M{}
	if !q.Group {
		if !IsCollectionPath(q.Path) {
			return nil, fmt.Errorf("query: not a collection path: %q", q.Path)
		}
		filter[keyParent] = q.Path
	}

	for _, w := range q.Filters {
		switch w.Op {
		case "array-contains":
			// Mongo equality on an array field already means "contains".
			filter[w.Field] = w.Value
		default:
			op, ok := whereOps[w.Op]
			if !ok {
				return nil, fmt.Errorf("query: unknown operator %q", w.Op)
			}
			mergeFieldFilter(filter, w.Field, bson.M{op: w.Value})
		}
	}

	if q.hasCursor {
		if q.OrderBy == "" {
			return nil, fmt.Errorf("query: cursor requires an ordering")
		}
		cmp := "$gt"
		if q.Desc {
			cmp = "$lt"
		}
		mergeFieldFilter(filter, q.OrderBy, bson.M{cmp: q.StartAfter})
	}

	return filter, nil
}

// mergeFieldFilter folds another condition onto a field that may already be
// constrained (cursor + filter on the same field).
func mergeFieldFilter(filter bson.M, field string, cond bson.M) {
	existing, ok := filter[field].(bson.M)
	if !ok {
		filter[field] = cond
		return
	}
	for k, v := range cond {
		existing[k] = v
	}
}

// mongoOptions composes the Find options for the query.
func (q Query) mongoOptions() *options.FindOptions {
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

// RunQuery executes a composed query and returns the matching documents.
// The zero-limit sentinel returns immediately without touching the database.
func (s *Store) RunQuery(ctx context.Context, q Query) ([]Document, error) {
	if q.Limit == 0 {
		return nil, nil
	}

	filter, err := q.mongoFilter()
	if err != nil {
		return nil, err
	}
	key, err := CollectionKey(q.Path)
	if err != nil {
		return nil, err
	}

	cur, err := s.db.Collection(key).Find(ctx, filter, q.mongoOptions())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Path, err)
	}
	defer cur.Close(ctx)

	var docs []Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			continue
		}
		docs = append(docs, *docFromRaw(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Path, err)
	}
	return docs, nil
}
