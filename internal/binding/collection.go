package binding

import (
	"context"
	"fmt"
	"strings"

	"github.com/babelchat/backend/internal/store"
)

// Collection binds a query to create/patch/delete capabilities plus reads.
// With the query's zero-limit sentinel it is a pure write handle: Docs
// returns nothing and never executes the query.
type Collection struct {
	backend store.Backend
	query   store.Query
}

// NewCollection binds a composed query. The query's Path is also the
// collection new documents are created in.
func NewCollection(b store.Backend, q store.Query) *Collection {
	return &Collection{backend: b, query: q}
}

// Path returns the bound collection path.
func (c *Collection) Path() string { return c.query.Path }

// Query returns the bound query, e.g. to hand to a subscriber.
func (c *Collection) Query() store.Query { return c.query }

// Docs executes the bound query once. Honors the zero-limit sentinel.
func (c *Collection) Docs(ctx context.Context) ([]store.Document, error) {
	return c.backend.RunQuery(ctx, c.query)
}

// Add creates a new document with server-stamped createdAt and updatedAt.
// Normally a fresh id is allocated under the collection path; when the
// fields carry a "path" pseudo-field (group-write mode, the target is
// already known from a prior snapshot) the document is written there
// instead. Returns the path of the created document.
func (c *Collection) Add(ctx context.Context, fields map[string]any) (string, error) {
	path, _ := fields["path"].(string)
	if path == "" {
		path = c.query.Path + "/" + c.backend.NewID()
	}

	doc := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		if k == "id" || k == "path" {
			continue
		}
		doc[k] = v
	}
	doc["createdAt"] = store.ServerTimestamp
	doc["updatedAt"] = store.ServerTimestamp

	if err := c.backend.Set(ctx, path, doc, false); err != nil {
		return "", err
	}
	return path, nil
}

// Update merge-patches a document addressed either by full path or by id
// within this collection. Same patch semantics as Document.Update.
func (c *Collection) Update(ctx context.Context, pathOrID string, fields map[string]any) error {
	path, err := c.resolve(pathOrID)
	if err != nil {
		return err
	}
	return NewDocument(c.backend, path).Update(ctx, fields)
}

// Remove deletes a document addressed by full path or by id.
func (c *Collection) Remove(ctx context.Context, pathOrID string) error {
	path, err := c.resolve(pathOrID)
	if err != nil {
		return err
	}
	return c.backend.Delete(ctx, path)
}

func (c *Collection) resolve(pathOrID string) (string, error) {
	if pathOrID == "" {
		return "", fmt.Errorf("empty document reference")
	}
	if strings.Contains(pathOrID, "/") {
		return pathOrID, nil
	}
	return c.query.Path + "/" + pathOrID, nil
}
