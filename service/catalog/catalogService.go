package catalogsvc

import (
	"context"
	"strings"

	"decorrental/model"
	"decorrental/service/watcher"
	"decorrental/util/apperr"
)

// AllCategories matches every category in a Filter.
const AllCategories = "All"

type Filter struct {
	Category string
	Search   string
}

type Service interface {
	List(f Filter) []model.Item
	Get(id string) (model.Item, error)
	Categories() []string
	Ready() bool
	WaitReady(ctx context.Context) error
}

// Catalog mirrors the inventory collection.
type Catalog struct {
	m *watcher.Mirror[model.Item]
}

func New() *Catalog { return &Catalog{m: watcher.NewMirror[model.Item]()} }

// Apply installs a snapshot from the inventory watcher.
func (c *Catalog) Apply(s watcher.Snapshot[model.Item]) { c.m.Apply(s) }

func (c *Catalog) Replace(items []model.Item) { c.m.Replace(items) }

// Mirror exposes the backing copy for live subscribers.
func (c *Catalog) Mirror() *watcher.Mirror[model.Item] { return c.m }

func (c *Catalog) Ready() bool { return c.m.Ready() }

func (c *Catalog) WaitReady(ctx context.Context) error { return c.m.WaitReady(ctx) }

// All returns every item in collection order (by name).
func (c *Catalog) All() []model.Item { return c.m.Docs() }

func (c *Catalog) List(f Filter) []model.Item {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := []model.Item{}
	for _, it := range c.m.Docs() {
		if f.Category != "" && f.Category != AllCategories && it.Category != f.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(it.Name), search) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (c *Catalog) Get(id string) (model.Item, error) {
	for _, it := range c.m.Docs() {
		if it.ID == id {
			return it, nil
		}
	}
	return model.Item{}, apperr.New(apperr.NotFound, "item not found")
}

// Categories is "All" followed by each distinct non-empty category in first-seen order.
func (c *Catalog) Categories() []string {
	out := []string{AllCategories}
	seen := map[string]bool{}
	for _, it := range c.m.Docs() {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	return out
}
