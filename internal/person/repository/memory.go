package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gogotex/personstore/internal/person"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-process repository used by unit tests and by the
// --memory mode of the binaries. Documents are copied on the way in and out,
// so a caller holding a Person sees the same staleness it would with Mongo.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[primitive.ObjectID]*person.Person
	order []primitive.ObjectID // insertion order, the natural order of a collection
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[primitive.ObjectID]*person.Person)}
}

func (m *MemoryRepo) Insert(ctx context.Context, p *person.Person) (*person.Person, error) {
	doc, err := person.Prepare(p)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.put(doc); err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

func (m *MemoryRepo) InsertMany(ctx context.Context, people []*person.Person) ([]*person.Person, error) {
	docs := make([]*person.Person, 0, len(people))
	for i, p := range people {
		doc, err := person.Prepare(p)
		if err != nil {
			return nil, fmt.Errorf("person %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*person.Person, 0, len(docs))
	for _, doc := range docs {
		if err := m.put(doc); err != nil {
			return nil, err
		}
		out = append(out, doc.Clone())
	}
	return out, nil
}

// put stores doc; caller holds the write lock.
func (m *MemoryRepo) put(doc *person.Person) error {
	if _, ok := m.store[doc.ID]; ok {
		return fmt.Errorf("duplicate key: _id %s", doc.ID.Hex())
	}
	m.store[doc.ID] = doc
	m.order = append(m.order, doc.ID)
	return nil
}

// matching returns stored documents that satisfy f, in insertion order.
// Caller holds a lock.
func (m *MemoryRepo) matching(f person.Filter) ([]*person.Person, error) {
	match, err := f.Matcher()
	if err != nil {
		return nil, err
	}
	out := []*person.Person{}
	for _, id := range m.order {
		if d := m.store[id]; match(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryRepo) Find(ctx context.Context, f person.Filter, opts *person.FindOptions) ([]*person.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, err := m.matching(f)
	if err != nil {
		return nil, err
	}
	if opts != nil && len(opts.Sort) > 0 {
		sort.SliceStable(docs, func(i, j int) bool { return less(docs[i], docs[j], opts.Sort) })
	}
	if opts != nil && opts.Limit > 0 && int64(len(docs)) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	out := make([]*person.Person, 0, len(docs))
	for _, d := range docs {
		out = append(out, opts.Project(d))
	}
	return out, nil
}

func less(a, b *person.Person, keys []person.SortField) bool {
	for _, k := range keys {
		c := compareField(a, b, k.Field)
		if c == 0 {
			continue
		}
		if k.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

// compareField orders by one field; a missing age sorts before any value.
func compareField(a, b *person.Person, field string) int {
	switch field {
	case person.FieldName:
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
	case person.FieldAge:
		av, bv := -1, -1
		if a.Age != nil {
			av = *a.Age
		}
		if b.Age != nil {
			bv = *b.Age
		}
		return av - bv
	case person.FieldID:
		return compareIDs(a.ID, b.ID)
	}
	return 0
}

func compareIDs(a, b primitive.ObjectID) int {
	for i := range a {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return 0
}

func (m *MemoryRepo) FindOne(ctx context.Context, f person.Filter) (*person.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, err := m.matching(f)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0].Clone(), nil
}

func (m *MemoryRepo) FindByID(ctx context.Context, id string) (*person.Person, error) {
	oid, err := person.ParseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[oid]; ok {
		return d.Clone(), nil
	}
	return nil, nil
}

func (m *MemoryRepo) Count(ctx context.Context, f person.Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, err := m.matching(f)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (m *MemoryRepo) Save(ctx context.Context, p *person.Person) (*person.Person, error) {
	if p != nil && !p.HasID() {
		return m.Insert(ctx, p)
	}
	doc, err := person.Prepare(p)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[doc.ID]; !ok {
		return nil, nil
	}
	m.store[doc.ID] = doc
	return doc.Clone(), nil
}

func (m *MemoryRepo) FindOneAndUpdate(ctx context.Context, f person.Filter, u person.Update, returnUpdated bool) (*person.Person, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, err := m.matching(f)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	target := docs[0]
	before := target.Clone()
	u.Apply(target)
	if returnUpdated {
		return target.Clone(), nil
	}
	return before, nil
}

func (m *MemoryRepo) DeleteByID(ctx context.Context, id string) (*person.Person, error) {
	oid, err := person.ParseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[oid]
	if !ok {
		return nil, nil
	}
	m.remove(oid)
	return d, nil
}

func (m *MemoryRepo) DeleteMany(ctx context.Context, f person.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, err := m.matching(f)
	if err != nil {
		return 0, err
	}
	for _, d := range docs {
		m.remove(d.ID)
	}
	return int64(len(docs)), nil
}

// remove deletes one document; caller holds the write lock.
func (m *MemoryRepo) remove(id primitive.ObjectID) {
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
