package repository

import (
	"context"

	"github.com/gogotex/personstore/internal/person"
)

// Repository is the Person store. Single-document lookups return (nil, nil)
// when nothing matches; not found is never an error.
type Repository interface {
	Insert(ctx context.Context, p *person.Person) (*person.Person, error)
	InsertMany(ctx context.Context, people []*person.Person) ([]*person.Person, error)

	Find(ctx context.Context, f person.Filter, opts *person.FindOptions) ([]*person.Person, error)
	FindOne(ctx context.Context, f person.Filter) (*person.Person, error)
	FindByID(ctx context.Context, id string) (*person.Person, error)
	Count(ctx context.Context, f person.Filter) (int64, error)

	// Save replaces the whole document by ID. Not atomic with a preceding read.
	Save(ctx context.Context, p *person.Person) (*person.Person, error)
	// FindOneAndUpdate applies u to the first match in one store operation and
	// returns the document as it was before, or after when returnUpdated is set.
	FindOneAndUpdate(ctx context.Context, f person.Filter, u person.Update, returnUpdated bool) (*person.Person, error)

	DeleteByID(ctx context.Context, id string) (*person.Person, error)
	DeleteMany(ctx context.Context, f person.Filter) (int64, error)
}

var (
	_ Repository = (*MemoryRepo)(nil)
	_ Repository = (*MongoRepo)(nil)
)
