package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogotex/personstore/internal/person"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the name index used by find-by-name and delete-by-name.
// Safe to call repeatedly.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{Keys: bson.D{{Key: person.FieldName, Value: 1}}}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create name index: %w", err)
	}
	return nil
}

// filterDoc translates a Filter into the store's query language.
func filterDoc(f person.Filter) bson.M {
	q := bson.M{}
	if f.Name != nil {
		q[person.FieldName] = *f.Name
	}
	var foods []bson.M
	if f.Food != "" {
		foods = append(foods, bson.M{person.FieldFavoriteFoods: f.Food})
	}
	if f.FoodPattern != nil {
		re := primitive.Regex{Pattern: f.PatternExpr(), Options: "i"}
		foods = append(foods, bson.M{person.FieldFavoriteFoods: bson.M{"$in": bson.A{re}}})
	}
	switch len(foods) {
	case 1:
		for k, v := range foods[0] {
			q[k] = v
		}
	case 2:
		q["$and"] = bson.A{foods[0], foods[1]}
	}
	return q
}

func findOptions(o *person.FindOptions) *options.FindOptions {
	opts := options.Find()
	if o == nil {
		return opts
	}
	if len(o.Sort) > 0 {
		s := bson.D{}
		for _, k := range o.Sort {
			dir := 1
			if k.Desc {
				dir = -1
			}
			s = append(s, bson.E{Key: k.Field, Value: dir})
		}
		opts.SetSort(s)
	}
	if o.Limit > 0 {
		opts.SetLimit(o.Limit)
	}
	if len(o.Fields) > 0 || o.ExcludeID {
		proj := bson.D{}
		for _, f := range o.Fields {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
		if o.ExcludeID {
			proj = append(proj, bson.E{Key: person.FieldID, Value: 0})
		}
		opts.SetProjection(proj)
	}
	return opts
}

func (m *MongoRepo) Insert(ctx context.Context, p *person.Person) (*person.Person, error) {
	doc, err := person.Prepare(p)
	if err != nil {
		return nil, err
	}
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert person: %w", err)
	}
	return doc, nil
}

// InsertMany validates the whole batch before writing anything. Once the
// ordered insert starts, documents accepted before a store failure stay.
func (m *MongoRepo) InsertMany(ctx context.Context, people []*person.Person) ([]*person.Person, error) {
	docs := make([]*person.Person, 0, len(people))
	batch := make([]interface{}, 0, len(people))
	for i, p := range people {
		doc, err := person.Prepare(p)
		if err != nil {
			return nil, fmt.Errorf("person %d: %w", i, err)
		}
		docs = append(docs, doc)
		batch = append(batch, doc)
	}
	if len(batch) == 0 {
		return docs, nil
	}
	if _, err := m.col.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true)); err != nil {
		return nil, fmt.Errorf("insert people: %w", err)
	}
	return docs, nil
}

func (m *MongoRepo) Find(ctx context.Context, f person.Filter, o *person.FindOptions) ([]*person.Person, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	cur, err := m.col.Find(ctx, filterDoc(f), findOptions(o))
	if err != nil {
		return nil, fmt.Errorf("find people: %w", err)
	}
	defer cur.Close(ctx)
	out := []*person.Person{}
	for cur.Next(ctx) {
		var p person.Person
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode person: %w", err)
		}
		out = append(out, &p)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("find people: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) findOne(ctx context.Context, q bson.M) (*person.Person, error) {
	var p person.Person
	if err := m.col.FindOne(ctx, q).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find person: %w", err)
	}
	return &p, nil
}

func (m *MongoRepo) FindOne(ctx context.Context, f person.Filter) (*person.Person, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return m.findOne(ctx, filterDoc(f))
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (*person.Person, error) {
	oid, err := person.ParseID(id)
	if err != nil {
		return nil, err
	}
	return m.findOne(ctx, bson.M{person.FieldID: oid})
}

func (m *MongoRepo) Count(ctx context.Context, f person.Filter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	n, err := m.col.CountDocuments(ctx, filterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return n, nil
}

func (m *MongoRepo) Save(ctx context.Context, p *person.Person) (*person.Person, error) {
	if p != nil && !p.HasID() {
		return m.Insert(ctx, p)
	}
	doc, err := person.Prepare(p)
	if err != nil {
		return nil, err
	}
	res, err := m.col.ReplaceOne(ctx, bson.M{person.FieldID: doc.ID}, doc)
	if err != nil {
		return nil, fmt.Errorf("save person: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, nil
	}
	return doc, nil
}

func (m *MongoRepo) FindOneAndUpdate(ctx context.Context, f person.Filter, u person.Update, returnUpdated bool) (*person.Person, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if u.IsEmpty() {
		return m.FindOne(ctx, f)
	}
	set := bson.M{}
	if u.Name != nil {
		set[person.FieldName] = *u.Name
	}
	if u.Age != nil {
		set[person.FieldAge] = *u.Age
	}
	if u.FavoriteFoods != nil {
		set[person.FieldFavoriteFoods] = u.FavoriteFoods
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	if returnUpdated {
		opts.SetReturnDocument(options.After)
	}
	var p person.Person
	if err := m.col.FindOneAndUpdate(ctx, filterDoc(f), bson.M{"$set": set}, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("update person: %w", err)
	}
	return &p, nil
}

func (m *MongoRepo) DeleteByID(ctx context.Context, id string) (*person.Person, error) {
	oid, err := person.ParseID(id)
	if err != nil {
		return nil, err
	}
	var p person.Person
	if err := m.col.FindOneAndDelete(ctx, bson.M{person.FieldID: oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete person: %w", err)
	}
	return &p, nil
}

func (m *MongoRepo) DeleteMany(ctx context.Context, f person.Filter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	res, err := m.col.DeleteMany(ctx, filterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("delete people: %w", err)
	}
	return res.DeletedCount, nil
}
