package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/gogotex/personstore/internal/person"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func personDoc(id primitive.ObjectID, name string, age int32, foods ...string) bson.D {
	arr := bson.A{}
	for _, f := range foods {
		arr = append(arr, f)
	}
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "age", Value: age},
		{Key: "favoriteFoods", Value: arr},
	}
}

func TestFilterDoc(t *testing.T) {
	require.Equal(t, bson.M{}, filterDoc(person.Filter{}))
	require.Equal(t, bson.M{"name": "Mary"}, filterDoc(person.ByName("Mary")))
	require.Equal(t, bson.M{"favoriteFoods": "Burritos"}, filterDoc(person.ByFood("Burritos")))

	q := filterDoc(person.ByFoodPattern("piz.za"))
	in := q["favoriteFoods"].(bson.M)["$in"].(bson.A)
	re := in[0].(primitive.Regex)
	require.Equal(t, `piz\.za`, re.Pattern)
	require.Equal(t, "i", re.Options)

	both := person.ByFoodPattern("bur")
	both.Food = "Tacos"
	require.Len(t, filterDoc(both)["$and"].(bson.A), 2)

	// an empty pattern keeps the constraint, so an empty food list never matches
	empty := filterDoc(person.ByFoodPattern(""))
	require.Contains(t, empty, "favoriteFoods")
}

func TestMongoRepo_RejectsInvalidFilter(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("invalid utf-8 never reaches the server", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		ctx := context.Background()

		_, err := repo.FindOne(ctx, person.ByFoodPattern("\xff"))
		require.ErrorIs(t, err, person.ErrValidation)
		_, err = repo.Find(ctx, person.ByName("\xff"), nil)
		require.ErrorIs(t, err, person.ErrValidation)
		_, err = repo.DeleteMany(ctx, person.ByFood("\xff"))
		require.ErrorIs(t, err, person.ErrValidation)
	})
}

func TestFindOptions(t *testing.T) {
	opts := findOptions(&person.FindOptions{
		Sort:      []person.SortField{{Field: "name"}},
		Limit:     2,
		Fields:    []string{"name", "favoriteFoods"},
		ExcludeID: true,
	})
	require.Equal(t, bson.D{{Key: "name", Value: 1}}, opts.Sort)
	require.Equal(t, int64(2), *opts.Limit)
	require.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "favoriteFoods", Value: 1}, {Key: "_id", Value: 0}}, opts.Projection)

	plain := findOptions(nil)
	require.Nil(t, plain.Limit)
	require.Nil(t, plain.Projection)
}

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := "personstore.people"

	mt.Run("insert assigns id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		saved, err := repo.Insert(ctx, &person.Person{Name: "John Doe", Age: person.Int(30), FavoriteFoods: []string{"pizza", "pasta"}})
		require.NoError(mt, err)
		require.True(mt, saved.HasID())
	})

	mt.Run("insert rejects missing name without a round trip", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		_, err := repo.Insert(ctx, &person.Person{Age: person.Int(30)})
		require.True(mt, errors.Is(err, person.ErrValidation))
	})

	mt.Run("insert surfaces write errors", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))
		_, err := repo.Insert(ctx, &person.Person{Name: "John Doe"})
		require.Error(mt, err)
		var we mongo.WriteException
		require.True(mt, errors.As(err, &we))
	})

	mt.Run("insert many", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		out, err := repo.InsertMany(ctx, []*person.Person{{Name: "Alice"}, {Name: "Bob"}, {Name: "Mary"}})
		require.NoError(mt, err)
		require.Len(mt, out, 3)
		ids := map[primitive.ObjectID]bool{}
		for _, p := range out {
			ids[p.ID] = true
		}
		require.Len(mt, ids, 3)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, personDoc(id, "John Doe", 30, "pizza", "pasta")))
		got, err := repo.FindByID(ctx, id.Hex())
		require.NoError(mt, err)
		require.Equal(mt, id, got.ID)
		require.Equal(mt, 30, *got.Age)
		require.Equal(mt, []string{"pizza", "pasta"}, got.FavoriteFoods)
	})

	mt.Run("find one not found", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		got, err := repo.FindOne(ctx, person.ByFoodPattern("pizza"))
		require.NoError(mt, err)
		require.Nil(mt, got)
	})

	mt.Run("find by malformed id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		_, err := repo.FindByID(ctx, "680da")
		require.True(mt, errors.Is(err, person.ErrInvalidID))
	})

	mt.Run("find many", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			personDoc(primitive.NewObjectID(), "Mary", 20, "Sushi"),
			personDoc(primitive.NewObjectID(), "Mary", 21, "Salad"),
		))
		out, err := repo.Find(ctx, person.ByName("Mary"), nil)
		require.NoError(mt, err)
		require.Len(mt, out, 2)
	})

	mt.Run("find surfaces command errors", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad query"}))
		_, err := repo.Find(ctx, person.ByName("Mary"), nil)
		require.Error(mt, err)
	})

	mt.Run("save replaces by id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		p := &person.Person{ID: primitive.NewObjectID(), Name: "John Doe", FavoriteFoods: []string{"pizza", "pasta", "Hamburger"}}
		saved, err := repo.Save(ctx, p)
		require.NoError(mt, err)
		require.Equal(mt, p.FavoriteFoods, saved.FavoriteFoods)
	})

	mt.Run("save of a vanished document", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		saved, err := repo.Save(ctx, &person.Person{ID: primitive.NewObjectID(), Name: "Ghost"})
		require.NoError(mt, err)
		require.Nil(mt, saved)
	})

	mt.Run("find one and update", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: personDoc(id, "John Doe", 20)}))
		got, err := repo.FindOneAndUpdate(ctx, person.ByName("John Doe"), person.Update{Age: person.Int(20)}, true)
		require.NoError(mt, err)
		require.Equal(mt, 20, *got.Age)
	})

	mt.Run("find one and update without match", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		got, err := repo.FindOneAndUpdate(ctx, person.ByName("Nobody"), person.Update{Age: person.Int(20)}, true)
		require.NoError(mt, err)
		require.Nil(mt, got)
	})

	mt.Run("delete by id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: personDoc(id, "Bob", 35)}))
		got, err := repo.DeleteByID(ctx, id.Hex())
		require.NoError(mt, err)
		require.Equal(mt, "Bob", got.Name)
	})

	mt.Run("delete many", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))
		n, err := repo.DeleteMany(ctx, person.ByName("Mary"))
		require.NoError(mt, err)
		require.Equal(mt, int64(2), n)
	})
}
