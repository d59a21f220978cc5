package service

import (
	"context"
	"time"

	"github.com/gogotex/personstore/internal/person"
	"github.com/gogotex/personstore/internal/person/repository"
	"github.com/gogotex/personstore/pkg/logger"
	"github.com/gogotex/personstore/pkg/metrics"
)

const (
	// DefaultExtraFood is what AddFavoriteFood appends when no food is given.
	DefaultExtraFood = "Hamburger"
	// DefaultAge is the age SetAge writes when none is given.
	DefaultAge = 20
	// DefaultLoversLimit bounds FindFoodLovers.
	DefaultLoversLimit = 2
)

// Service runs the person exercises against a repository. Every operation is
// one round trip (two for AddFavoriteFood), logs its outcome and returns it.
// Failures are returned, never escalated.
type Service struct {
	repo repository.Repository
}

func NewService(r repository.Repository) *Service {
	return &Service{repo: r}
}

// SampleJohn is the single record of the create-and-save exercise.
func SampleJohn() *person.Person {
	return &person.Person{Name: "John Doe", Age: person.Int(30), FavoriteFoods: []string{"pizza", "pasta"}}
}

// SamplePeople is the batch of the create-many exercise.
func SamplePeople() []*person.Person {
	return []*person.Person{
		{Name: "Alice", Age: person.Int(25), FavoriteFoods: []string{"Sushi", "Salad"}},
		{Name: "Bob", Age: person.Int(35), FavoriteFoods: []string{"Pasta", "Ice Cream"}},
		{Name: "Mary", Age: person.Int(20), FavoriteFoods: []string{"Sushi", "Salad"}},
	}
}

func track(op string, start time.Time, found bool, err error) {
	switch {
	case err != nil:
		metrics.ObserveStoreOp(op, metrics.ResultError, start)
	case !found:
		metrics.ObserveStoreOp(op, metrics.ResultNotFound, start)
	default:
		metrics.ObserveStoreOp(op, metrics.ResultOK, start)
	}
}

// CreatePerson saves one document.
func (s *Service) CreatePerson(ctx context.Context, p *person.Person) (*person.Person, error) {
	start := time.Now()
	saved, err := s.repo.Insert(ctx, p)
	track("create_person", start, true, err)
	if err != nil {
		logger.Errorf("error saving person: %v", err)
		return nil, err
	}
	logger.Infof("person saved: %s", saved)
	return saved, nil
}

// CreatePeople saves a batch. An invalid document rejects the whole batch.
func (s *Service) CreatePeople(ctx context.Context, people []*person.Person) ([]*person.Person, error) {
	start := time.Now()
	created, err := s.repo.InsertMany(ctx, people)
	track("create_people", start, true, err)
	if err != nil {
		logger.Errorf("error creating people: %v", err)
		return nil, err
	}
	logger.Infof("people created: %d", len(created))
	for _, p := range created {
		logger.Debugf("  %s", p)
	}
	return created, nil
}

// FindByName returns everyone whose name matches exactly; empty when no one does.
func (s *Service) FindByName(ctx context.Context, name string) ([]*person.Person, error) {
	start := time.Now()
	people, err := s.repo.Find(ctx, person.ByName(name), nil)
	track("find_by_name", start, len(people) > 0, err)
	if err != nil {
		logger.Errorf("error finding people named %q: %v", name, err)
		return nil, err
	}
	logger.Infof("found %d people named %q", len(people), name)
	return people, nil
}

// FindOneByFood returns the first person with a favorite food containing food,
// ignoring case, or nil.
func (s *Service) FindOneByFood(ctx context.Context, food string) (*person.Person, error) {
	start := time.Now()
	p, err := s.repo.FindOne(ctx, person.ByFoodPattern(food))
	track("find_one_by_food", start, p != nil, err)
	if err != nil {
		logger.Errorf("error finding person by food %q: %v", food, err)
		return nil, err
	}
	if p == nil {
		logger.Infof("no person likes %q", food)
		return nil, nil
	}
	logger.Infof("found person: %s", p)
	return p, nil
}

// FindByID returns the person with this id, or nil. A malformed id is an error.
func (s *Service) FindByID(ctx context.Context, id string) (*person.Person, error) {
	start := time.Now()
	p, err := s.repo.FindByID(ctx, id)
	track("find_by_id", start, p != nil, err)
	if err != nil {
		logger.Errorf("error finding person by id %q: %v", id, err)
		return nil, err
	}
	if p == nil {
		logger.Infof("no person with id %s", id)
		return nil, nil
	}
	logger.Infof("found person by id: %s", p)
	return p, nil
}

// AddFavoriteFood is the classic find, edit, then save update.
//
// The read and the write are separate round trips: a concurrent writer that
// changes the document in between is overwritten, last write wins on the
// whole document. Returns nil when the person does not exist (or vanished
// before the save).
func (s *Service) AddFavoriteFood(ctx context.Context, id, food string) (*person.Person, error) {
	if food == "" {
		food = DefaultExtraFood
	}
	start := time.Now()
	p, err := s.repo.FindByID(ctx, id)
	if err != nil || p == nil {
		track("add_favorite_food", start, p != nil, err)
		if err != nil {
			logger.Errorf("error saving updated person: %v", err)
			return nil, err
		}
		logger.Warnf("cannot add %q: no person with id %s", food, id)
		return nil, nil
	}

	p.FavoriteFoods = append(p.FavoriteFoods, food)

	updated, err := s.repo.Save(ctx, p)
	track("add_favorite_food", start, updated != nil, err)
	if err != nil {
		logger.Errorf("error saving updated person: %v", err)
		return nil, err
	}
	if updated == nil {
		logger.Warnf("person %s was removed before the update was saved", id)
		return nil, nil
	}
	logger.Infof("updated person: %s", updated)
	return updated, nil
}

// SetAge sets the age of the first person with this name in one atomic store
// operation and returns the updated document, or nil when no one matches.
func (s *Service) SetAge(ctx context.Context, name string, age int) (*person.Person, error) {
	start := time.Now()
	p, err := s.repo.FindOneAndUpdate(ctx, person.ByName(name), person.Update{Age: person.Int(age)}, true)
	track("set_age", start, p != nil, err)
	if err != nil {
		logger.Errorf("error updating age of %q: %v", name, err)
		return nil, err
	}
	if p == nil {
		logger.Infof("no person named %q to update", name)
		return nil, nil
	}
	logger.Infof("updated person: %s", p)
	return p, nil
}

// DeleteByID removes one person and returns what was removed, or nil.
func (s *Service) DeleteByID(ctx context.Context, id string) (*person.Person, error) {
	start := time.Now()
	p, err := s.repo.DeleteByID(ctx, id)
	track("delete_by_id", start, p != nil, err)
	if err != nil {
		logger.Errorf("error deleting person %q: %v", id, err)
		return nil, err
	}
	if p == nil {
		logger.Infof("no person with id %s to delete", id)
		return nil, nil
	}
	logger.Infof("deleted person: %s", p)
	return p, nil
}

// DeleteByName removes everyone with exactly this name and reports how many.
func (s *Service) DeleteByName(ctx context.Context, name string) (int64, error) {
	start := time.Now()
	n, err := s.repo.DeleteMany(ctx, person.ByName(name))
	track("delete_by_name", start, n > 0, err)
	if err != nil {
		logger.Errorf("error deleting people: %v", err)
		return 0, err
	}
	if n > 0 {
		logger.Infof("deleted %d person(s)", n)
	} else {
		logger.Infof("no people named %q were found to delete", name)
	}
	return n, nil
}

// LoversQuery is the chained query behind FindFoodLovers: sort by name,
// bound the count, keep name and favoriteFoods only.
func LoversQuery(limit int64) *person.FindOptions {
	if limit <= 0 {
		limit = DefaultLoversLimit
	}
	return &person.FindOptions{
		Sort:      []person.SortField{{Field: person.FieldName}},
		Limit:     limit,
		Fields:    []string{person.FieldName, person.FieldFavoriteFoods},
		ExcludeID: true,
	}
}

// FindFoodLovers returns at most limit people who list food exactly, sorted by
// name, without their identifiers.
func (s *Service) FindFoodLovers(ctx context.Context, food string, limit int64) ([]*person.Person, error) {
	start := time.Now()
	people, err := s.repo.Find(ctx, person.ByFood(food), LoversQuery(limit))
	track("find_food_lovers", start, len(people) > 0, err)
	if err != nil {
		logger.Errorf("error finding %s lovers: %v", food, err)
		return nil, err
	}
	logger.Infof("%s lovers: %d", food, len(people))
	return people, nil
}

// ListPeople returns the whole collection in natural order.
func (s *Service) ListPeople(ctx context.Context) ([]*person.Person, error) {
	start := time.Now()
	people, err := s.repo.Find(ctx, person.Filter{}, nil)
	track("list_people", start, true, err)
	if err != nil {
		logger.Errorf("error listing people: %v", err)
		return nil, err
	}
	return people, nil
}

// Count returns how many people match f.
func (s *Service) Count(ctx context.Context, f person.Filter) (int64, error) {
	start := time.Now()
	n, err := s.repo.Count(ctx, f)
	track("count", start, true, err)
	if err != nil {
		logger.Errorf("error counting people: %v", err)
		return 0, err
	}
	return n, nil
}
