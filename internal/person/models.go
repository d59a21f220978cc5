package person

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrValidation = errors.New("person validation failed")
	ErrInvalidID  = errors.New("invalid person id")
)

// Person is the single persisted model. Only Name is required.
type Person struct {
	ID            primitive.ObjectID `json:"id,omitzero" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Age           *int               `json:"age,omitempty" bson:"age,omitempty"`
	FavoriteFoods []string           `json:"favoriteFoods" bson:"favoriteFoods"`
}

// Bson field names, also accepted by FindOptions.Fields.
const (
	FieldID            = "_id"
	FieldName          = "name"
	FieldAge           = "age"
	FieldFavoriteFoods = "favoriteFoods"
)

// ValidationError reports a rejected write. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("person validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validate checks the schema: name must be present and non-empty.
func (p *Person) Validate() error {
	if p == nil {
		return &ValidationError{Field: "person", Reason: "is nil"}
	}
	if p.Name == "" {
		return &ValidationError{Field: FieldName, Reason: "is required"}
	}
	return nil
}

// HasID reports whether the store has assigned (or the projection kept) an identifier.
func (p *Person) HasID() bool { return !p.ID.IsZero() }

// Clone returns a deep copy so callers never share the food slice with a store.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	if p.Age != nil {
		age := *p.Age
		c.Age = &age
	}
	if p.FavoriteFoods != nil {
		c.FavoriteFoods = append([]string(nil), p.FavoriteFoods...)
	}
	return &c
}

// normalize fills store defaults: an absent food list is persisted as [].
func (p *Person) normalize() {
	if p.FavoriteFoods == nil {
		p.FavoriteFoods = []string{}
	}
}

// Prepare validates p and returns a normalized copy ready to be written.
// A missing ID is assigned here, like the ODM does at construction time.
func Prepare(p *Person) (*Person, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := p.Clone()
	c.normalize()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	return c, nil
}

func (p *Person) String() string {
	if p == nil {
		return "<nil>"
	}
	age := "-"
	if p.Age != nil {
		age = fmt.Sprintf("%d", *p.Age)
	}
	id := "-"
	if p.HasID() {
		id = p.ID.Hex()
	}
	return fmt.Sprintf("{_id: %s, name: %q, age: %s, favoriteFoods: [%s]}", id, p.Name, age, strings.Join(p.FavoriteFoods, ", "))
}

// Int returns a pointer to v, for the optional Age field.
func Int(v int) *int { return &v }

// ParseID converts a hex identifier into an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

// Filter selects people. Nil or empty fields do not constrain the match; the
// zero Filter matches every document.
type Filter struct {
	// Name matches exactly (case-sensitive).
	Name *string
	// Food matches when favoriteFoods contains this exact value.
	Food string
	// FoodPattern matches when any favoriteFoods element contains it, ignoring
	// case. An empty pattern still requires at least one favorite food.
	FoodPattern *string
}

func ByName(name string) Filter           { return Filter{Name: &name} }
func ByFood(food string) Filter           { return Filter{Food: food} }
func ByFoodPattern(pattern string) Filter { return Filter{FoodPattern: &pattern} }

// PatternExpr is the regular expression FoodPattern compiles to. The pattern
// is quoted so it is always matched as a literal substring.
func (f Filter) PatternExpr() string {
	if f.FoodPattern == nil {
		return ""
	}
	return regexp.QuoteMeta(*f.FoodPattern)
}

// Validate rejects filter values the store cannot compare: every string must
// be valid UTF-8.
func (f Filter) Validate() error {
	if f.Name != nil && !utf8.ValidString(*f.Name) {
		return &ValidationError{Field: FieldName, Reason: "is not valid UTF-8"}
	}
	if !utf8.ValidString(f.Food) {
		return &ValidationError{Field: FieldFavoriteFoods, Reason: "is not valid UTF-8"}
	}
	if f.FoodPattern != nil && !utf8.ValidString(*f.FoodPattern) {
		return &ValidationError{Field: FieldFavoriteFoods, Reason: "pattern is not valid UTF-8"}
	}
	return nil
}

// Matcher compiles the filter once into a predicate with the same semantics
// the store applies.
func (f Filter) Matcher() (func(*Person) bool, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var re *regexp.Regexp
	if f.FoodPattern != nil {
		var err error
		if re, err = regexp.Compile("(?i)" + f.PatternExpr()); err != nil {
			return nil, &ValidationError{Field: FieldFavoriteFoods, Reason: "pattern: " + err.Error()}
		}
	}
	return func(p *Person) bool {
		if f.Name != nil && p.Name != *f.Name {
			return false
		}
		if f.Food != "" && !contains(p.FavoriteFoods, f.Food) {
			return false
		}
		if re != nil {
			for _, food := range p.FavoriteFoods {
				if re.MatchString(food) {
					return true
				}
			}
			return false
		}
		return true
	}, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// SortField orders results by one field, ascending unless Desc.
type SortField struct {
	Field string
	Desc  bool
}

// FindOptions are the query modifiers applied after the filter:
// sort, then limit, then projection.
type FindOptions struct {
	Sort  []SortField
	Limit int64
	// Fields, when set, is an inclusion projection. The identifier is kept
	// unless ExcludeID is set.
	Fields    []string
	ExcludeID bool
}

// Project returns the shape of p that the store would return for these options.
func (o *FindOptions) Project(p *Person) *Person {
	c := p.Clone()
	if o == nil {
		return c
	}
	if len(o.Fields) > 0 {
		keep := map[string]bool{}
		for _, f := range o.Fields {
			keep[f] = true
		}
		if !keep[FieldName] {
			c.Name = ""
		}
		if !keep[FieldAge] {
			c.Age = nil
		}
		if !keep[FieldFavoriteFoods] {
			c.FavoriteFoods = nil
		}
	}
	if o.ExcludeID {
		c.ID = primitive.NilObjectID
	}
	return c
}

// Update is a field-set applied atomically by the store. Nil fields are left untouched.
type Update struct {
	Name          *string
	Age           *int
	FavoriteFoods []string
}

func (u Update) IsEmpty() bool {
	return u.Name == nil && u.Age == nil && u.FavoriteFoods == nil
}

// Validate rejects updates that would break the schema.
func (u Update) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return &ValidationError{Field: FieldName, Reason: "is required"}
	}
	return nil
}

// Apply mutates p in memory.
func (u Update) Apply(p *Person) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Age != nil {
		age := *u.Age
		p.Age = &age
	}
	if u.FavoriteFoods != nil {
		p.FavoriteFoods = append([]string(nil), u.FavoriteFoods...)
	}
}
