package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/personstore/internal/person"
	"github.com/gogotex/personstore/internal/person/service"
	"github.com/gogotex/personstore/internal/storage"
)

// personView is the JSON shape of a Person. The id is omitted when the
// query projected it away.
type personView struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	Age           *int     `json:"age,omitempty"`
	FavoriteFoods []string `json:"favoriteFoods"`
}

func view(p *person.Person) personView {
	v := personView{Name: p.Name, Age: p.Age, FavoriteFoods: p.FavoriteFoods}
	if p.HasID() {
		v.ID = p.ID.Hex()
	}
	return v
}

func views(list []*person.Person) []personView {
	out := make([]personView, 0, len(list))
	for _, p := range list {
		out = append(out, view(p))
	}
	return out
}

type personRequest struct {
	Name          string   `json:"name"`
	Age           *int     `json:"age"`
	FavoriteFoods []string `json:"favoriteFoods"`
}

func (r personRequest) toPerson() *person.Person {
	return &person.Person{Name: r.Name, Age: r.Age, FavoriteFoods: r.FavoriteFoods}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, person.ErrValidation), errors.Is(err, person.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store error"})
	}
}

// bindOptionalJSON binds a JSON body when there is one. An empty body, sized
// or chunked, leaves obj untouched.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// RegisterPersonRoutes mounts the person API. guard runs before every
// mutating route; nil means no guard.
func RegisterPersonRoutes(r gin.IRouter, svc *service.Service, guard gin.HandlerFunc) {
	if guard == nil {
		guard = func(c *gin.Context) { c.Next() }
	}
	g := r.Group("/api/people")

	g.POST("", guard, func(c *gin.Context) {
		var req personRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		saved, err := svc.CreatePerson(c.Request.Context(), req.toPerson())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, view(saved))
	})

	g.POST("/bulk", guard, func(c *gin.Context) {
		var req []personRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		people := make([]*person.Person, 0, len(req))
		for _, r := range req {
			people = append(people, r.toPerson())
		}
		created, err := svc.CreatePeople(c.Request.Context(), people)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, views(created))
	})

	g.GET("", func(c *gin.Context) {
		name, ok := c.GetQuery("name")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
			return
		}
		people, err := svc.FindByName(c.Request.Context(), name)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, views(people))
	})

	g.GET("/search", func(c *gin.Context) {
		food := c.Query("food")
		if food == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "food query parameter is required"})
			return
		}
		p, err := svc.FindOneByFood(c.Request.Context(), food)
		if err != nil {
			writeError(c, err)
			return
		}
		if p == nil {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, view(p))
	})

	g.GET("/food-lovers", func(c *gin.Context) {
		food := c.Query("food")
		if food == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "food query parameter is required"})
			return
		}
		var limit int64
		if s := c.Query("limit"); s != "" {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}
		people, err := svc.FindFoodLovers(c.Request.Context(), food, limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, views(people))
	})

	g.GET("/:id", func(c *gin.Context) {
		p, err := svc.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if p == nil {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, view(p))
	})

	g.POST("/:id/favorite-foods", guard, func(c *gin.Context) {
		var req struct {
			Food string `json:"food"`
		}
		if err := bindOptionalJSON(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p, err := svc.AddFavoriteFood(c.Request.Context(), c.Param("id"), req.Food)
		if err != nil {
			writeError(c, err)
			return
		}
		if p == nil {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, view(p))
	})

	g.PATCH("/by-name/:name/age", guard, func(c *gin.Context) {
		var req struct {
			Age *int `json:"age"`
		}
		if err := bindOptionalJSON(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		age := service.DefaultAge
		if req.Age != nil {
			age = *req.Age
		}
		p, err := svc.SetAge(c.Request.Context(), c.Param("name"), age)
		if err != nil {
			writeError(c, err)
			return
		}
		if p == nil {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, view(p))
	})

	g.DELETE("/:id", guard, func(c *gin.Context) {
		p, err := svc.DeleteByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if p == nil {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, view(p))
	})

	g.DELETE("", guard, func(c *gin.Context) {
		name, ok := c.GetQuery("name")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
			return
		}
		n, err := svc.DeleteByName(c.Request.Context(), name)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deletedCount": n})
	})
}

// Exporter produces a collection snapshot.
type Exporter interface {
	Export(ctx context.Context) (*storage.Snapshot, error)
}

// RegisterExportRoute mounts POST /api/people/export.
func RegisterExportRoute(r gin.IRouter, exp Exporter, guard gin.HandlerFunc) {
	if guard == nil {
		guard = func(c *gin.Context) { c.Next() }
	}
	r.POST("/api/people/export", guard, func(c *gin.Context) {
		snap, err := exp.Export(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "snapshot export failed"})
			return
		}
		c.JSON(http.StatusCreated, snap)
	})
}
