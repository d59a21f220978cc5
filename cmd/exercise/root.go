package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gogotex/personstore/internal/config"
	"github.com/gogotex/personstore/internal/database"
	"github.com/gogotex/personstore/internal/person"
	"github.com/gogotex/personstore/internal/person/repository"
	"github.com/gogotex/personstore/internal/person/service"
	"github.com/gogotex/personstore/pkg/logger"
	"github.com/spf13/cobra"
)

// exercise holds what every subcommand shares: the service and a way to
// release the store once the command is done.
type exercise struct {
	memory bool
	svc    *service.Service
	close  func()
}

// open connects the store. --memory skips MongoDB entirely.
func (e *exercise) open(ctx context.Context) error {
	if e.memory {
		e.svc = service.NewService(repository.NewMemoryRepo())
		e.close = func() {}
		return nil
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	h, err := database.Open(ctx, cfg.MongoDB)
	if err != nil {
		return err
	}
	repo := repository.NewMongoRepo(h.People())
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warnf("%v", err)
	}
	e.svc = service.NewService(repo)
	e.close = func() { _ = h.Close(context.Background()) }
	return nil
}

func printJSON(w io.Writer, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Errorf("encode result: %v", err)
		return
	}
	fmt.Fprintln(w, string(b))
}

// newRootCmd builds the command tree. Store failures inside a step are
// logged by the service and do not fail the command.
func newRootCmd() *cobra.Command {
	e := &exercise{}

	root := &cobra.Command{
		Use:   "exercise",
		Short: "Run the person collection exercises against MongoDB",
		Long: `exercise runs each step of the person CRUD walkthrough by name.

MONGO_URI names the database; --memory uses an in-process store instead.

Examples:
  exercise create
  exercise find-by-name Mary
  exercise --memory all`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.close != nil {
				e.close()
			}
		},
	}
	root.PersistentFlags().BoolVar(&e.memory, "memory", false, "Use the in-memory store instead of MongoDB")

	root.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create and save John Doe",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if p, err := e.svc.CreatePerson(cmd.Context(), service.SampleJohn()); err == nil {
					printJSON(cmd.OutOrStdout(), p)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create-many",
			Short: "Create Alice, Bob and Mary in one call",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if people, err := e.svc.CreatePeople(cmd.Context(), service.SamplePeople()); err == nil {
					printJSON(cmd.OutOrStdout(), people)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "find-by-name [name]",
			Short: "Find everyone with this exact name (default Mary)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if people, err := e.svc.FindByName(cmd.Context(), argOr(args, 0, "Mary")); err == nil {
					printJSON(cmd.OutOrStdout(), people)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "find-one-by-food [food]",
			Short: "Find one person whose favorite foods contain this text, any case (default pizza)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if p, err := e.svc.FindOneByFood(cmd.Context(), argOr(args, 0, "pizza")); err == nil && p != nil {
					printJSON(cmd.OutOrStdout(), p)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "find-by-id <id>",
			Short: "Find a person by identifier",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if p, err := e.svc.FindByID(cmd.Context(), args[0]); err == nil && p != nil {
					printJSON(cmd.OutOrStdout(), p)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add-food <id> [food]",
			Short: "Append a favorite food with find, edit, save (default Hamburger)",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if p, err := e.svc.AddFavoriteFood(cmd.Context(), args[0], argOr(args, 1, service.DefaultExtraFood)); err == nil && p != nil {
					printJSON(cmd.OutOrStdout(), p)
				}
				return nil
			},
		},
		newSetAgeCmd(e),
		&cobra.Command{
			Use:   "delete-by-id <id>",
			Short: "Delete a person by identifier",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if p, err := e.svc.DeleteByID(cmd.Context(), args[0]); err == nil && p != nil {
					printJSON(cmd.OutOrStdout(), p)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete-many [name]",
			Short: "Delete everyone with this exact name (default Mary)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if n, err := e.svc.DeleteByName(cmd.Context(), argOr(args, 0, "Mary")); err == nil {
					printJSON(cmd.OutOrStdout(), map[string]int64{"deletedCount": n})
				}
				return nil
			},
		},
		newFoodLoversCmd(e),
		&cobra.Command{
			Use:   "all",
			Short: "Run every step in order against one store",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				runAll(cmd.Context(), e.svc, cmd.OutOrStdout())
				return nil
			},
		},
	)
	return root
}

func newSetAgeCmd(e *exercise) *cobra.Command {
	var age int
	cmd := &cobra.Command{
		Use:   "set-age [name]",
		Short: "Atomically set the age of the first person with this name (default John Doe)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if p, err := e.svc.SetAge(cmd.Context(), argOr(args, 0, "John Doe"), age); err == nil && p != nil {
				printJSON(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&age, "age", service.DefaultAge, "Age to set")
	return cmd
}

func newFoodLoversCmd(e *exercise) *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "food-lovers [food]",
		Short: "People who list this food, sorted by name, without ids (default Burritos)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if people, err := e.svc.FindFoodLovers(cmd.Context(), argOr(args, 0, "Burritos"), limit); err == nil {
				printJSON(cmd.OutOrStdout(), people)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", service.DefaultLoversLimit, "Maximum number of results")
	return cmd
}

func argOr(args []string, i int, def string) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}
	return def
}

// runAll walks the exercise in its original order. Later steps work on the
// documents earlier steps created.
func runAll(ctx context.Context, svc *service.Service, w io.Writer) {
	john, err := svc.CreatePerson(ctx, service.SampleJohn())
	if err != nil {
		return
	}
	if _, err := svc.CreatePeople(ctx, service.SamplePeople()); err != nil {
		return
	}
	_, _ = svc.FindByName(ctx, "Mary")
	_, _ = svc.FindOneByFood(ctx, "pizza")
	_, _ = svc.FindByID(ctx, john.ID.Hex())
	_, _ = svc.AddFavoriteFood(ctx, john.ID.Hex(), service.DefaultExtraFood)
	_, _ = svc.SetAge(ctx, john.Name, service.DefaultAge)
	_, _ = svc.DeleteByID(ctx, john.ID.Hex())
	_, _ = svc.DeleteByName(ctx, "Mary")

	// seed the chained query
	_, _ = svc.CreatePeople(ctx, []*person.Person{
		{Name: "Zoe", FavoriteFoods: []string{"Burritos"}},
		{Name: "Carl", FavoriteFoods: []string{"Burritos", "Tacos"}},
	})
	lovers, err := svc.FindFoodLovers(ctx, "Burritos", service.DefaultLoversLimit)
	if err != nil {
		return
	}
	printJSON(w, lovers)
}
