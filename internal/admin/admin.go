// Package admin implements the operator dialogue: the menu and the add, list,
// delete and search operations. Each run performs one operation and returns;
// the caller turns the result into an exit code.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frigidsec/ctfadmin/internal/ctfflag"
	"github.com/frigidsec/ctfadmin/internal/logger"
	"github.com/frigidsec/ctfadmin/internal/store"
	"github.com/frigidsec/ctfadmin/internal/ui"
)

// Options wires an App.
type Options struct {
	Store     store.Store
	Validator *ctfflag.Validator
	Hasher    *ctfflag.Hasher
	Console   *ui.Console
	// Timeout bounds each store call. Zero means no bound.
	Timeout time.Duration
	// JSON makes List print a JSON array instead of a table.
	JSON bool
}

type App struct {
	store     store.Store
	validator *ctfflag.Validator
	hasher    *ctfflag.Hasher
	console   *ui.Console
	timeout   time.Duration
	json      bool
}

func New(opts Options) *App {
	return &App{
		store:     opts.Store,
		validator: opts.Validator,
		hasher:    opts.Hasher,
		console:   opts.Console,
		timeout:   opts.Timeout,
		json:      opts.JSON,
	}
}

type menuEntry struct {
	key   string
	label string
	run   func(a *App, ctx context.Context) error
}

var menu = []menuEntry{
	{"1", "Add a new challenge", (*App).Add},
	{"2", "View existing challenges", (*App).List},
	{"3", "Delete a challenge", (*App).Delete},
	{"4", "Search a challenge", (*App).Search},
	{"5", "Exit", nil},
}

// Run shows the menu, reads one choice and performs that operation.
func (a *App) Run(ctx context.Context) error {
	for _, e := range menu {
		a.console.Printf("%s. %s\n", e.key, e.label)
	}

	choice, err := a.prompt("What do you want to do? (1/2/3/4/5): ")
	if err != nil {
		return err
	}

	for _, e := range menu {
		if e.key != choice {
			continue
		}
		logger.Debug("Menu choice %s (%s)", e.key, e.label)
		if e.run == nil {
			a.console.Println("Exiting...")
			return nil
		}
		return e.run(a, ctx)
	}

	a.console.Error("Invalid option.")
	a.console.Println("Exiting...")
	return fmt.Errorf("%w: menu choice %q", ErrInvalidInput, choice)
}

// Add prompts for a name and flag, asks for confirmation and inserts the
// challenge unless its name or flag hash is already taken.
func (a *App) Add(ctx context.Context) error {
	name, err := a.promptName("Enter the challenge name (ex: S0-S1mpl3): ")
	if err != nil {
		return err
	}

	flag, err := a.prompt(fmt.Sprintf("Enter the flag (ex: %s): ", a.validator.Example()))
	if err != nil {
		return err
	}
	if !a.validator.Validate(flag) {
		a.console.Error(fmt.Sprintf("Flag doesn't match the regex %s", a.validator.Pattern()))
		a.console.Println("Exiting...")
		return ErrInvalidFlag
	}

	flagHash := a.hasher.Hash(flag)
	a.console.Println()
	a.console.Card("New challenge", []ui.Field{
		{Key: "Challenge Name", Value: name},
		{Key: "Flag", Value: flag},
		{Key: "Flag Hash", Value: flagHash},
	})

	answer, err := a.prompt("\nAre you sure you want to create this challenge? (y/n): ")
	if err != nil {
		return err
	}
	switch strings.ToLower(answer) {
	case "y":
	case "n":
		a.console.Println("Okay. Exiting...")
		return nil
	default:
		a.console.Error("Invalid answer.")
		a.console.Println("Exiting...")
		return fmt.Errorf("%w: confirmation %q", ErrInvalidInput, answer)
	}

	filter := store.ByNameOrHash(name, flagHash)
	exists, err := a.exists(ctx, filter)
	if err != nil {
		a.storeFailure("An error occurred while checking for duplicates.", err)
		return err
	}
	if exists {
		dup, err := a.findOne(ctx, filter)
		switch {
		case err == nil:
			a.console.Println()
			a.console.Error("A challenge with this name or flag already exists:")
			a.console.Card("", []ui.Field{
				{Key: "Duplicate Challenge Name", Value: dup.Name},
				{Key: "Duplicate Challenge Flag Hash", Value: dup.FlagHash},
			})
			logger.Info("Rejected duplicate challenge %q (conflicts with %q)", name, dup.Name)
			return &ConflictError{Existing: *dup}
		case errors.Is(err, store.ErrNotFound):
			// The duplicate was removed between the two lookups.
			logger.Warning("Duplicate for %q vanished before it could be shown", name)
		default:
			a.storeFailure("An error occurred while checking for duplicates.", err)
			return err
		}
	}

	challenge := &store.Challenge{Name: name, FlagHash: flagHash}
	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	if _, err := a.store.Insert(callCtx, challenge); err != nil {
		a.storeFailure("Error while adding challenge.", err)
		return err
	}

	logger.Info("Added challenge %q (id %s, flag hash %s)", challenge.Name, challenge.ID, challenge.FlagHash)
	a.console.Success(fmt.Sprintf("Challenge %s successfully added.", name))
	return nil
}

// List prints every stored challenge.
func (a *App) List(ctx context.Context) error {
	if !a.json {
		a.console.Println("Here are the existing challenges-")
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	challenges, err := a.store.FindAll(callCtx)
	if err != nil {
		a.storeFailure("Error while fetching challenges.", err)
		return err
	}
	if challenges == nil {
		challenges = []store.Challenge{}
	}

	if a.json {
		data, err := json.MarshalIndent(challenges, "", "  ")
		if err != nil {
			err = fmt.Errorf("failed to encode challenges: %w", err)
			a.console.Error(err.Error())
			return err
		}
		a.console.Println(string(data))
		return nil
	}

	if len(challenges) == 0 {
		a.console.Info("No challenges found.")
		return nil
	}

	rows := make([][]string, 0, len(challenges))
	for _, c := range challenges {
		rows = append(rows, []string{c.ID, c.Name, c.FlagHash})
	}
	return a.console.Table([]string{"ID", "Challenge Name", "Flag Hash"}, rows)
}

// Delete removes the challenge with the entered name.
func (a *App) Delete(ctx context.Context) error {
	name, err := a.promptName("Enter the name of the challenge you want to delete: ")
	if err != nil {
		return err
	}

	filter := store.ByName(name)
	exists, err := a.exists(ctx, filter)
	if err != nil {
		a.storeFailure("Error while looking up challenge.", err)
		return err
	}
	if !exists {
		return a.notFound(name)
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	deleted, err := a.store.DeleteOne(callCtx, filter)
	if err != nil {
		a.storeFailure("Error while deleting challenge.", err)
		return err
	}
	if deleted == 0 {
		return a.notFound(name)
	}

	logger.Info("Deleted challenge %q", name)
	a.console.Success(fmt.Sprintf("Challenge %s successfully deleted.", name))
	return nil
}

// Search prints the challenge with the entered name.
func (a *App) Search(ctx context.Context) error {
	name, err := a.promptName("Enter the challenge name you want to search: ")
	if err != nil {
		return err
	}

	c, err := a.findOne(ctx, store.ByName(name))
	if errors.Is(err, store.ErrNotFound) {
		return a.notFound(name)
	}
	if err != nil {
		a.storeFailure("Error while searching for challenge.", err)
		return err
	}

	a.console.KeyValue("Challenge Name", c.Name)
	a.console.KeyValue("Flag Hash", c.FlagHash)
	a.console.KeyValue("Object ID", c.ID)
	return nil
}

func (a *App) prompt(label string) (string, error) {
	answer, err := a.console.Prompt(label)
	if errors.Is(err, ui.ErrNoInput) {
		a.console.Error("No input received.")
		a.console.Println("Exiting...")
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err != nil {
		a.console.Error(fmt.Sprintf("Error reading input: %v", err))
		return "", err
	}
	return answer, nil
}

func (a *App) promptName(label string) (string, error) {
	name, err := a.prompt(label)
	if err != nil {
		return "", err
	}
	if name == "" {
		a.console.Error("Challenge name cannot be empty.")
		a.console.Println("Exiting...")
		return "", fmt.Errorf("%w: empty challenge name", ErrInvalidInput)
	}
	return name, nil
}

func (a *App) notFound(name string) error {
	a.console.Error(fmt.Sprintf("No challenge named %s found.", name))
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}

func (a *App) storeFailure(message string, err error) {
	logger.Error("%s %v", message, err)
	a.console.Error(message)
	a.console.Println(err.Error())
}

func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout > 0 {
		return context.WithTimeout(ctx, a.timeout)
	}
	return context.WithCancel(ctx)
}

func (a *App) exists(ctx context.Context, f store.Filter) (bool, error) {
	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	return a.store.Exists(callCtx, f)
}

func (a *App) findOne(ctx context.Context, f store.Filter) (*store.Challenge, error) {
	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	return a.store.FindOne(callCtx, f)
}
