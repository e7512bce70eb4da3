package shell

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"recipegen/internal/generation"
	"recipegen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	recipes []models.Recipe
	err     error
}

// blockingGenerator hands every call to the test through calls and waits for
// a result on the channel it was given.
type blockingGenerator struct {
	mu     sync.Mutex
	inputs []string
	calls  chan chan result
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{calls: make(chan chan result, 4)}
}

func (g *blockingGenerator) Generate(ctx context.Context, ingredients string) ([]models.Recipe, error) {
	g.mu.Lock()
	g.inputs = append(g.inputs, ingredients)
	g.mu.Unlock()

	reply := make(chan result, 1)
	g.calls <- reply
	select {
	case r := <-reply:
		return r.recipes, r.err
	case <-ctx.Done():
		return nil, &generation.Error{Kind: generation.KindCancelled, Err: ctx.Err()}
	}
}

func (g *blockingGenerator) next(t *testing.T) chan result {
	t.Helper()
	select {
	case reply := <-g.calls:
		return reply
	case <-time.After(2 * time.Second):
		t.Fatal("generator was not called")
		return nil
	}
}

func (g *blockingGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inputs)
}

func sampleRecipes(names ...string) []models.Recipe {
	out := make([]models.Recipe, len(names))
	for i, n := range names {
		out[i] = models.Recipe{
			RecipeName:   n,
			Description:  "desc " + n,
			Ingredients:  []string{"a", "b"},
			Instructions: []string{"one", "two"},
			PrepTime:     "5 minutes",
			CookTime:     "10 minutes",
		}
	}
	return out
}

func TestTriggerResetsStateAndDisablesUntilResolved(t *testing.T) {
	gen := newBlockingGenerator()
	s := New(gen, WithIngredients("chicken"))

	require.NoError(t, s.Trigger("chicken"))
	reply := gen.next(t)
	reply <- result{recipes: sampleRecipes("first")}
	s.Wait()

	s.mu.Lock()
	s.state.Error = "stale error"
	s.mu.Unlock()

	require.NoError(t, s.Trigger("chicken, rice"))
	snap := s.Snapshot()
	assert.Equal(t, PhaseGenerating, snap.Phase)
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Recipes)
	assert.Empty(t, snap.Error)
	assert.Equal(t, "chicken, rice", snap.Ingredients)

	// trigger is disabled before the call resolves
	assert.ErrorIs(t, s.Trigger("chicken, rice"), ErrBusy)
	assert.False(t, s.SetIngredients("something else"))

	reply = gen.next(t)
	reply <- result{recipes: sampleRecipes("second")}
	s.Wait()

	snap = s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, 2, gen.callCount())
}

func TestBlankInputLeavesStateAndSkipsGenerator(t *testing.T) {
	gen := newBlockingGenerator()
	s := New(gen)

	require.NoError(t, s.Trigger("eggs"))
	gen.next(t) <- result{recipes: sampleRecipes("omelette")}
	s.Wait()
	before := s.Snapshot()

	for _, blank := range []string{"", "   ", "\t\n"} {
		err := s.Trigger(blank)
		assert.ErrorIs(t, err, ErrEmptyInput)

		after := s.Snapshot()
		assert.Equal(t, "Please enter some ingredients.", after.Error)
		assert.False(t, after.Loading)
		assert.Equal(t, PhaseIdle, after.Phase)
		assert.Equal(t, before.Recipes, after.Recipes)
		assert.Equal(t, before.Attempt, after.Attempt)
	}
	assert.Equal(t, 1, gen.callCount())
}

func TestSuccessStoresRecipesInOrder(t *testing.T) {
	gen := newBlockingGenerator()
	s := New(gen)

	want := sampleRecipes("one", "two", "three", "four")
	require.NoError(t, s.Trigger("flour"))
	gen.next(t) <- result{recipes: want}
	s.Wait()

	snap := s.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assert.Equal(t, want, snap.Recipes)
}

func TestFailureMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"quota", &generation.Error{Kind: generation.KindQuotaExceeded}, generation.KindQuotaExceeded.Message()},
		{"credential", &generation.Error{Kind: generation.KindInvalidCredential}, generation.KindInvalidCredential.Message()},
		{"generic", &generation.Error{Kind: generation.KindServiceUnavailable}, generation.KindServiceUnavailable.Message()},
		{"raw quota", errors.New("some text mentioning quota somewhere"), generation.KindQuotaExceeded.Message()},
		{"raw unknown", errors.New("unexpected end of JSON input"), generation.KindServiceUnavailable.Message()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := newBlockingGenerator()
			s := New(gen)

			require.NoError(t, s.Trigger("tofu"))
			assert.True(t, s.Snapshot().Loading)

			gen.next(t) <- result{err: tc.err}
			s.Wait()

			snap := s.Snapshot()
			assert.Equal(t, tc.want, snap.Error)
			assert.False(t, snap.Loading)
			assert.Empty(t, snap.Recipes)
			assert.Equal(t, PhaseIdle, snap.Phase)

			// re-enabled after failure
			require.NoError(t, s.Trigger("tofu"))
			gen.next(t) <- result{recipes: sampleRecipes("ok")}
			s.Wait()
			assert.Empty(t, s.Snapshot().Error)
		})
	}
}

func TestRepeatedSuccessReplacesRecipes(t *testing.T) {
	gen := newBlockingGenerator()
	s := New(gen)

	require.NoError(t, s.Trigger("rice"))
	gen.next(t) <- result{recipes: sampleRecipes("a", "b", "c")}
	s.Wait()

	require.NoError(t, s.Trigger("rice"))
	gen.next(t) <- result{recipes: sampleRecipes("d", "e", "f")}
	s.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Recipes, 3)
	assert.Equal(t, "d", snap.Recipes[0].RecipeName)
	assert.Equal(t, "f", snap.Recipes[2].RecipeName)
}

func TestCancel(t *testing.T) {
	gen := newBlockingGenerator()
	s := New(gen)

	assert.False(t, s.Cancel())

	require.NoError(t, s.Trigger("beans"))
	reply := gen.next(t)

	assert.True(t, s.Cancel())
	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, generation.KindCancelled.Message(), snap.Error)

	// a late result from the cancelled attempt is discarded
	reply <- result{recipes: sampleRecipes("late")}
	s.Wait()
	assert.Empty(t, s.Snapshot().Recipes)

	require.NoError(t, s.Trigger("beans"))
	gen.next(t) <- result{recipes: sampleRecipes("fresh")}
	s.Wait()
	assert.Equal(t, "fresh", s.Snapshot().Recipes[0].RecipeName)
}

func TestSnapshotIsACopy(t *testing.T) {
	gen := newBlockingGenerator()
	s := New(gen)

	require.NoError(t, s.Trigger("x"))
	gen.next(t) <- result{recipes: sampleRecipes("a")}
	s.Wait()

	snap := s.Snapshot()
	snap.Recipes[0].Ingredients[0] = "mutated"
	assert.Equal(t, "a", s.Snapshot().Recipes[0].Ingredients[0])
}

func TestSubscribeReceivesChanges(t *testing.T) {
	gen := newBlockingGenerator()
	s := New(gen)

	updates, unsubscribe := s.Subscribe()

	require.NoError(t, s.Trigger("pasta"))
	select {
	case snap := <-updates:
		assert.True(t, snap.Loading)
	case <-time.After(time.Second):
		t.Fatal("no update after trigger")
	}

	gen.next(t) <- result{recipes: sampleRecipes("carbonara")}
	s.Wait()
	select {
	case snap := <-updates:
		assert.False(t, snap.Loading)
		assert.Equal(t, "carbonara", snap.Recipes[0].RecipeName)
	case <-time.After(time.Second):
		t.Fatal("no update after completion")
	}

	unsubscribe()
	unsubscribe()
	_, open := <-updates
	assert.False(t, open)
}

func TestSubscribeKeepsOnlyLatest(t *testing.T) {
	s := New(newBlockingGenerator())
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	assert.True(t, s.SetIngredients("one"))
	assert.True(t, s.SetIngredients("two"))
	assert.False(t, s.SetIngredients("two"))

	snap := <-updates
	assert.Equal(t, "two", snap.Ingredients)
	select {
	case <-updates:
		t.Fatal("expected a single buffered update")
	default:
	}
}

func TestCloseCancelsInFlight(t *testing.T) {
	gen := newBlockingGenerator()
	s := New(gen)
	updates, _ := s.Subscribe()

	require.NoError(t, s.Trigger("leeks"))
	gen.next(t)

	s.Close()
	for range updates {
	}
	assert.False(t, s.Snapshot().Loading)

	closedUpdates, _ := s.Subscribe()
	_, open := <-closedUpdates
	assert.False(t, open)
}

func TestParentContextCancelsAttempt(t *testing.T) {
	gen := newBlockingGenerator()
	ctx, cancel := context.WithCancel(context.Background())
	s := New(gen, WithContext(ctx))

	require.NoError(t, s.Trigger("leeks"))
	gen.next(t)
	cancel()
	s.Wait()

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, generation.KindCancelled.Message(), snap.Error)
}

func TestClosedShellRejectsWork(t *testing.T) {
	gen := newBlockingGenerator()
	s := New(gen, WithIngredients("rice"))
	s.Close()

	assert.True(t, s.Closed())
	assert.ErrorIs(t, s.Trigger("rice, beans"), ErrClosed)
	assert.False(t, s.SetIngredients("beans"))
	assert.False(t, s.Cancel())

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "rice", snap.Ingredients)
	assert.Zero(t, snap.Attempt)
	assert.Equal(t, 0, gen.callCount())
}
