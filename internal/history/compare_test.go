package history_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/prodcheck/internal/history"
	"github.com/nao1215/prodcheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productDefect(id, title, msg string) model.Defect {
	return model.NewProductDefect(model.RawProductID([]byte(id)), title, model.ClassifyMessage(msg), msg)
}

func newRun(startedAt time.Time, total int, defects ...model.Defect) *model.Run {
	run := model.NewRun(model.RunKindLive, "http://example.com/products")
	run.StartedAt = startedAt
	run.StatusCode = 200
	run.Records = make([]model.Record, total)
	run.AddDefects(defects...)
	run.GenerateReport()
	return run
}

func TestCompare(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	t.Run("new and resolved defects", func(t *testing.T) {
		t.Parallel()

		previous := newRun(base, 3,
			productDefect("1", "Lamp", "Negative price: -1.0"),
			productDefect("2", "Desk", "Missing 'rating' attribute"),
		)
		current := newRun(base.Add(time.Hour), 3,
			productDefect("2", "Desk", "Missing 'rating' attribute"),
			productDefect("3", "Chair", "Empty 'title' attribute"),
			productDefect("3", "Chair", "Rating exceeds 5: 7.0"),
		)

		c := history.Compare(previous, current)

		assert.Equal(t, []string{"3"}, c.NewProducts)
		assert.Equal(t, []string{"1"}, c.ResolvedProducts)
		assert.Equal(t, []history.DefectChange{
			{ProductID: "3", Title: "Chair", Defect: "Empty 'title' attribute"},
			{ProductID: "3", Title: "Chair", Defect: "Rating exceeds 5: 7.0"},
		}, c.NewDefects)
		assert.Equal(t, []history.DefectChange{
			{ProductID: "1", Title: "Lamp", Defect: "Negative price: -1.0"},
		}, c.ResolvedDefects)
		assert.Equal(t, 1, c.UnchangedCount)
		assert.Equal(t, history.SummaryDelta{
			EmptyValues:   1,
			InvalidValues: 0,
			TotalDefects:  1,
		}, c.Delta)
		assert.Equal(t, history.DirectionWorsened, c.Direction)
		assert.Equal(t, previous.ID, c.Previous.ID)
		assert.Equal(t, current.ID, c.Current.ID)
	})

	t.Run("improved when defects drop", func(t *testing.T) {
		t.Parallel()

		previous := newRun(base, 0, model.NewResponseDefect("Expected status code 200, got 0"))
		current := newRun(base.Add(time.Hour), 2)

		c := history.Compare(previous, current)

		assert.Equal(t, history.DirectionImproved, c.Direction)
		assert.Equal(t, -1, c.Delta.APIResponseErrors)
		assert.Empty(t, c.NewDefects)
		assert.Empty(t, c.ResolvedDefects)
	})

	t.Run("identical runs are unchanged", func(t *testing.T) {
		t.Parallel()

		d := productDefect("5", "Mug", "Missing 'price' attribute")
		c := history.Compare(newRun(base, 1, d), newRun(base.Add(time.Minute), 1, d))

		assert.Equal(t, history.DirectionUnchanged, c.Direction)
		assert.Equal(t, 1, c.UnchangedCount)
		assert.Empty(t, c.NewProducts)
		assert.Empty(t, c.ResolvedProducts)
	})

	t.Run("runs without report are aggregated", func(t *testing.T) {
		t.Parallel()

		previous := newRun(base, 1)
		current := model.NewRun(model.RunKindLive, "x")
		current.AddDefects(productDefect("9", "Pen", "Invalid price format: abc"))

		c := history.Compare(previous, current)
		assert.Equal(t, []string{"9"}, c.NewProducts)
		assert.Equal(t, 1, c.Delta.InvalidValues)
	})
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	c := history.Compare(
		newRun(base, 1, productDefect("1", "Lamp", "Negative price: -1.0")),
		newRun(base.Add(time.Hour), 1, productDefect("2", "Desk", "Missing 'rating' attribute")),
	)

	var buf bytes.Buffer
	require.NoError(t, history.WriteText(&buf, c))

	output := buf.String()
	for _, want := range []string{
		"Run Comparison: http://example.com/products (live)",
		"Status: UNCHANGED",
		"Previous run: 2026-02-01 09:00:00",
		"New Defects (1):\n  [+] Product 2: Missing 'rating' attribute\n",
		"Resolved Defects (1):\n  [-] Product 1: Negative price: -1.0\n",
	} {
		assert.True(t, strings.Contains(output, want), "expected output to contain %q", want)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	c := history.Compare(newRun(base, 1), newRun(base.Add(time.Hour), 1))

	var buf bytes.Buffer
	require.NoError(t, history.WriteJSON(&buf, c))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "unchanged", got["direction"])
	assert.Contains(t, got, "previous_run")
	assert.Contains(t, got, "current_run")
	assert.NotContains(t, got, "new_defects")
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+3", history.FormatDelta(3))
	assert.Equal(t, "-2", history.FormatDelta(-2))
	assert.Equal(t, "0", history.FormatDelta(0))
}
