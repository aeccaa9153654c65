package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomDunham/fogharvest/pkg/models"
)

func rec(day int, email, project, title string, hours float64) models.TimeRecord {
	start := time.Date(2024, 1, day, 9, 0, 0, 0, time.UTC)
	return models.TimeRecord{
		Start:       start,
		End:         start.Add(time.Duration(hours * float64(time.Hour))),
		Email:       email,
		ProjectName: project,
		Title:       title,
	}
}

func TestSortGroup(t *testing.T) {
	records := []models.TimeRecord{
		rec(1, "bob@example.com", "Widgets", "b", 1),
		rec(1, "ada@example.com", "Widgets", "a1", 0.5),
		rec(1, "ada@example.com", "Widgets", "a2", 0.25),
	}

	groups := SortGroup(records, func(r models.TimeRecord) string { return r.Email })
	require.Len(t, groups, 2)
	assert.Equal(t, "ada@example.com", groups[0].Key)
	assert.Len(t, groups[0].Records, 2)
	assert.Equal(t, "a1", groups[0].Records[0].Title, "sort is stable within a group")
	assert.Equal(t, "bob@example.com", groups[1].Key)
}

func TestSortGroupEmpty(t *testing.T) {
	groups := SortGroup(nil, func(r models.TimeRecord) string { return r.Email })
	assert.Empty(t, groups)
}

func TestRender(t *testing.T) {
	records := []models.TimeRecord{
		rec(2, "ada@example.com", "Widgets", "Fix login", 0.5),
		rec(1, "ada@example.com", "Widgets", "Fix login", 1),
		rec(1, "ada@example.com", "Widgets", "Add export", 0.25),
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, records))
	out := buf.String()

	// Days in order, each ticket summed, project total last.
	assert.Contains(t, out, "01 Jan 2024")
	assert.Contains(t, out, "02 Jan 2024")
	assert.Less(t, strings.Index(out, "01 Jan 2024"), strings.Index(out, "02 Jan 2024"))
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "Widgets")
	assert.Contains(t, out, "0.25")
	assert.Contains(t, out, "1.00")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "1.25")
}
