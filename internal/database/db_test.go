package database

import (
	"testing"
	"time"

	"fuzzymenu/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(id, dish string, at time.Time) *models.Recommendation {
	return &models.Recommendation{
		ID:        id,
		Preset:    "symmetric",
		Sweetness: 10,
		Budget:    10,
		Hunger:    10,
		DishName:  dish,
		Status:    string(models.RecommendationStatusComputed),
		CreatedAt: at,
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.ErrorContains(t, err, "unsupported")
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openMemory(t)
	now := time.Now().UTC().Truncate(time.Second)
	r := rec("a1", "Selva negra", now)
	r.DishIndex = 6
	r.DishItem = 6
	r.Narration = "A rich cake for a big appetite."
	require.NoError(t, s.Save(r))

	got, err := s.Get("a1")
	require.NoError(t, err)
	assert.Equal(t, "Selva negra", got.DishName)
	assert.Equal(t, 6, got.DishItem)
	assert.Equal(t, 10.0, got.Sweetness)
	assert.Equal(t, r.Narration, got.Narration)
	assert.Equal(t, models.Ratings{Sweetness: 10, Budget: 10, Hunger: 10}, got.Ratings())
}

func TestStore_GetMissing(t *testing.T) {
	s := openMemory(t)
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveRequiresID(t *testing.T) {
	s := openMemory(t)
	assert.Error(t, s.Save(rec("", "Flan", time.Now())))
}

func TestStore_SaveDuplicate(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Save(rec("dup", "Flan", time.Now())))
	assert.Error(t, s.Save(rec("dup", "Flan", time.Now())))
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openMemory(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(rec("old", "Flan", base)))
	require.NoError(t, s.Save(rec("mid", "Pizza", base.Add(time.Minute))))
	require.NoError(t, s.Save(rec("new", "Jesuita", base.Add(2*time.Minute))))

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "old", all[2].ID)

	two, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "mid", two[1].ID)
}

func TestStore_CountByDish(t *testing.T) {
	s := openMemory(t)
	now := time.Now()
	require.NoError(t, s.Save(rec("1", "Flan", now)))
	require.NoError(t, s.Save(rec("2", "Flan", now)))
	require.NoError(t, s.Save(rec("3", "Pizza", now)))

	counts, err := s.CountByDish()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Flan": 2, "Pizza": 1}, counts)
}

func TestStore_CloseNil(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}
