package records

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterresume/pkg/models"
)

func sampleRecords() []models.RecordEntry {
	return []models.RecordEntry{
		{
			Type:        "job",
			Company:     "Acme",
			Role:        "Engineer",
			StartDate:   "2019-02",
			EndDate:     "2021-05",
			Description: "Built payment services.",
		},
		{
			Type:        "job",
			Company:     "Globex",
			Role:        "Senior Engineer",
			StartDate:   "2021-06",
			Description: "Leads the platform team.",
		},
	}
}

func TestPutAndGet(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "records.json"))
	require.NoError(t, err)

	info, err := s.Put("user-abcdef12", sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, info.Rows)
	assert.Len(t, info.Hash, 64)
	assert.False(t, info.UpdatedAt.IsZero())

	recs, got, ok := s.Get("user-abcdef12")
	require.True(t, ok)
	assert.Equal(t, info.Hash, got.Hash)
	require.Len(t, recs, 2)
	assert.Equal(t, "Acme", recs[0].Company)

	_, _, ok = s.Get("user-other000")
	assert.False(t, ok)
}

func TestHashRecordsStable(t *testing.T) {
	a, err := HashRecords(sampleRecords())
	require.NoError(t, err)
	b, err := HashRecords(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := sampleRecords()
	changed[0].Description = "Different."
	c, err := HashRecords(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestPutReplacesRecords(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)

	first, err := s.Put("user-abcdef12", sampleRecords())
	require.NoError(t, err)

	second, err := s.Put("user-abcdef12", sampleRecords()[:1])
	require.NoError(t, err)

	assert.NotEqual(t, first.Hash, second.Hash)

	recs, info, ok := s.Get("user-abcdef12")
	require.True(t, ok)
	assert.Equal(t, 1, info.Rows)
	assert.Len(t, recs, 1)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")

	s, err := NewStore(path)
	require.NoError(t, err)
	info, err := s.Put("user-abcdef12", sampleRecords())
	require.NoError(t, err)

	reopened, err := NewStore(path)
	require.NoError(t, err)

	recs, got, ok := reopened.Get("user-abcdef12")
	require.True(t, ok)
	assert.Equal(t, info.Hash, got.Hash)
	assert.Len(t, recs, 2)
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	s, err := NewStore(path)
	require.NoError(t, err)

	_, _, ok := s.Get("user-abcdef12")
	assert.False(t, ok)
}

func TestLatestPrefersEndDateThenStartDate(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)

	_, err = s.Put("user-abcdef12", sampleRecords())
	require.NoError(t, err)

	// Globex has no end date, so its start date 2021-06 ranks above Acme's
	// end date 2021-05.
	latest, ok := s.Latest("user-abcdef12")
	require.True(t, ok)
	assert.Equal(t, "Globex", latest.Company)

	_, ok = s.Latest("user-missing0")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "records.json"))
	require.NoError(t, err)

	_, err = s.Put("user-abcdef12", sampleRecords())
	require.NoError(t, err)

	require.NoError(t, s.Delete("user-abcdef12"))
	_, _, ok := s.Get("user-abcdef12")
	assert.False(t, ok)
}

func TestGetReturnsCopy(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)

	_, err = s.Put("user-abcdef12", sampleRecords())
	require.NoError(t, err)

	recs, _, ok := s.Get("user-abcdef12")
	require.True(t, ok)
	recs[0].Company = "Mutated"

	fresh, _, _ := s.Get("user-abcdef12")
	assert.Equal(t, "Acme", fresh[0].Company)
}
