package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(id string, at time.Time) domain.ReportReady {
	return domain.ReportReady{
		ReportID:        id,
		RequestID:       "req-" + id,
		Kind:            domain.DefaultReportKind,
		FileName:        domain.ReportFileName(domain.DefaultReportKind, at) + ".pdf",
		Path:            "/tmp/reports/" + id + ".pdf",
		TotalAccidents:  140,
		ZoneCount:       5,
		HighRiskZones:   1,
		LowRiskZones:    4,
		HighestRiskZone: "Lima Centro",
		Concentration:   85.7,
		GeneratedAt:     at,
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	want := sampleReport("a", time.Date(2024, 6, 1, 14, 30, 5, 0, time.UTC))

	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_GetMissing(t *testing.T) {
	s := openStore(t)

	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DuplicateID(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	r := sampleReport("dup", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.Save(ctx, r))
	require.Error(t, s.Save(ctx, r))
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, s.Save(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].ReportID)
	assert.Equal(t, "first", all[2].ReportID)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "second", limited[1].ReportID)
}

func TestStore_CheckReadiness(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.CheckReadiness(context.Background()))
}

func TestCreateSchema_Idempotent(t *testing.T) {
	s := openStore(t)
	require.NoError(t, CreateSchema(s.db))
}
