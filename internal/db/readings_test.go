package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReading(t *testing.T) {
	prev := &Reading{Electricity: 80, Gas: 20, Water: 8}

	tests := []struct {
		desc     string
		kind     Kind
		raw      string
		previous *Reading
		want     int64
		wantErr  bool
	}{
		{"first ever value", KindElectricity, "120", nil, 120, false},
		{"equal to previous", KindGas, "20", prev, 20, false},
		{"greater than previous", KindWater, " 10 ", prev, 10, false},
		{"lower than previous", KindElectricity, "79", prev, 0, true},
		{"not a number", KindGas, "двадцать", prev, 0, true},
		{"fraction", KindWater, "9.5", prev, 0, true},
		{"negative", KindWater, "-1", nil, 0, true},
		{"empty", KindElectricity, "", nil, 0, true},
	}

	for _, tt := range tests {
		got, err := ValidateReading(tt.kind, tt.raw, tt.previous)
		if tt.wantErr {
			assert.Error(t, err, tt.desc)
			assert.True(t, IsValidationError(err), tt.desc)
			continue
		}
		assert.NoError(t, err, tt.desc)
		assert.Equal(t, tt.want, got, tt.desc)
	}
}

func TestComputeDelta(t *testing.T) {
	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	latest := &Reading{Electricity: 120, Gas: 30, Water: 10, CreatedAt: created}
	previous := &Reading{Electricity: 80, Gas: 20, Water: 8}

	d := ComputeDelta(latest, previous)
	assert.Equal(t, int64(40), d.Electricity)
	assert.Equal(t, int64(10), d.Gas)
	assert.Equal(t, int64(2), d.Water)
	require.NotNil(t, d.LatestCreatedAt)
	assert.True(t, d.LatestCreatedAt.Equal(created))

	assert.Equal(t, Delta{}, ComputeDelta(latest, nil))
	assert.Equal(t, Delta{}, ComputeDelta(nil, nil))
}

func TestRecordReading_UpdatesCurrentPeriodInPlace(t *testing.T) {
	conn := newTestDB(t)
	createUser(t, conn, 1)
	store := NewReadingStore(conn)
	ctx := context.Background()
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	_, err := store.RecordReading(ctx, 1, KindElectricity, "100", now)
	require.NoError(t, err)
	_, err = store.RecordReading(ctx, 1, KindWater, "7", now.Add(time.Minute))
	require.NoError(t, err)
	r, err := store.RecordReading(ctx, 1, KindGas, "15", now.Add(2*time.Minute))
	require.NoError(t, err)

	var count int64
	conn.Model(&Reading{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(100), r.Electricity)
	assert.Equal(t, int64(7), r.Water)
	assert.Equal(t, int64(15), r.Gas)

	latest, err := store.Latest(ctx, 1)
	require.NoError(t, err)
	assert.True(t, latest.UpdatedAt.Equal(now.Add(2*time.Minute)))
}

func TestRecordReading_NewPeriodCreatesRecordAndCarriesValues(t *testing.T) {
	conn := newTestDB(t)
	createUser(t, conn, 1)
	store := NewReadingStore(conn)
	ctx := context.Background()
	feb := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)

	for kind, v := range map[Kind]string{KindElectricity: "80", KindGas: "20", KindWater: "8"} {
		_, err := store.RecordReading(ctx, 1, kind, v, feb)
		require.NoError(t, err)
	}
	r, err := store.RecordReading(ctx, 1, KindElectricity, "120", mar)
	require.NoError(t, err)
	assert.Equal(t, int64(120), r.Electricity)
	assert.Equal(t, int64(20), r.Gas)
	assert.Equal(t, int64(8), r.Water)

	latest, previous, err := store.LatestTwo(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.NotNil(t, previous)
	assert.Equal(t, int64(120), latest.Electricity)
	assert.Equal(t, int64(80), previous.Electricity)

	_, err = store.RecordReading(ctx, 1, KindGas, "30", mar.Add(time.Hour))
	require.NoError(t, err)
	_, err = store.RecordReading(ctx, 1, KindWater, "10", mar.Add(2*time.Hour))
	require.NoError(t, err)

	d, err := store.Delta(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), d.Electricity)
	assert.Equal(t, int64(10), d.Gas)
	assert.Equal(t, int64(2), d.Water)
	require.NotNil(t, d.LatestCreatedAt)
	assert.True(t, d.LatestCreatedAt.Equal(mar))
}

func TestRecordReading_LowerValueLeavesStoreUntouched(t *testing.T) {
	conn := newTestDB(t)
	createUser(t, conn, 1)
	store := NewReadingStore(conn)
	ctx := context.Background()
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	_, err := store.RecordReading(ctx, 1, KindElectricity, "100", now)
	require.NoError(t, err)

	_, err = store.RecordReading(ctx, 1, KindElectricity, "99", now.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = store.RecordReading(ctx, 1, KindElectricity, "abc", now.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	latest, err := store.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), latest.Electricity)
	assert.True(t, latest.UpdatedAt.Equal(now))
}

func TestLatestTwo_ShortHistory(t *testing.T) {
	conn := newTestDB(t)
	createUser(t, conn, 1)
	store := NewReadingStore(conn)
	ctx := context.Background()

	latest, previous, err := store.LatestTwo(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, latest)
	assert.Nil(t, previous)

	_, err = store.RecordReading(ctx, 1, KindWater, "5", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	latest, previous, err = store.LatestTwo(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, latest)
	assert.Nil(t, previous)

	d, err := store.Delta(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Delta{}, d)
}

func TestAttachGasPhoto(t *testing.T) {
	conn := newTestDB(t)
	createUser(t, conn, 1)
	store := NewReadingStore(conn)
	ctx := context.Background()
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	require.Error(t, store.AttachGasPhoto(ctx, 1, "file-1", now))

	_, err := store.RecordReading(ctx, 1, KindGas, "10", now)
	require.NoError(t, err)
	require.NoError(t, store.AttachGasPhoto(ctx, 1, "file-1", now.Add(time.Minute)))

	latest, err := store.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "file-1", latest.GasPhotoFileID)
}
