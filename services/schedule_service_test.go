package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/storage"
	"github.com/stretchr/testify/require"
)

type fakeObjectStorage struct {
	objects map[string][]byte
	puts    map[string][]byte
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: make(map[string][]byte), puts: make(map[string][]byte)}
}

func (f *fakeObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStorage) Put(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.PutResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.puts[key] = data
	return &storage.PutResult{Key: key}, nil
}

func (f *fakeObjectStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStorage) GetPublicURL(key string) string { return "" }

const scheduleJSON = `{
	"matches": [
		{"home_team": "Brazil", "away_team": "France", "stage": "group", "kickoff_at": "2026-06-11T18:00:00Z"},
		{"home_team": "Spain", "away_team": "Italy", "stage": "knockout", "kickoff_at": "2026-07-01T20:00:00Z"},
		{"home_team": "Ghana", "away_team": "Ghana", "stage": "group", "kickoff_at": "2026-06-12T15:00:00Z"},
		{"home_team": "Japan", "away_team": "Korea", "stage": "quarterfinal", "kickoff_at": "2026-06-13T15:00:00Z"}
	]
}`

func TestImportFromStorage_CreatesAndSkips(t *testing.T) {
	tournamentRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Status: models.TournamentStatusSoon})
	matchRepo := newFakeMatchRepo()
	objectStorage := newFakeObjectStorage()
	objectStorage.objects["schedules/wc2026.json"] = []byte(scheduleJSON)

	svc := NewScheduleService(tournamentRepo, matchRepo, objectStorage, newTestLogger())

	summary, err := svc.ImportFromStorage(context.Background(), 1, "schedules/wc2026.json")
	require.NoError(t, err)
	require.Equal(t, 2, summary.Created)
	// Пара "сама с собой" и неизвестная стадия отброшены построчно.
	require.Equal(t, 2, summary.Skipped)
	require.Len(t, summary.Errors, 2)

	exists, err := matchRepo.Exists(context.Background(), 1, "Brazil", "France")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestImportFromStorage_Idempotent(t *testing.T) {
	tournamentRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Status: models.TournamentStatusSoon})
	matchRepo := newFakeMatchRepo()
	objectStorage := newFakeObjectStorage()
	objectStorage.objects["schedules/wc2026.json"] = []byte(scheduleJSON)

	svc := NewScheduleService(tournamentRepo, matchRepo, objectStorage, newTestLogger())

	first, err := svc.ImportFromStorage(context.Background(), 1, "schedules/wc2026.json")
	require.NoError(t, err)
	require.Equal(t, 2, first.Created)

	second, err := svc.ImportFromStorage(context.Background(), 1, "schedules/wc2026.json")
	require.NoError(t, err)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 4, second.Skipped)
}

func TestImportFromStorage_StorageNotConfigured(t *testing.T) {
	tournamentRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Status: models.TournamentStatusSoon})
	svc := NewScheduleService(tournamentRepo, newFakeMatchRepo(), nil, newTestLogger())

	_, err := svc.ImportFromStorage(context.Background(), 1, "schedules/wc2026.json")
	require.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestImportFromStorage_MissingObject(t *testing.T) {
	tournamentRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Status: models.TournamentStatusSoon})
	svc := NewScheduleService(tournamentRepo, newFakeMatchRepo(), newFakeObjectStorage(), newTestLogger())

	_, err := svc.ImportFromStorage(context.Background(), 1, "schedules/missing.json")
	require.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestImportFromStorage_MalformedJSON(t *testing.T) {
	tournamentRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Status: models.TournamentStatusSoon})
	objectStorage := newFakeObjectStorage()
	objectStorage.objects["schedules/bad.json"] = []byte("{not json")

	svc := NewScheduleService(tournamentRepo, newFakeMatchRepo(), objectStorage, newTestLogger())

	_, err := svc.ImportFromStorage(context.Background(), 1, "schedules/bad.json")
	require.ErrorIs(t, err, ErrScheduleInvalid)
}

func TestImportFromStorage_TournamentNotFound(t *testing.T) {
	svc := NewScheduleService(newFakeTournamentRepo(), newFakeMatchRepo(), newFakeObjectStorage(), newTestLogger())

	_, err := svc.ImportFromStorage(context.Background(), 99, "schedules/wc2026.json")
	require.ErrorIs(t, err, ErrTournamentNotFound)
}
