package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"focusflow/internal/types"
)

// Note: mockDBTX and mockRow are defined in profile_repo_test.go.

// sessionMockRows implements pgx.Rows for focus session list queries
// (id, user_id, kind, duration_minutes, created_at).
type sessionMockRows struct {
	data   []types.FocusSessionRecord
	idx    int
	closed bool
	errVal error
}

func newSessionMockRows(data []types.FocusSessionRecord) *sessionMockRows {
	return &sessionMockRows{data: data, idx: -1}
}

func (r *sessionMockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *sessionMockRows) Scan(dest ...any) error {
	rec := r.data[r.idx]
	*dest[0].(*string) = rec.ID
	*dest[1].(*string) = rec.UserID
	*dest[2].(*types.SessionKind) = rec.Kind
	*dest[3].(*int) = rec.DurationMinutes
	*dest[4].(*time.Time) = rec.CreatedAt
	return nil
}

func (r *sessionMockRows) Close()                                        { r.closed = true }
func (r *sessionMockRows) Err() error                                    { return r.errVal }
func (r *sessionMockRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (r *sessionMockRows) FieldDescriptions() []pgconn.FieldDescription  { return nil }
func (r *sessionMockRows) RawValues() [][]byte                           { return nil }
func (r *sessionMockRows) Values() ([]any, error)                        { return nil, nil }
func (r *sessionMockRows) Conn() *pgx.Conn                               { return nil }

// --- SessionRepository Tests ---

func TestSessionRepository_Insert_Success(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewSessionRepository(dbx)

	dbx.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	rec := &types.FocusSessionRecord{
		ID:              "s1",
		UserID:          "u1",
		Kind:            types.SessionFocus,
		DurationMinutes: 25,
	}
	err := repo.Insert(context.Background(), rec)
	require.NoError(t, err)
	dbx.AssertExpectations(t)
}

func TestSessionRepository_Insert_FillsDefaults(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewSessionRepository(dbx)

	dbx.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	rec := &types.FocusSessionRecord{UserID: "u1", DurationMinutes: 25}
	err := repo.Insert(context.Background(), rec)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, types.SessionFocus, rec.Kind)
}

func TestSessionRepository_Insert_DBError(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewSessionRepository(dbx)

	dbx.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.Insert(context.Background(), &types.FocusSessionRecord{UserID: "u1"})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestSessionRepository_CountInRange_Success(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewSessionRepository(dbx)

	dbx.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*int) = 3
			return nil
		}})

	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	count, err := repo.CountInRange(context.Background(), "u1", start, end)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSessionRepository_CountInRange_DBError(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewSessionRepository(dbx)

	dbx.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: errors.New("timeout")})

	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	_, err := repo.CountInRange(context.Background(), "u1", start, start.Add(24*time.Hour))
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestSessionRepository_ListRecent_Success(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewSessionRepository(dbx)

	now := time.Now().UTC()
	rows := newSessionMockRows([]types.FocusSessionRecord{
		{ID: "s2", UserID: "u1", Kind: types.SessionFocus, DurationMinutes: 50, CreatedAt: now},
		{ID: "s1", UserID: "u1", Kind: types.SessionBreak, DurationMinutes: 5, CreatedAt: now.Add(-time.Hour)},
	})
	dbx.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	sessions, err := repo.ListRecent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)
	assert.Equal(t, types.SessionBreak, sessions[1].Kind)
	assert.True(t, rows.closed)
}

func TestSessionRepository_ListRecent_QueryError(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewSessionRepository(dbx)

	dbx.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := repo.ListRecent(context.Background(), "u1", 10)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}
