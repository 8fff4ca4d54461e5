package postgres

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestCollectionRepo_ListByUser(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCollectionRepo(db)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM collections c`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "pack_code", "name", "quantity"}).
			AddRow(userID, "core", "Core Set", 2).
			AddRow(userID, "drs", "Drax", 1))
	entries, err := r.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Core Set", entries[0].PackName)
	require.Equal(t, 2, entries[0].Quantity)
}

func TestCollectionRepo_Upsert(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCollectionRepo(db)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`INSERT INTO collections`).
		WithArgs(userID, "core", 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Upsert(ctx, userID, "core", 3))
}

func TestCollectionRepo_DeleteEntry(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCollectionRepo(db)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM collections WHERE user_id=\$1 AND pack_code=\$2`).
		WithArgs(userID, "core").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.DeleteEntry(ctx, userID, "core"))

	// Deleting an absent entry is a no-op, not an error.
	mock.ExpectExec(`DELETE FROM collections WHERE user_id=\$1 AND pack_code=\$2`).
		WithArgs(userID, "gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.NoError(t, r.DeleteEntry(ctx, userID, "gone"))
}
