package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTxCommits(t *testing.T) {
	db, err := NewMemory()
	require.NoError(t, err)
	defer db.Close()

	err = WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO terms (canvas_term_id, name) VALUES (1, 'Spring')`)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM terms`))
	assert.Equal(t, 1, count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, err := NewMemory()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	err = WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO terms (canvas_term_id, name) VALUES (1, 'Spring')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM terms`))
	assert.Zero(t, count)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db, err := NewMemory()
	require.NoError(t, err)
	defer db.Close()

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
			if _, err := tx.Exec(`INSERT INTO terms (canvas_term_id, name) VALUES (1, 'Spring')`); err != nil {
				return err
			}
			panic("boom")
		})
	})

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM terms`))
	assert.Zero(t, count)
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := NewMemory()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO assignments (course_id, name) VALUES (999, 'orphan')`)
	require.Error(t, err)
}

func TestCascadeAndSetNull(t *testing.T) {
	db, err := NewMemory()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO terms (id, canvas_term_id, name) VALUES (1, 30, 'Spring')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO courses (id, canvas_course_id, course_name, term_id) VALUES (1, 101, 'Algorithms', 1)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO assignments (course_id, name) VALUES (1, 'PS1')`)
	require.NoError(t, err)

	// deleting the term nulls the course reference
	_, err = db.Exec(`DELETE FROM terms WHERE id = 1`)
	require.NoError(t, err)

	var termID *int64
	require.NoError(t, db.Get(&termID, `SELECT term_id FROM courses WHERE id = 1`))
	assert.Nil(t, termID)

	// deleting the course cascades to children
	_, err = db.Exec(`DELETE FROM courses WHERE id = 1`)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM assignments`))
	assert.Zero(t, count)
}
