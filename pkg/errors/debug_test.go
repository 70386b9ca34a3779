package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpNil(t *testing.T) {
	assert.Equal(t, ErrorDump{}, Dump(nil))
}

func TestDumpChainAndCode(t *testing.T) {
	err := fmt.Errorf("toggle: %w", Wrap(CodeDependency, stdErrors.New("disk full"), "persist cart"))

	d := Dump(err)
	assert.Equal(t, CodeDependency, d.Code)
	assert.True(t, d.Retryable)
	require.Len(t, d.Chain, 3)
	assert.Empty(t, d.PGCode)
	assert.NotContains(t, d.Fields(), "pg_code")
}

func TestDumpUntypedDefaultsToInternal(t *testing.T) {
	d := Dump(stdErrors.New("boom"))
	assert.Equal(t, CodeInternal, d.Code)
}

func TestDumpPostgresErrors(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "kv_entries_pkey", TableName: "kv_entries", Message: "duplicate key"}
	d := Dump(Wrap(CodeDependency, pgxErr, "write kv entry"))
	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "kv_entries", d.PGTable)
	assert.Equal(t, "kv_entries_pkey", d.Fields()["pg_constraint"])

	pqErr := &pq.Error{Code: "42P01", Table: "kv_entries", Message: "relation does not exist"}
	d = Dump(fmt.Errorf("read: %w", pqErr))
	assert.Equal(t, "42P01", d.PGCode)
	assert.Equal(t, "relation does not exist", d.PGMessage)
}
