package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage/storagetest"
	"github.com/BlueStarAcademy/sudampvp/internal/testutil"
)

type RecordsSuite struct {
	storagetest.RecordsSuite
	records *Records
}

func TestRecordsSuite(t *testing.T) {
	suite.Run(t, new(RecordsSuite))
}

func (s *RecordsSuite) SetupTest() {
	path := filepath.Join(s.T().TempDir(), "data", "records.db")
	records, err := Open(path, testutil.NopLogger())
	s.Require().NoError(err)

	s.records = records
	s.Records = records
	s.Ctx = context.Background()
}

func (s *RecordsSuite) TearDownTest() {
	if s.records != nil {
		_ = s.records.Close()
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	ctx := context.Background()

	first, err := Open(path, testutil.NopLogger())
	require.NoError(t, err)
	require.NoError(t, first.SavePlayer(ctx, &model.Player{ID: "alice", DisplayName: "Alice", Rating: 1500}))
	require.NoError(t, first.Close())

	second, err := Open(path, testutil.NopLogger())
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&applied))
	require.Equal(t, 2, applied)

	p, err := second.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", p.DisplayName)
}
