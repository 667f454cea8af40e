package services

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/codetrail-lms/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func newArchiveTestService() (*ProblemService, *mockProblemRepository) {
	repo := &mockProblemRepository{
		getFunc: func(ctx context.Context, id int) (types.Problem, error) {
			return types.Problem{ID: id, Title: "Two Sum", Difficulty: types.DifficultyEasy}, nil
		},
	}
	return NewProblemService(repo, nil), repo
}

func TestImportTestCaseArchive(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"0.in":  "1 2\n",
		"0.out": "3\n",
		"1.in":  "4 5\n",
		"1.out": "9\n",
	})

	svc, repo := newArchiveTestService()
	var replaced []types.TestCase
	repo.replaceTestCasesFunc = func(ctx context.Context, problemID int, cases []types.TestCase) error {
		replaced = cases
		return nil
	}

	archive, err := svc.ImportTestCaseArchive(context.Background(), 42, "cases.tar.gz", data)

	require.NoError(t, err)
	assert.Equal(t, 2, archive.Cases)
	assert.NotEmpty(t, archive.SHA256)
	assert.Empty(t, archive.ObjectKey)

	require.Len(t, replaced, 2)
	assert.Equal(t, "1 2\n", replaced[0].Input)
	assert.Equal(t, "3\n", replaced[0].ExpectedOutput)
	assert.False(t, replaced[0].IsHidden)
	assert.True(t, replaced[1].IsHidden)
	assert.Equal(t, 42, replaced[0].ProblemID)
}

func TestImportTestCaseArchiveRejectsOrphanFile(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"0.in":  "1\n",
		"0.out": "1\n",
		"1.in":  "2\n",
	})

	svc, _ := newArchiveTestService()
	_, err := svc.ImportTestCaseArchive(context.Background(), 42, "cases.tar.gz", data)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestImportTestCaseArchiveRejectsGapInNumbering(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"0.in":  "1\n",
		"0.out": "1\n",
		"2.in":  "2\n",
		"2.out": "2\n",
	})

	svc, _ := newArchiveTestService()
	_, err := svc.ImportTestCaseArchive(context.Background(), 42, "cases.tar.gz", data)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestImportTestCaseArchiveRejectsDirectories(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"nested/0.in":  "1\n",
		"nested/0.out": "1\n",
	})

	svc, _ := newArchiveTestService()
	_, err := svc.ImportTestCaseArchive(context.Background(), 42, "cases.tar.gz", data)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestImportTestCaseArchiveRejectsBadFormat(t *testing.T) {
	svc, _ := newArchiveTestService()

	_, err := svc.ImportTestCaseArchive(context.Background(), 42, "cases.zip", []byte("PK"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ImportTestCaseArchive(context.Background(), 42, "cases.tar.gz", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ImportTestCaseArchive(context.Background(), 42, "cases.tar.gz", []byte("not gzip"))
	assert.ErrorIs(t, err, ErrValidation)
}
