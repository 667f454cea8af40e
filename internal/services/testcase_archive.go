package services

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/codetrail-lms/apiserver/types"
)

var (
	testcaseFilenamePattern = regexp.MustCompile(`^\d+\.(in|out)$`)
	archiveDigestPattern    = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// maxTestcaseFileSize bounds a single extracted .in/.out file.
const maxTestcaseFileSize = 4 << 20

// ImportTestCaseArchive parses a tar.gz of numbered N.in/N.out files,
// replaces the problem's test cases with the parsed set and, when object
// storage is configured, retains the raw archive under a content-addressed
// key. Case 0 is kept visible as the example; the rest are hidden.
func (s *ProblemService) ImportTestCaseArchive(ctx context.Context, problemID int, filename string, data []byte) (types.TestCaseArchive, error) {
	if len(data) == 0 {
		return types.TestCaseArchive{}, fmt.Errorf("%w: empty archive", ErrValidation)
	}

	if _, err := s.repo.Get(ctx, problemID); err != nil {
		return types.TestCaseArchive{}, err
	}

	lower := strings.ToLower(strings.TrimSpace(filename))
	if !strings.HasSuffix(lower, ".tar.gz") && !strings.HasSuffix(lower, ".tgz") {
		return types.TestCaseArchive{}, fmt.Errorf("%w: unsupported archive format", ErrValidation)
	}

	cases, err := parseTestCaseArchive(data)
	if err != nil {
		return types.TestCaseArchive{}, err
	}
	for i := range cases {
		cases[i].ProblemID = problemID
	}

	hash := sha256.Sum256(data)
	archive := types.TestCaseArchive{
		SHA256: hex.EncodeToString(hash[:]),
		Cases:  len(cases),
	}

	if s.archive != nil {
		archive.ObjectKey = archiveKey(problemID, archive.SHA256)
		err := s.archive.Put(ctx, archive.ObjectKey, bytes.NewReader(data), int64(len(data)), "application/gzip")
		if err != nil {
			return types.TestCaseArchive{}, fmt.Errorf("failed to store archive: %w", err)
		}
	} else {
		log.Printf("problem %d: archive storage not configured, keeping parsed cases only", problemID)
	}

	if err := s.repo.ReplaceTestCases(ctx, problemID, cases); err != nil {
		return types.TestCaseArchive{}, err
	}
	return archive, nil
}

// OpenTestCaseArchive streams a previously imported archive back by its
// content digest. Requires archive storage to be configured.
func (s *ProblemService) OpenTestCaseArchive(ctx context.Context, problemID int, digest string) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("%w: archive storage is not configured", ErrValidation)
	}

	digest = strings.ToLower(strings.TrimSpace(digest))
	if !archiveDigestPattern.MatchString(digest) {
		return nil, fmt.Errorf("%w: invalid archive digest", ErrValidation)
	}

	if _, err := s.repo.Get(ctx, problemID); err != nil {
		return nil, err
	}
	return s.archive.Get(ctx, archiveKey(problemID, digest))
}

func archiveKey(problemID int, digest string) string {
	return fmt.Sprintf("problems/%d/%s.tar.gz", problemID, digest)
}

func parseTestCaseArchive(data []byte) ([]types.TestCase, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tar.gz archive", ErrValidation)
	}
	defer gr.Close()

	type pair struct {
		input    string
		expected string
		hasIn    bool
		hasOut   bool
	}
	pairs := make(map[int]*pair)

	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid tar.gz archive", ErrValidation)
		}
		if header.FileInfo().IsDir() {
			continue
		}
		if !header.FileInfo().Mode().IsRegular() {
			return nil, fmt.Errorf("%w: archive contains unsupported entries", ErrValidation)
		}

		base, err := validateArchiveFilename(header.Name)
		if err != nil {
			return nil, err
		}

		order, ext, err := parseArchiveFilename(base)
		if err != nil {
			return nil, err
		}

		content, err := io.ReadAll(io.LimitReader(tr, maxTestcaseFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s", ErrValidation, base)
		}
		if len(content) > maxTestcaseFileSize {
			return nil, fmt.Errorf("%w: %s exceeds size limit", ErrValidation, base)
		}

		p := pairs[order]
		if p == nil {
			p = &pair{}
			pairs[order] = p
		}
		switch ext {
		case "in":
			if p.hasIn {
				return nil, fmt.Errorf("%w: duplicate testcase input %d.in", ErrValidation, order)
			}
			p.input = string(content)
			p.hasIn = true
		case "out":
			if p.hasOut {
				return nil, fmt.Errorf("%w: duplicate testcase output %d.out", ErrValidation, order)
			}
			p.expected = string(content)
			p.hasOut = true
		}
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: archive has no test cases", ErrValidation)
	}

	orders := make([]int, 0, len(pairs))
	for order, p := range pairs {
		if !p.hasIn || !p.hasOut {
			return nil, fmt.Errorf("%w: testcase %d must have both .in and .out files", ErrValidation, order)
		}
		orders = append(orders, order)
	}

	sort.Ints(orders)
	for expected, order := range orders {
		if order != expected {
			return nil, fmt.Errorf("%w: testcase numbering must be consecutive from 0", ErrValidation)
		}
	}

	cases := make([]types.TestCase, 0, len(orders))
	for _, order := range orders {
		p := pairs[order]
		cases = append(cases, types.TestCase{
			Input:          p.input,
			ExpectedOutput: p.expected,
			IsHidden:       order != 0,
		})
	}
	return cases, nil
}

func parseArchiveFilename(base string) (int, string, error) {
	ext := strings.TrimPrefix(path.Ext(base), ".")
	name := strings.TrimSuffix(base, "."+ext)
	order, err := strconv.Atoi(name)
	if err != nil || order < 0 {
		return 0, "", fmt.Errorf("%w: invalid testcase filename %s", ErrValidation, base)
	}
	return order, ext, nil
}

func validateArchiveFilename(name string) (string, error) {
	clean := path.Clean(name)
	if clean == "." {
		return "", fmt.Errorf("%w: invalid testcase filename", ErrValidation)
	}
	base := path.Base(clean)
	if base != clean {
		return "", fmt.Errorf("%w: archive must not contain directories", ErrValidation)
	}
	if strings.Contains(base, `\`) {
		return "", fmt.Errorf("%w: invalid testcase filename", ErrValidation)
	}
	if !testcaseFilenamePattern.MatchString(base) {
		return "", fmt.Errorf("%w: invalid testcase filename %s", ErrValidation, base)
	}
	return base, nil
}
