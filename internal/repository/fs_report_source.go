package repository

import (
	"context"
	"fmt"
	"os"

	domrepo "SumReport/internal/domain/repository"
	"SumReport/internal/services/keyfigures"
)

// DirReportSource reads summary reports from a local directory.
type DirReportSource struct {
	dir  string
	exts []string
}

func NewDirReportSource(dir string, exts []string) *DirReportSource {
	return &DirReportSource{dir: dir, exts: exts}
}

func (s *DirReportSource) List(ctx context.Context) ([]domrepo.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := keyfigures.ScanDir(s.dir, s.exts)
	if err != nil {
		return nil, err
	}
	out := make([]domrepo.Report, len(found))
	for i, r := range found {
		out[i] = domrepo.Report{Path: r.Path, Name: r.Name, Fund: r.Fund}
	}
	return out, nil
}

func (s *DirReportSource) Read(ctx context.Context, r domrepo.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return "", fmt.Errorf("read report %s: %w", r.Name, err)
	}
	return string(data), nil
}
