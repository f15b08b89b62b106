package keyfigures

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReportPrefix is the file name prefix of summary reports.
const ReportPrefix = "Summary"

// DefaultExtensions are accepted when ScanDir gets none.
var DefaultExtensions = []string{".txt"}

// Report is a summary report file found by ScanDir.
type Report struct {
	Path string
	Name string
	Fund string
}

// ScanDir lists summary reports in dir sorted by file name. Subdirectories
// are not descended into. Files whose name has no fund segment are still
// returned with an empty Fund.
func ScanDir(dir string, exts []string) ([]Report, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan report dir: %w", err)
	}

	var reports []Report
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, ReportPrefix) || !hasExt(name, exts) {
			continue
		}
		fund, _ := FundName(name)
		reports = append(reports, Report{
			Path: filepath.Join(dir, name),
			Name: name,
			Fund: fund,
		})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Name < reports[j].Name })
	return reports, nil
}

// FundName returns the second "-" separated segment of a report file name,
// trimmed of spaces and without the extension.
func FundName(filename string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	parts := strings.Split(base, "-")
	if len(parts) < 2 {
		return "", false
	}
	fund := strings.TrimSpace(parts[1])
	return fund, fund != ""
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if ext == e {
			return true
		}
	}
	return false
}
