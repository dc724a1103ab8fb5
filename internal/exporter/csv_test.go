package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcpulse/internal/config"
)

func testWriter(t *testing.T) (*CSVWriter, *config.Paths) {
	t.Helper()
	paths := config.PathsFor(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())
	return NewCSVWriter(paths), paths
}

func readCSVSkippingBOM(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
	records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteSimpleCSV(t *testing.T) {
	writer, paths := testWriter(t)

	err := writer.WriteSimpleCSV("report.csv",
		[]string{"object_id", "flux_mean"},
		[][]string{{"615", "10.5"}, {"713", "-4.0"}})
	require.NoError(t, err)

	records := readCSVSkippingBOM(t, paths.GetReportPath("report.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"object_id", "flux_mean"}, records[0])
	assert.Equal(t, []string{"713", "-4.0"}, records[2])
}

func TestWriteCSVWritesBOM(t *testing.T) {
	writer, paths := testWriter(t)

	require.NoError(t, writer.WriteSimpleCSV("bom.csv", []string{"a"}, [][]string{{"1"}}))

	data, err := os.ReadFile(paths.GetReportPath("bom.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\xef\xbb\xbf"))
}

func TestAppendToCSV(t *testing.T) {
	writer, paths := testWriter(t)

	require.NoError(t, writer.WriteSimpleCSV("append.csv", []string{"a"}, [][]string{{"1"}}))
	require.NoError(t, writer.AppendToCSV("append.csv", [][]string{{"2"}}))

	records := readCSVSkippingBOM(t, paths.GetReportPath("append.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2"}, records[2])
}

func TestResolvePath(t *testing.T) {
	writer, paths := testWriter(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"default goes to reports", "out.csv", paths.GetReportPath("out.csv")},
		{"features prefix", "features/snap.csv", paths.GetFeaturePath("snap.csv")},
		{"cache prefix", "cache/tmp.csv", paths.GetCachePath("tmp.csv")},
		{"absolute unchanged", filepath.Join(paths.DataDir, "x.csv"), filepath.Join(paths.DataDir, "x.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, writer.resolvePath(tt.input))
		})
	}
}

func TestStreamWriter(t *testing.T) {
	writer, paths := testWriter(t)

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"object_id", "step"})
	require.NoError(t, err)

	require.NoError(t, stream.WriteRecord([]string{"615", "0"}))
	require.NoError(t, stream.WriteRecord([]string{"615", "1"}))
	require.NoError(t, stream.Close())

	records := readCSVSkippingBOM(t, paths.GetReportPath("stream.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"615", "1"}, records[2])
}
