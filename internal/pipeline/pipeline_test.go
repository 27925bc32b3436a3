// internal/pipeline/pipeline_test.go
package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# production opportunities
006Vv00000IZaFx

https://mycompany.lightning.force.com/lightning/r/Opportunity/006Vv00000IZaFxEAL/view
  006Vv00000IZaGy
# trailing comment
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	inputs, err := ReadInputFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"006Vv00000IZaFx",
		"https://mycompany.lightning.force.com/lightning/r/Opportunity/006Vv00000IZaFxEAL/view",
		"006Vv00000IZaGy",
	}, inputs)
}

func TestReadInputFile_Missing(t *testing.T) {
	_, err := ReadInputFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestStatsString(t *testing.T) {
	s := Stats{Processed: 10, Indexed: 9, ErrorDocs: 2, Failed: 1}
	assert.Equal(t, "processed=10 indexed=9 errorDocs=2 failed=1", s.String())
}
