package organizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/speciesnet-go/internal/observation"
)

func TestFolderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  observation.Row
		want string
	}{
		{
			name: "no detection",
			row:  observation.Row{},
			want: "No_Detection",
		},
		{
			name: "common and scientific name combined",
			row: observation.Row{
				Species:        "Vulpes vulpes",
				ScientificName: "Vulpes vulpes",
				CommonName:     "red fox",
			},
			want: "red_fox_Vulpes_vulpes",
		},
		{
			name: "species only",
			row:  observation.Row{Species: "Cervus nippon"},
			want: "Cervus_nippon",
		},
		{
			name: "identical common and scientific name not duplicated",
			row: observation.Row{
				Species:        "wild boar",
				ScientificName: "wild boar",
				CommonName:     "wild boar",
			},
			want: "wild_boar",
		},
		{
			name: "unsafe characters replaced",
			row:  observation.Row{Species: `fox/deer\boar:mix?`},
			want: "fox_deer_boar_mix",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FolderName(&tt.row))
		})
	}
}

func TestFolderNameLengthCap(t *testing.T) {
	t.Parallel()

	row := observation.Row{Species: strings.Repeat("a", 300)}
	name := FolderName(&row)
	assert.Len(t, name, maxFolderNameLen)
}

func TestCollisionFreePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "fox.jpg"), collisionFreePath(dir, "fox.jpg"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fox.jpg"), []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "fox_001.jpg"), collisionFreePath(dir, "fox.jpg"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fox_001.jpg"), []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "fox_002.jpg"), collisionFreePath(dir, "fox.jpg"))
}

func TestOrganizeCopy(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "organized")

	foxPath := filepath.Join(srcDir, "fox.jpg")
	emptyPath := filepath.Join(srcDir, "empty.jpg")
	require.NoError(t, os.WriteFile(foxPath, []byte("fox bytes"), 0o644))
	require.NoError(t, os.WriteFile(emptyPath, []byte("empty bytes"), 0o644))

	rows := []observation.Row{
		{ImagePath: foxPath, Species: "Vulpes vulpes", ScientificName: "Vulpes vulpes", CommonName: "red fox"},
		{ImagePath: emptyPath},
		{ImagePath: filepath.Join(srcDir, "gone.jpg"), Species: "Cervus nippon"},
	}

	summary, err := Organize(rows, destDir, Options{Copy: true})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Organized)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Failed)
	assert.True(t, summary.Copied)
	assert.Equal(t, map[string]int{
		"red_fox_Vulpes_vulpes": 1,
		"No_Detection":          1,
	}, summary.Folders)

	// Copies exist, sources remain.
	copied, err := os.ReadFile(filepath.Join(destDir, "red_fox_Vulpes_vulpes", "fox.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "fox bytes", string(copied))
	assert.FileExists(t, foxPath)
	assert.FileExists(t, filepath.Join(destDir, "No_Detection", "empty.jpg"))

	// A machine-readable summary lands next to the folders.
	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	var foundSummary bool
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "organization_summary_") && strings.HasSuffix(e.Name(), ".json") {
			foundSummary = true
		}
	}
	assert.True(t, foundSummary)
}

func TestOrganizeMove(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "organized")

	foxPath := filepath.Join(srcDir, "fox.jpg")
	require.NoError(t, os.WriteFile(foxPath, []byte("fox bytes"), 0o644))

	rows := []observation.Row{
		{ImagePath: foxPath, Species: "Vulpes vulpes"},
	}

	summary, err := Organize(rows, destDir, Options{Copy: false})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Organized)
	assert.False(t, summary.Copied)

	assert.NoFileExists(t, foxPath, "moved source must be gone")
	assert.FileExists(t, filepath.Join(destDir, "Vulpes_vulpes", "fox.jpg"))
}

func TestSanitizeFolderName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Unknown", sanitizeFolderName("///"))
	assert.Equal(t, "a-b.c", sanitizeFolderName("a-b.c"))
	assert.Equal(t, "name", sanitizeFolderName("__name__"))
}
