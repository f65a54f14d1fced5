package mapping_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/xrinput/mapping"
)

func TestBuiltinDaydream(t *testing.T) {
	e, ok := mapping.Builtin().Lookup("Daydream Controller")
	require.True(t, ok)

	assert.Equal(t, "daydream", e.Style)
	assert.Equal(t, []mapping.AxisGroup{{Name: "thumbpad", Indexes: []int{0, 1}}}, e.Axes)
	assert.Equal(t, []string{"thumbpad"}, e.Buttons)

	idx, ok := e.PrimaryIndex()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestBuiltinEntriesAreValid(t *testing.T) {
	tbl := mapping.Builtin()
	require.NotZero(t, tbl.Len())
	for _, e := range tbl.Entries() {
		assert.NoError(t, e.Validate(), e.ID)
	}

	_, ok := tbl.Lookup("Some Unknown Wand")
	assert.False(t, ok)
}

func TestLookupReturnsCopy(t *testing.T) {
	tbl := mapping.Builtin()
	e, _ := tbl.Lookup("OpenVR Gamepad")
	e.Buttons[0] = "mutated"
	e.Axes[0].Indexes[0] = 42

	again, _ := tbl.Lookup("OpenVR Gamepad")
	assert.Equal(t, "thumbpad", again.Buttons[0])
	assert.Equal(t, 0, again.Axes[0].Indexes[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   mapping.Entry
		wantErr bool
	}{
		{name: "minimal", entry: mapping.Entry{ID: "x"}},
		{name: "empty id", entry: mapping.Entry{}, wantErr: true},
		{name: "unnamed group", entry: mapping.Entry{ID: "x", Axes: []mapping.AxisGroup{{Indexes: []int{0}}}}, wantErr: true},
		{name: "empty group", entry: mapping.Entry{ID: "x", Axes: []mapping.AxisGroup{{Name: "pad"}}}, wantErr: true},
		{name: "negative index", entry: mapping.Entry{ID: "x", Axes: []mapping.AxisGroup{{Name: "pad", Indexes: []int{-1}}}}, wantErr: true},
		{
			name: "duplicate group",
			entry: mapping.Entry{ID: "x", Axes: []mapping.AxisGroup{
				{Name: "pad", Indexes: []int{0}},
				{Name: "pad", Indexes: []int{1}},
			}},
			wantErr: true,
		},
		{name: "unknown primary", entry: mapping.Entry{ID: "x", Buttons: []string{"a"}, Primary: "b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeOverrides(t *testing.T) {
	user, err := mapping.New(
		mapping.Entry{ID: "Daydream Controller", Style: "custom", Buttons: []string{"click"}, Primary: "click"},
		mapping.Entry{ID: "Wand", Buttons: []string{"a", "b"}},
	)
	require.NoError(t, err)

	merged := mapping.Builtin().Merge(user)
	assert.Equal(t, mapping.Builtin().Len()+1, merged.Len())

	e, ok := merged.Lookup("Daydream Controller")
	require.True(t, ok)
	assert.Equal(t, "custom", e.Style)

	ids := merged.IDs()
	assert.Equal(t, "Wand", ids[len(ids)-1])
}

func TestRoundTripFormats(t *testing.T) {
	for _, f := range []mapping.Format{mapping.FormatYAML, mapping.FormatTOML, mapping.FormatJSON} {
		t.Run(string(f), func(t *testing.T) {
			data, err := mapping.Builtin().Marshal(f)
			require.NoError(t, err)

			back, err := mapping.Parse(data, f)
			require.NoError(t, err)
			assert.Equal(t, mapping.Builtin().Entries(), back.Entries())
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yml := filepath.Join(dir, "extra.yml")
	require.NoError(t, os.WriteFile(yml, []byte(`
controllers:
  - id: Wand
    style: wand
    axes:
      - name: pad
        indexes: [0, 1]
    buttons: [pad, trigger]
    primary: trigger
`), 0o644))

	tbl, err := mapping.Load(yml)
	require.NoError(t, err)
	e, ok := tbl.Lookup("Wand")
	require.True(t, ok)
	idx, _ := e.PrimaryIndex()
	assert.Equal(t, 1, idx)

	tml := filepath.Join(dir, "extra.toml")
	require.NoError(t, os.WriteFile(tml, []byte(`
[[controllers]]
id = "Wand"
buttons = ["pad"]

  [[controllers.axes]]
  name = "pad"
  indexes = [0, 1]
`), 0o644))
	tbl, err = mapping.Load(tml)
	require.NoError(t, err)
	e, _ = tbl.Lookup("Wand")
	assert.Equal(t, []int{0, 1}, e.Axes[0].Indexes)

	_, err = mapping.Load(filepath.Join(dir, "extra.ini"))
	assert.Error(t, err)

	_, err = mapping.Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"controllers":[{"id":""}]}`), 0o644))
	_, err = mapping.Load(bad)
	assert.ErrorContains(t, err, bad)
}
