package extensions

import (
	"testing"

	"github.com/nyunai/nyun/lib/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name      string
		requested []Kind
		expected  []Kind
		wantErr   bool
	}{
		{"all", []Kind{All}, []Kind{Vision, TextGeneration, Adapt}, false},
		{"none", []Kind{None}, []Kind{}, false},
		{"single", []Kind{Adapt}, []Kind{Adapt}, false},
		{"duplicates collapse", []Kind{Adapt, Adapt, Vision}, []Kind{Vision, Adapt}, false},
		{"catalog order", []Kind{Adapt, TextGeneration}, []Kind{TextGeneration, Adapt}, false},
		{"all with others", []Kind{Adapt, All}, []Kind{Vision, TextGeneration, Adapt}, false},
		{"unknown", []Kind{"audio"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.requested...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			require.ElementsMatch(t, tt.expected, got)
			if len(tt.expected) > 0 {
				require.Equal(t, tt.expected, got)
			}
		})
	}

	a, err := Expand(Adapt, Adapt, Vision)
	require.NoError(t, err)
	b, err := Expand(Adapt, Vision)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEnabledMap(t *testing.T) {
	tests := []struct {
		name      string
		requested []Kind
		expected  map[Kind]bool
	}{
		{"all", []Kind{All}, map[Kind]bool{Vision: true, TextGeneration: true, Adapt: true}},
		{"none", []Kind{None}, map[Kind]bool{Vision: false, TextGeneration: false, Adapt: false}},
		{"empty", nil, map[Kind]bool{Vision: false, TextGeneration: false, Adapt: false}},
		{"adapt", []Kind{Adapt}, map[Kind]bool{Vision: false, TextGeneration: false, Adapt: true}},
		{"all beats none", []Kind{None, All}, map[Kind]bool{Vision: true, TextGeneration: true, Adapt: true}},
		{"none beats concrete", []Kind{Adapt, None}, map[Kind]bool{Vision: false, TextGeneration: false, Adapt: false}},
		{"repeated", []Kind{Vision, Vision}, map[Kind]bool{Vision: true, TextGeneration: false, Adapt: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EnabledMap(tt.requested...)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
			require.Len(t, got, len(Kinds))
		})
	}

	t.Run("order independent", func(t *testing.T) {
		a, err := EnabledMap(Adapt, Vision, None, All)
		require.NoError(t, err)
		b, err := EnabledMap(All, None, Vision, Adapt)
		require.NoError(t, err)
		require.Equal(t, a, b)

		c, err := EnabledMap(TextGeneration, Adapt)
		require.NoError(t, err)
		d, err := EnabledMap(Adapt, TextGeneration)
		require.NoError(t, err)
		require.Equal(t, c, d)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := EnabledMap(Adapt, "audio")
		require.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestMapsDiffer(t *testing.T) {
	full := map[Kind]bool{Vision: false, TextGeneration: false, Adapt: true}
	partial := map[Kind]bool{Adapt: true}
	withPseudo := map[Kind]bool{Adapt: true, All: true}

	assert.False(t, MapsDiffer(full, partial))
	assert.False(t, MapsDiffer(full, withPseudo))
	assert.True(t, MapsDiffer(full, map[Kind]bool{Vision: true, Adapt: true}))
	assert.False(t, MapsDiffer(nil, map[Kind]bool{}))
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
		wantErr  bool
	}{
		{"vision", Vision, false},
		{"text-generation", TextGeneration, false},
		{"Adapt", Adapt, false},
		{"all", All, false},
		{"none", None, false},
		{"kompress-vision", Vision, false},
		{"kompress-text-generation", TextGeneration, false},
		{"audio", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}

	kinds, err := ParseKinds("vision,adapt", "text-generation")
	require.NoError(t, err)
	assert.Equal(t, []Kind{Vision, Adapt, TextGeneration}, kinds)
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("AutoAWQ")
	require.NoError(t, err)
	assert.Equal(t, AutoAWQ, a)

	_, err = ParseAlgorithm("autoawq")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
	_, err = ParseAlgorithm("")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestFamily(t *testing.T) {
	assert.Equal(t, "kompress", Vision.Family())
	assert.Equal(t, "kompress", TextGeneration.Family())
	assert.Equal(t, "adapt", Adapt.Family())
	assert.Equal(t, "", All.Family())
}

func TestCatalogImages(t *testing.T) {
	reg := images.NewRegistry()
	cat := NewCatalog(reg)

	vision, err := cat.RequiredImages(Vision)
	require.NoError(t, err)
	require.Len(t, vision, 2)
	assert.Equal(t, "nyunadmin/nyun_kompress:main_kompress", vision[0].String())

	text, err := cat.RequiredImages(TextGeneration)
	require.NoError(t, err)
	require.Len(t, text, 5)

	_, err = cat.RequiredImages(All)
	require.ErrorIs(t, err, ErrUnknownKind)

	all := cat.ImagesFor(map[Kind]bool{Vision: true, TextGeneration: true, Adapt: true})
	assert.Len(t, all, 8)

	adaptOnly := cat.ImagesFor(map[Kind]bool{Adapt: true})
	require.Len(t, adaptOnly, 1)
	assert.Same(t, reg.MustIntern("nyunadmin/adapt", "february"), adaptOnly[0])

	assert.Empty(t, cat.ImagesFor(map[Kind]bool{}))
}

func TestCatalogSharesIdentities(t *testing.T) {
	reg := images.NewRegistry()
	cat := NewCatalog(reg)

	required, err := cat.RequiredImages(Vision)
	require.NoError(t, err)
	override, err := cat.ImageFor(Vision, ptr(MMRazor))
	require.NoError(t, err)

	// The override and the required entry are the same interned identity
	assert.Same(t, required[1], override)

	// A second catalog on the same registry shares every identity
	again := NewCatalog(reg)
	other, err := again.ImageFor(Vision, ptr(MMRazor))
	require.NoError(t, err)
	assert.Same(t, override, other)
}

func TestImageFor(t *testing.T) {
	cat := NewCatalog(images.NewRegistry())

	ref, err := cat.ImageFor(TextGeneration, ptr(AutoAWQ))
	require.NoError(t, err)
	assert.Equal(t, "nyunadmin/nyun_kompress:autoawq", ref.String())

	_, err = cat.ImageFor(Adapt, ptr(AutoAWQ))
	require.ErrorIs(t, err, ErrNoImageForAlgorithm)

	ref, err = cat.ImageFor(Adapt, nil)
	require.NoError(t, err)
	assert.Equal(t, "nyunadmin/adapt:february", ref.String())

	_, err = cat.ImageFor(TextGeneration, nil)
	require.ErrorIs(t, err, ErrNoDefaultImage)
}

func TestOwnerOf(t *testing.T) {
	cat := NewCatalog(images.NewRegistry())
	all := map[Kind]bool{Vision: true, TextGeneration: true, Adapt: true}

	owner, err := cat.OwnerOf(AutoAWQ, all)
	require.NoError(t, err)
	assert.Equal(t, TextGeneration, owner)

	owner, err = cat.OwnerOf(MMRazor, all)
	require.NoError(t, err)
	assert.Equal(t, Vision, owner)

	_, err = cat.OwnerOf(AutoAWQ, map[Kind]bool{Adapt: true})
	require.ErrorIs(t, err, ErrNoImageForAlgorithm)
	assert.Contains(t, err.Error(), "AutoAWQ")
}

func ptr[T any](v T) *T {
	return &v
}
