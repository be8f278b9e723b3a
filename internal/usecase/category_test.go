package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyUsesFirstMatchingRule(t *testing.T) {
	table := DefaultCategoryTable()

	cases := map[string]domain.Category{
		"Rolex Submariner Watch":      domain.CategoryWatch,
		"Watch strap leather bag":     domain.CategoryWatch,
		"Gucci Marmont Shoulder Bag":  domain.CategoryBag,
		"Ray-Ban Aviator SUNGLASSES":  domain.CategorySunglasses,
		"Nike Air sneakers":           domain.CategoryShoes,
		"Slim bifold wallet":          domain.CategoryWallet,
		"Gold bangle":                 domain.CategoryBracelet,
		"Mystery item without a hint": domain.CategoryFallback,
	}
	for name, want := range cases {
		assert.Equal(t, want, table.Classify(name), name)
	}
}

func TestLoadCategoryTableFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
fallback = "misc"

[[rule]]
category = "bracelet"
keywords = ["Cuff"]

[[rule]]
category = "watch"
keywords = ["watch"]
`), 0o644))

	table, err := LoadCategoryTable(path)
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryBracelet, table.Classify("Silver cuff watch"))
	assert.Equal(t, domain.Category("misc"), table.Classify("tote"))
	assert.Len(t, table.Prompts, 6, "prompts fall back to defaults")
}

func TestLoadCategoryTableRejectsEmptyRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[rule]]\ncategory = \"bag\"\n"), 0o644))

	_, err := LoadCategoryTable(path)
	require.Error(t, err)
}

type promptEncoder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (p *promptEncoder) EmbedImage(context.Context, []byte) (*EmbedRes, error) {
	return nil, errors.New("not used")
}

func (p *promptEncoder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.vectors[:len(texts)], nil
}

func (p *promptEncoder) Ping(context.Context) error { return nil }

func TestCategoryDetector(t *testing.T) {
	enc := &promptEncoder{vectors: [][]float32{{1, 0, 0}, {0, 1, 0}}}
	prompts := []CategoryPrompt{
		{Category: domain.CategoryWatch, Text: "a watch"},
		{Category: domain.CategoryBag, Text: "a bag"},
	}
	d := NewCategoryDetector(enc, prompts, 0.35, logger.Nop())

	cat, score := d.Detect(context.Background(), []float32{0.2, 0.9, 0})
	assert.Equal(t, domain.CategoryBag, cat)
	assert.Greater(t, score, 0.9)

	cat, _ = d.Detect(context.Background(), []float32{0.1, 0.1, 1})
	assert.Equal(t, domain.CategoryUnknown, cat, "below floor")

	assert.Equal(t, 1, enc.calls, "prompt vectors are cached")
}

func TestCategoryDetectorRetriesAfterEncoderFailure(t *testing.T) {
	enc := &promptEncoder{err: errors.New("unavailable")}
	d := NewCategoryDetector(enc, []CategoryPrompt{{Category: domain.CategoryWallet, Text: "a wallet"}}, 0.35, logger.Nop())

	cat, _ := d.Detect(context.Background(), []float32{1, 0})
	assert.Equal(t, domain.CategoryUnknown, cat)

	enc.err = nil
	enc.vectors = [][]float32{{1, 0}}
	cat, _ = d.Detect(context.Background(), []float32{1, 0})
	assert.Equal(t, domain.CategoryWallet, cat)
	assert.Equal(t, 2, enc.calls)
}
