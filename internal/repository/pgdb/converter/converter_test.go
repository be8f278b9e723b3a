package converter

import (
	"testing"
	"time"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductConverterToEntity(t *testing.T) {
	price := int64(129950)
	name, key := "Watches", "watches"

	p := ProductConverter{}.ToEntity(&ProductModel{
		Name:         "Rolex",
		URL:          "https://shop.example/rolex",
		Price:        &price,
		CategoryName: &name,
		CategoryKey:  &key,
		ImageURLs:    []string{"https://cdn.example/1.jpg"},
	})

	assert.Equal(t, "1299.50", p.Price)
	assert.Equal(t, "Watches", p.Category)
	assert.Equal(t, "watches", p.CategoryKey)
	assert.Equal(t, []string{"https://cdn.example/1.jpg"}, p.ImageURLs)

	noPrice := ProductConverter{}.ToEntity(&ProductModel{Name: "x"})
	assert.Equal(t, domain.DefaultPrice, noPrice.Price)
	assert.Empty(t, noPrice.Category)
}

func TestBuildConverter(t *testing.T) {
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	report := domain.NewBuildReport("gen-1", started)
	report.Skipped = []domain.SkippedImage{{ProductURL: "p", ImageURL: "i", Reason: "404"}}

	model := BuildConverter{}.ToModel(report)
	assert.Equal(t, "running", model.Status)
	assert.Nil(t, model.FinishedAt)
	assert.Nil(t, model.Error)
	assert.Equal(t, 1, model.ImagesSkipped)

	report.FinishedAt = started.Add(time.Minute)
	report.Error = "boom"
	model = BuildConverter{}.ToModel(report)
	require.NotNil(t, model.FinishedAt)
	require.NotNil(t, model.Error)
	assert.Equal(t, "boom", *model.Error)

	skips := BuildConverter{}.ToSkipModels(7, report.Skipped)
	require.Len(t, skips, 1)
	assert.Equal(t, int64(7), skips[0].BuildID)
	assert.Equal(t, "404", skips[0].Reason)
}
