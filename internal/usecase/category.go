package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/searchindex"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/pelletier/go-toml/v2"
)

// CategoryRule: категория и её ключевые слова.
type CategoryRule struct {
	Category domain.Category `toml:"category"`
	Keywords []string        `toml:"keywords"`
}

// CategoryPrompt: текстовое описание категории для сравнения с эмбеддингом изображения.
type CategoryPrompt struct {
	Category domain.Category `toml:"category"`
	Text     string          `toml:"text"`
}

// CategoryTable это упорядоченная таблица правил, побеждает первое совпавшее.
type CategoryTable struct {
	Rules    []CategoryRule   `toml:"rule"`
	Prompts  []CategoryPrompt `toml:"prompt"`
	Fallback domain.Category  `toml:"fallback"`
}

func DefaultCategoryTable() *CategoryTable {
	return &CategoryTable{
		Rules: []CategoryRule{
			{Category: domain.CategoryWatch, Keywords: []string{"watch", "wrist", "timepiece", "chronograph"}},
			{Category: domain.CategoryBag, Keywords: []string{"bag", "purse", "handbag", "tote", "clutch", "satchel", "backpack", "shoulder"}},
			{Category: domain.CategorySunglasses, Keywords: []string{"sunglasses", "sunglass", "eyewear", "shades", "glasses"}},
			{Category: domain.CategoryShoes, Keywords: []string{"shoes", "shoe", "footwear", "sneakers", "boots", "sandals"}},
			{Category: domain.CategoryWallet, Keywords: []string{"wallet", "purse"}},
			{Category: domain.CategoryBracelet, Keywords: []string{"bracelet", "bangle", "jewellery", "jewelry"}},
		},
		Prompts: []CategoryPrompt{
			{Category: domain.CategoryWatch, Text: "a watch on someone's wrist"},
			{Category: domain.CategoryBag, Text: "a bag or handbag or purse"},
			{Category: domain.CategorySunglasses, Text: "sunglasses or eyewear"},
			{Category: domain.CategoryShoes, Text: "shoes or footwear"},
			{Category: domain.CategoryWallet, Text: "a wallet"},
			{Category: domain.CategoryBracelet, Text: "a bracelet or jewelry"},
		},
		Fallback: domain.CategoryFallback,
	}
}

// LoadCategoryTable читает таблицу из TOML. Пустой путь: таблица по умолчанию.
// Незаданные в файле секции берутся из таблицы по умолчанию.
func LoadCategoryTable(path string) (*CategoryTable, error) {
	table := DefaultCategoryTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var parsed CategoryTable
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, e.Wrap(path, err)
	}

	if len(parsed.Rules) > 0 {
		table.Rules = parsed.Rules
	}
	if len(parsed.Prompts) > 0 {
		table.Prompts = parsed.Prompts
	}
	if parsed.Fallback != "" {
		table.Fallback = parsed.Fallback
	}

	for i, rule := range table.Rules {
		if rule.Category == "" || len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("%s: rule %d must have a category and keywords", path, i)
		}
		for j, kw := range rule.Keywords {
			table.Rules[i].Keywords[j] = strings.ToLower(kw)
		}
	}

	return table, nil
}

// Classify возвращает категорию по названию товара (подстрока без учёта регистра).
func (t *CategoryTable) Classify(name string) domain.Category {
	lower := strings.ToLower(name)
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return t.Fallback
}

// CategoryDetector определяет категорию изображения по близости к эмбеддингам описаний.
// Эмбеддинги описаний запрашиваются у энкодера один раз; при ошибке повторяются при следующем вызове.
type CategoryDetector struct {
	encoder EncoderInfra
	prompts []CategoryPrompt
	floor   float64
	logger  logger.Logger

	mu      sync.Mutex
	vectors [][]float32
}

func NewCategoryDetector(encoder EncoderInfra, prompts []CategoryPrompt, floor float64, logger logger.Logger) *CategoryDetector {
	return &CategoryDetector{
		encoder: encoder,
		prompts: prompts,
		floor:   floor,
		logger:  logger,
	}
}

// Detect возвращает категорию и сходство. Если сходство не выше порога, категория неизвестна.
func (d *CategoryDetector) Detect(ctx context.Context, query []float32) (domain.Category, float64) {
	vectors, err := d.promptVectors(ctx)
	if err != nil {
		d.logger.Warnf("category detection skipped: %v", err)
		return domain.CategoryUnknown, 0
	}

	q := searchindex.Normalize(query)
	best, bestScore := -1, 0.0
	for i, v := range vectors {
		if len(v) != len(q) {
			continue
		}
		score := float64(searchindex.Dot(q, v))
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore <= d.floor {
		return domain.CategoryUnknown, bestScore
	}
	return d.prompts[best].Category, bestScore
}

// Reset сбрасывает кэш эмбеддингов описаний (например, после смены модели).
func (d *CategoryDetector) Reset() {
	d.mu.Lock()
	d.vectors = nil
	d.mu.Unlock()
}

func (d *CategoryDetector) promptVectors(ctx context.Context) ([][]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vectors != nil {
		return d.vectors, nil
	}
	if len(d.prompts) == 0 {
		return nil, fmt.Errorf("no category prompts configured")
	}

	texts := make([]string, len(d.prompts))
	for i, p := range d.prompts {
		texts[i] = p.Text
	}

	raw, err := d.encoder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d prompts", len(raw), len(texts))
	}

	vectors := make([][]float32, len(raw))
	for i, v := range raw {
		vectors[i] = searchindex.Normalize(v)
	}
	d.vectors = vectors
	return vectors, nil
}
