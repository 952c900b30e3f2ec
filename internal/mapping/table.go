// Package mapping — неизменяемая таблица SKU -> товар партнёра для сборки
// заказов у партнёра.
package mapping

import (
	"fmt"
	"sort"
	"strings"
)

// Entry — сторона партнёра в одной строке таблицы.
type Entry struct {
	ProductID string `json:"product_id"`
	VariantID int64  `json:"variant_id"`
}

// Table — строится один раз на прогон и дальше не меняется. Ключи
// сравниваются без учёта регистра и крайних пробелов.
type Table struct {
	entries map[string]Entry
}

// DuplicateKeyError — ключ встречается в источнике дважды (с точностью до регистра).
type DuplicateKeyError struct {
	Key    string
	Source string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate sku mapping key %q in %s", e.Key, e.Source)
}

type row struct {
	key   string
	entry Entry
}

func newTable(source string, rows []row) (*Table, error) {
	entries := make(map[string]Entry, len(rows))
	for i, r := range rows {
		key := strings.TrimSpace(r.key)
		if key == "" {
			return nil, fmt.Errorf("%s: row %d has an empty key", source, i+1)
		}
		if strings.TrimSpace(r.entry.ProductID) == "" {
			return nil, fmt.Errorf("%s: key %q has an empty product id", source, key)
		}
		if r.entry.VariantID <= 0 {
			return nil, fmt.Errorf("%s: key %q has an invalid variant id %d", source, key, r.entry.VariantID)
		}
		norm := normalizeKey(key)
		if _, ok := entries[norm]; ok {
			return nil, &DuplicateKeyError{Key: key, Source: source}
		}
		entries[norm] = Entry{ProductID: strings.TrimSpace(r.entry.ProductID), VariantID: r.entry.VariantID}
	}
	return &Table{entries: entries}, nil
}

// NewTable — таблица из map в памяти.
func NewTable(entries map[string]Entry) (*Table, error) {
	rows := make([]row, 0, len(entries))
	for k, v := range entries {
		rows = append(rows, row{key: k, entry: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })
	return newTable("map", rows)
}

// Lookup ищет сначала по SKU, потом по имени варианта. Возвращает ключ,
// по которому нашлось, а при промахе SKU (или имя, если SKU пуст).
func (t *Table) Lookup(sku, name string) (Entry, string, bool) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)
	if t != nil {
		if sku != "" {
			if e, ok := t.entries[normalizeKey(sku)]; ok {
				return e, sku, true
			}
		}
		if name != "" {
			if e, ok := t.entries[normalizeKey(name)]; ok {
				return e, name, true
			}
		}
	}
	if sku != "" {
		return Entry{}, sku, false
	}
	return Entry{}, name, false
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
