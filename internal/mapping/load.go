package mapping

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	keyColumns       = []string{"sku", "key", "name"}
	productColumns   = []string{"product_id", "productid", "partner_product_id"}
	variantColumns   = []string{"variant_id", "variantid", "partner_variant_id"}
	errNoMappingData = errors.New("sku mapping source is empty")
)

// Load — файл, если задан, иначе JSON из переменной окружения.
func Load(file, inlineJSON string) (*Table, error) {
	if strings.TrimSpace(file) != "" {
		return LoadFile(file)
	}
	if strings.TrimSpace(inlineJSON) != "" {
		return ParseJSON("SKU_MAPPING_JSON", []byte(inlineJSON))
	}
	return nil, errNoMappingData
}

// LoadFile читает таблицу из .csv или .json.
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sku mapping: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(path, raw)
	default:
		return ParseCSV(path, bytes.NewReader(raw))
	}
}

// ParseCSV — первая строка заголовок: колонка ключа (sku) и колонки
// product_id, variant_id партнёра.
func ParseCSV(source string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", source, errNoMappingData)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", source, err)
	}
	keyIdx := columnIndex(header, keyColumns)
	productIdx := columnIndex(header, productColumns)
	variantIdx := columnIndex(header, variantColumns)
	if keyIdx < 0 || productIdx < 0 || variantIdx < 0 {
		return nil, fmt.Errorf("%s: header must contain sku, product_id and variant_id columns", source)
	}

	var rows []row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", source, line, err)
		}
		if isBlank(record) {
			continue
		}
		if len(record) <= keyIdx || len(record) <= productIdx || len(record) <= variantIdx {
			return nil, fmt.Errorf("%s: line %d: too few columns", source, line)
		}
		variantID, err := strconv.ParseInt(strings.TrimSpace(record[variantIdx]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: invalid variant id: %w", source, line, err)
		}
		rows = append(rows, row{
			key: record[keyIdx],
			entry: Entry{
				ProductID: record[productIdx],
				VariantID: variantID,
			},
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", source, errNoMappingData)
	}
	return newTable(source, rows)
}

type jsonRow struct {
	SKU       string `json:"sku"`
	Key       string `json:"key"`
	ProductID any    `json:"product_id"`
	VariantID any    `json:"variant_id"`
}

// ParseJSON принимает объект с ключами-SKU или массив строк. Объект читается
// потоком токенов: json.Unmarshal молча оставил бы последний дубль.
func ParseJSON(source string, raw []byte) (*Table, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: %w", source, errNoMappingData)
	}

	var rows []row
	switch trimmed[0] {
	case '[':
		var items []jsonRow
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", source, err)
		}
		for i, item := range items {
			key := item.SKU
			if strings.TrimSpace(key) == "" {
				key = item.Key
			}
			entry, err := toEntry(item.ProductID, item.VariantID)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", source, i+1, err)
			}
			rows = append(rows, row{key: key, entry: entry})
		}
	case '{':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", source, err)
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%s: decode: %w", source, err)
			}
			key, _ := tok.(string)
			var item jsonRow
			if err := dec.Decode(&item); err != nil {
				return nil, fmt.Errorf("%s: key %q: %w", source, key, err)
			}
			entry, err := toEntry(item.ProductID, item.VariantID)
			if err != nil {
				return nil, fmt.Errorf("%s: key %q: %w", source, key, err)
			}
			rows = append(rows, row{key: key, entry: entry})
		}
	default:
		return nil, fmt.Errorf("%s: expected a json object or array", source)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", source, errNoMappingData)
	}
	return newTable(source, rows)
}

func toEntry(product, variant any) (Entry, error) {
	var entry Entry
	switch v := product.(type) {
	case string:
		entry.ProductID = v
	case float64:
		entry.ProductID = strconv.FormatInt(int64(v), 10)
	default:
		return Entry{}, errors.New("product_id must be a string or number")
	}
	switch v := variant.(type) {
	case float64:
		entry.VariantID = int64(v)
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("invalid variant_id: %w", err)
		}
		entry.VariantID = id
	default:
		return Entry{}, errors.New("variant_id must be a number or numeric string")
	}
	return entry, nil
}

func columnIndex(header []string, names []string) int {
	for _, n := range names {
		for i, h := range header {
			h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
			if h == n {
				return i
			}
		}
	}
	return -1
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
