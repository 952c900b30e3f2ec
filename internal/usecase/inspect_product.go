package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/pod-fulfillment-service/internal/domain"
	"github.com/example/pod-fulfillment-service/internal/mapping"
)

// VariantMapping — есть ли у варианта товара запись в таблице SKU.
type VariantMapping struct {
	VariantID string        `json:"variant_id"`
	SKU       string        `json:"sku"`
	Name      string        `json:"name"`
	Key       string        `json:"key"`
	Mapped    bool          `json:"mapped"`
	Entry     mapping.Entry `json:"entry"`
}

type ProductInspection struct {
	Product  domain.Product   `json:"product"`
	Variants []VariantMapping `json:"variants"`
	Missing  int              `json:"missing"`
}

// InspectProduct — инструмент оператора: какие варианты товара не смаплены
// на партнёра. Товар ищется по id, иначе по slug.
type InspectProduct struct {
	Orders  domain.OrderSystem
	Mapping *mapping.Table
}

func (uc InspectProduct) Execute(ctx context.Context, id, slug string) (ProductInspection, error) {
	id = strings.TrimSpace(id)
	slug = strings.TrimSpace(slug)

	var (
		product domain.Product
		found   bool
		err     error
	)
	switch {
	case id != "":
		product, found, err = uc.Orders.ProductByID(ctx, id)
	case slug != "":
		product, found, err = uc.Orders.ProductBySlug(ctx, slug)
	default:
		return ProductInspection{}, errors.New("product id or slug is required")
	}
	if err != nil {
		return ProductInspection{}, fmt.Errorf("load product: %w", err)
	}
	if !found {
		return ProductInspection{}, fmt.Errorf("product %s%s not found", id, slug)
	}

	out := ProductInspection{Product: product, Variants: make([]VariantMapping, 0, len(product.Variants))}
	for _, v := range product.Variants {
		entry, key, ok := uc.Mapping.Lookup(v.SKU, v.Name)
		out.Variants = append(out.Variants, VariantMapping{
			VariantID: v.ID,
			SKU:       v.SKU,
			Name:      v.Name,
			Key:       key,
			Mapped:    ok,
			Entry:     entry,
		})
		if !ok {
			out.Missing++
		}
	}
	return out, nil
}
