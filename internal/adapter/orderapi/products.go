package orderapi

import (
	"context"
	"strings"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

const productQuery = `
query product($id: ID, $slug: String) {
	product(id: $id, slug: $slug) {
		id
		name
		slug
		variants { id sku name }
	}
}`

func (c *Client) ProductByID(ctx context.Context, id string) (domain.Product, bool, error) {
	return c.product(ctx, map[string]any{"id": id})
}

func (c *Client) ProductBySlug(ctx context.Context, slug string) (domain.Product, bool, error) {
	return c.product(ctx, map[string]any{"slug": slug})
}

func (c *Client) product(ctx context.Context, variables map[string]any) (domain.Product, bool, error) {
	var data productData
	if err := c.graphqlRequest(ctx, productQuery, variables, &data); err != nil {
		return domain.Product{}, false, err
	}
	if data.Product == nil {
		return domain.Product{}, false, nil
	}
	p := domain.Product{
		ID:   data.Product.ID,
		Name: data.Product.Name,
		Slug: data.Product.Slug,
	}
	for _, v := range data.Product.Variants {
		p.Variants = append(p.Variants, domain.ProductVariant{
			ID:   v.ID,
			SKU:  strings.TrimSpace(v.SKU),
			Name: v.Name,
		})
	}
	return p, true, nil
}
