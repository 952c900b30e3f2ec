package orderapi

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

const orderFields = `
fragment OrderFields on Order {
	id
	code
	state
	createdAt
	customer { firstName lastName emailAddress phoneNumber }
	shippingAddress { fullName company streetLine1 streetLine2 city province postalCode countryCode phoneNumber }
	lines { id quantity productVariant { id sku name } }
	fulfillments { id state method trackingCode createdAt lines { orderLineId quantity } }
}`

const ordersQuery = `
query orders($options: OrderListOptions) {
	orders(options: $options) {
		items { ...OrderFields }
		totalItems
	}
}` + orderFields

// ListOrders возвращает заказы в указанных состояниях, старые первыми.
func (c *Client) ListOrders(ctx context.Context, opts domain.OrderListOptions) ([]domain.Order, error) {
	options := map[string]any{
		"sort": map[string]any{"createdAt": "ASC"},
	}
	if opts.Take > 0 {
		options["take"] = opts.Take
	}
	if len(opts.States) > 0 {
		states := make([]string, 0, len(opts.States))
		for _, s := range opts.States {
			states = append(states, string(s))
		}
		options["filter"] = map[string]any{"state": map[string]any{"in": states}}
	}

	var data orderListData
	if err := c.graphqlRequest(ctx, ordersQuery, map[string]any{"options": options}, &data); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(data.Orders.Items))
	for _, dto := range data.Orders.Items {
		orders = append(orders, mapOrder(dto))
	}
	return orders, nil
}

// OrderByCode ищет заказ по человекочитаемому коду.
func (c *Client) OrderByCode(ctx context.Context, code string) (domain.Order, bool, error) {
	options := map[string]any{
		"take":   1,
		"filter": map[string]any{"code": map[string]any{"eq": code}},
	}
	var data orderListData
	if err := c.graphqlRequest(ctx, ordersQuery, map[string]any{"options": options}, &data); err != nil {
		return domain.Order{}, false, err
	}
	for _, dto := range data.Orders.Items {
		if dto.Code == code {
			return mapOrder(dto), true, nil
		}
	}
	return domain.Order{}, false, nil
}

func mapOrder(dto orderDTO) domain.Order {
	order := domain.Order{
		ID:        dto.ID,
		Code:      dto.Code,
		State:     domain.OrderState(dto.State),
		CreatedAt: parseTime(dto.CreatedAt),
	}
	if dto.Customer != nil {
		order.Customer = domain.Customer{
			FirstName:    dto.Customer.FirstName,
			LastName:     dto.Customer.LastName,
			EmailAddress: dto.Customer.EmailAddress,
			PhoneNumber:  dto.Customer.PhoneNumber,
		}
	}
	if a := dto.ShippingAddress; a != nil {
		order.ShippingAddress = domain.Address{
			FullName:    a.FullName,
			Company:     a.Company,
			StreetLine1: a.StreetLine1,
			StreetLine2: a.StreetLine2,
			City:        a.City,
			Province:    a.Province,
			PostalCode:  a.PostalCode,
			CountryCode: a.CountryCode,
			PhoneNumber: a.PhoneNumber,
		}
	}

	fulfillments := make([]fulfillmentDTO, len(dto.Fulfillments))
	copy(fulfillments, dto.Fulfillments)
	sort.SliceStable(fulfillments, func(i, j int) bool {
		return parseTime(fulfillments[i].CreatedAt).Before(parseTime(fulfillments[j].CreatedAt))
	})

	// Отменённые отгрузки не занимают количество.
	fulfilled := make(map[string]int)
	for _, f := range fulfillments {
		order.Fulfillments = append(order.Fulfillments, domain.Fulfillment{
			ID:           f.ID,
			State:        domain.FulfillmentState(f.State),
			Method:       f.Method,
			TrackingCode: f.TrackingCode,
		})
		if domain.FulfillmentState(f.State) == domain.FulfillmentCancelled {
			continue
		}
		for _, l := range f.Lines {
			fulfilled[l.OrderLineID] += int(l.Quantity)
		}
	}

	for _, l := range dto.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:                l.ID,
			Quantity:          int(l.Quantity),
			FulfilledQuantity: fulfilled[l.ID],
			Variant: domain.ProductVariant{
				ID:   l.ProductVariant.ID,
				SKU:  strings.TrimSpace(l.ProductVariant.SKU),
				Name: l.ProductVariant.Name,
			},
		})
	}
	return order
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
