package usecase

import (
	"strings"

	"github.com/example/pod-fulfillment-service/internal/domain"
	"github.com/example/pod-fulfillment-service/internal/mapping"
)

// PlaceholderEmail подставляется, когда у покупателя нет email: партнёр его требует.
const PlaceholderEmail = "unknown@example.com"

type ShippingOptions struct {
	Method         int
	NotifyCustomer bool
}

// BuildPartnerRequest — собрать заказ партнёра из остатков. Адрес переносится
// как есть, валидирует его партнёр.
func BuildPartnerRequest(order domain.Order, lines []OutstandingLine, table *mapping.Table, opts ShippingOptions) (domain.PartnerOrderRequest, error) {
	items := make([]domain.PartnerLineItem, 0, len(lines))
	for _, line := range lines {
		entry, key, ok := table.Lookup(line.Variant.SKU, line.Variant.Name)
		if !ok {
			return domain.PartnerOrderRequest{}, &domain.MissingMappingError{Key: key}
		}
		items = append(items, domain.PartnerLineItem{
			ProductID: entry.ProductID,
			VariantID: entry.VariantID,
			Quantity:  line.Quantity,
		})
	}

	return domain.PartnerOrderRequest{
		ExternalID:     order.Code,
		Label:          order.Code,
		LineItems:      items,
		ShippingMethod: opts.Method,
		NotifyCustomer: opts.NotifyCustomer,
		AddressTo:      partnerAddress(order),
		Metadata: map[string]string{
			"order_id":   order.ID,
			"order_code": order.Code,
		},
	}, nil
}

func partnerAddress(order domain.Order) domain.PartnerAddress {
	addr := order.ShippingAddress
	first, last := splitFullName(addr.FullName)
	if first == "" && last == "" {
		first = strings.TrimSpace(order.Customer.FirstName)
		last = strings.TrimSpace(order.Customer.LastName)
	}
	email := strings.TrimSpace(order.Customer.EmailAddress)
	if email == "" {
		email = PlaceholderEmail
	}
	phone := strings.TrimSpace(addr.PhoneNumber)
	if phone == "" {
		phone = strings.TrimSpace(order.Customer.PhoneNumber)
	}
	return domain.PartnerAddress{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     phone,
		Country:   strings.ToUpper(strings.TrimSpace(addr.CountryCode)),
		Region:    strings.TrimSpace(addr.Province),
		Address1:  strings.TrimSpace(addr.StreetLine1),
		Address2:  strings.TrimSpace(addr.StreetLine2),
		City:      strings.TrimSpace(addr.City),
		Zip:       strings.TrimSpace(addr.PostalCode),
		Company:   strings.TrimSpace(addr.Company),
	}
}

func splitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
