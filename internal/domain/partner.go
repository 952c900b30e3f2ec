package domain

// PartnerOrderRequest — заказ на печать у партнёра. ExternalID равен коду заказа.
type PartnerOrderRequest struct {
	ExternalID     string            `json:"external_id"`
	Label          string            `json:"label,omitempty"`
	LineItems      []PartnerLineItem `json:"line_items"`
	ShippingMethod int               `json:"shipping_method"`
	NotifyCustomer bool              `json:"send_shipping_notification"`
	AddressTo      PartnerAddress    `json:"address_to"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type PartnerLineItem struct {
	ProductID string `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type PartnerAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Company   string `json:"company,omitempty"`
}

// PartnerOrder — ответ партнёра на создание заказа.
type PartnerOrder struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Shipments []Shipment `json:"shipments,omitempty"`
}

type Shipment struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	URL            string `json:"url,omitempty"`
}

// PartnerEvent — входящий вебхук партнёра.
type PartnerEvent struct {
	Event string           `json:"event"`
	Data  PartnerEventData `json:"data"`
}

type PartnerEventData struct {
	ExternalID string     `json:"external_id"`
	Status     string     `json:"status,omitempty"`
	Shipments  []Shipment `json:"shipments,omitempty"`
}
