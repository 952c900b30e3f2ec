package domain

import "time"

// OrderState — состояние заказа в Order System.
type OrderState string

const (
	OrderCreated            OrderState = "Created"
	OrderAddingItems        OrderState = "AddingItems"
	OrderArrangingPayment   OrderState = "ArrangingPayment"
	OrderPaymentAuthorized  OrderState = "PaymentAuthorized"
	OrderPaymentSettled     OrderState = "PaymentSettled"
	OrderPartiallyFulfilled OrderState = "PartiallyFulfilled"
	OrderFulfilled          OrderState = "Fulfilled"
	OrderPartiallyShipped   OrderState = "PartiallyShipped"
	OrderShipped            OrderState = "Shipped"
	OrderPartiallyDelivered OrderState = "PartiallyDelivered"
	OrderDelivered          OrderState = "Delivered"
	OrderCancelled          OrderState = "Cancelled"
)

// FulfillmentState — состояние отгрузки. Переходы только вперёд.
type FulfillmentState string

const (
	FulfillmentCreated   FulfillmentState = "Created"
	FulfillmentPending   FulfillmentState = "Pending"
	FulfillmentFulfilled FulfillmentState = "Fulfilled"
	FulfillmentShipped   FulfillmentState = "Shipped"
	FulfillmentDelivered FulfillmentState = "Delivered"
	FulfillmentCancelled FulfillmentState = "Cancelled"
)

// Order — заказ, как его отдаёт Order System. Сервис только читает его и
// запрашивает мутации.
type Order struct {
	ID              string        `json:"id"`
	Code            string        `json:"code"`
	State           OrderState    `json:"state"`
	CreatedAt       time.Time     `json:"created_at"`
	Lines           []OrderLine   `json:"lines"`
	Fulfillments    []Fulfillment `json:"fulfillments"`
	ShippingAddress Address       `json:"shipping_address"`
	Customer        Customer      `json:"customer"`
}

// LatestFulfillment возвращает последнюю созданную отгрузку заказа.
func (o Order) LatestFulfillment() (Fulfillment, bool) {
	if len(o.Fulfillments) == 0 {
		return Fulfillment{}, false
	}
	return o.Fulfillments[len(o.Fulfillments)-1], true
}

// OrderLine — строка заказа. FulfilledQuantity суммирована по всем отгрузкам.
type OrderLine struct {
	ID                string         `json:"id"`
	Quantity          int            `json:"quantity"`
	Variant           ProductVariant `json:"variant"`
	FulfilledQuantity int            `json:"fulfilled_quantity"`
}

type ProductVariant struct {
	ID   string `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// Fulfillment — одна отгрузка по заказу.
type Fulfillment struct {
	ID           string           `json:"id"`
	State        FulfillmentState `json:"state"`
	Method       string           `json:"method"`
	TrackingCode string           `json:"tracking_code,omitempty"`
}

type Address struct {
	FullName    string `json:"full_name"`
	Company     string `json:"company"`
	StreetLine1 string `json:"street_line1"`
	StreetLine2 string `json:"street_line2"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
	PhoneNumber string `json:"phone_number"`
}

type Customer struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
}

// Product — товар Order System с вариантами; нужен для проверки маппинга.
type Product struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Slug     string           `json:"slug"`
	Variants []ProductVariant `json:"variants"`
}
