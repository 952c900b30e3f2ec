package orderapi

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []graphQLError `json:"errors,omitempty"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// flexInt принимает число или строку; всё, что не парсится или не конечно,
// становится нулём.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = 0
		return nil
	}
	switch {
	case v <= 0:
		*f = 0
	case v >= math.MaxInt32:
		*f = math.MaxInt32
	default:
		*f = flexInt(int(v))
	}
	return nil
}

type currentUserResult struct {
	Typename   string `json:"__typename"`
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	ErrorCode  string `json:"errorCode"`
	Message    string `json:"message"`
}

type loginData struct {
	Login currentUserResult `json:"login"`
}

type customerDTO struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress"`
	PhoneNumber  string `json:"phoneNumber"`
}

type addressDTO struct {
	FullName    string `json:"fullName"`
	Company     string `json:"company"`
	StreetLine1 string `json:"streetLine1"`
	StreetLine2 string `json:"streetLine2"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
	PhoneNumber string `json:"phoneNumber"`
}

type variantDTO struct {
	ID   string `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

type orderLineDTO struct {
	ID             string     `json:"id"`
	Quantity       flexInt    `json:"quantity"`
	ProductVariant variantDTO `json:"productVariant"`
}

type fulfillmentLineDTO struct {
	OrderLineID string  `json:"orderLineId"`
	Quantity    flexInt `json:"quantity"`
}

type fulfillmentDTO struct {
	ID           string               `json:"id"`
	State        string               `json:"state"`
	Method       string               `json:"method"`
	TrackingCode string               `json:"trackingCode"`
	CreatedAt    string               `json:"createdAt"`
	Lines        []fulfillmentLineDTO `json:"lines"`
}

type orderDTO struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	State           string           `json:"state"`
	CreatedAt       string           `json:"createdAt"`
	Customer        *customerDTO     `json:"customer"`
	ShippingAddress *addressDTO      `json:"shippingAddress"`
	Lines           []orderLineDTO   `json:"lines"`
	Fulfillments    []fulfillmentDTO `json:"fulfillments"`
}

type orderListData struct {
	Orders struct {
		Items      []orderDTO `json:"items"`
		TotalItems int        `json:"totalItems"`
	} `json:"orders"`
}

type mutationFieldsData struct {
	Type *struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	} `json:"__type"`
}

// fulfillmentResultDTO — плоское представление union-результата мутаций
// отгрузки: Fulfillment | ErrorResult | FulfillmentStateTransitionError.
type fulfillmentResultDTO struct {
	Typename        string `json:"__typename"`
	ID              string `json:"id"`
	State           string `json:"state"`
	Method          string `json:"method"`
	TrackingCode    string `json:"trackingCode"`
	ErrorCode       string `json:"errorCode"`
	Message         string `json:"message"`
	TransitionError string `json:"transitionError"`
	FromState       string `json:"fromState"`
	ToState         string `json:"toState"`
}

type productDTO struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Slug     string       `json:"slug"`
	Variants []variantDTO `json:"variants"`
}

type productData struct {
	Product *productDTO `json:"product"`
}

// resultData разбирает {"<field>": {...}} без отдельного типа на каждую мутацию.
func resultData(raw json.RawMessage, field string) (fulfillmentResultDTO, error) {
	var wrapper map[string]fulfillmentResultDTO
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return fulfillmentResultDTO{}, err
	}
	return wrapper[field], nil
}
