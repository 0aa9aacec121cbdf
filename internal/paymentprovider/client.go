package paymentprovider

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

type Client struct {
	accessToken string
	apiURL      string
	httpClient  *http.Client
}

// NewClient создаёт новый клиент Mercado Pago
func NewClient(accessToken string) *Client {
	return &Client{
		accessToken: accessToken,
		apiURL:      "https://api.mercadopago.com",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreatePreference отправляет запрос на создание платёжной преференции Checkout Pro
func (c *Client) CreatePreference(reqParams CreatePreferenceRequest) (*CreatePreferenceResponse, error) {
	req, err := c.newRequest("POST", "/checkout/preferences", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var prefResp CreatePreferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&prefResp); err != nil {
		return nil, err
	}
	return &prefResp, nil
}

// GetPayment запрашивает состояние платежа по его ID
func (c *Client) GetPayment(paymentID string) (*Payment, error) {
	req, err := c.newRequest("GET", "/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPaymentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ErrPaymentNotFound платёж не найден у провайдера.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentIDString возвращает строковое представление числового ID платежа.
func PaymentIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
