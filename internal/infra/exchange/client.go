package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"grid_go/internal/domain"
	"grid_go/internal/infra"
)

// Client is the exchange V2 REST API client (boundary layer).
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *Signer
	logger     *slog.Logger
}

// NewClient creates a new exchange API client.
func NewClient(cfg *infra.Config) *Client {
	signer := NewSigner(
		cfg.Gateway.AccessKey,
		cfg.Gateway.SecretKey,
		cfg.Gateway.Passphrase,
	)

	return &Client{
		baseURL: cfg.Gateway.RestURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		signer: signer,
		logger: slog.Default().With("module", "exchange_client"),
	}
}

type placeOrderRequest struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`      // buy, sell
	OrderType     string `json:"orderType"` // limit, market
	Force         string `json:"force"`     // normal
	Price         string `json:"price,omitempty"`
	Size          string `json:"size"`
	ClientOrderId string `json:"clientOid"`
}

// PlaceOrder sends an order to the exchange. Prices and sizes cross the
// boundary as strings.
func (c *Client) PlaceOrder(ctx context.Context, order domain.Order) error {
	priceStr := strconv.FormatFloat(order.Price, 'f', 6, 64)
	sizeStr := strconv.FormatFloat(order.Volume, 'f', 8, 64)

	side := "buy"
	if order.Side == domain.SideSell {
		side = "sell"
	}

	reqBody := placeOrderRequest{
		Symbol:        order.Symbol,
		Side:          side,
		OrderType:     "limit",
		Force:         "normal",
		Price:         priceStr,
		Size:          sizeStr,
		ClientOrderId: order.ID,
	}

	if order.Type == domain.OrderTypeMarket {
		reqBody.OrderType = "market"
		reqBody.Price = ""
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v2/spot/trade/place-order", "", reqBody)
	if err != nil {
		return domain.NewNetworkError("place-order", err)
	}
	defer resp.Body.Close()

	return parseAPIResponse(resp, func() {
		c.logger.Info("Order Placed Successfully", "oid", order.ID, "symbol", order.Symbol)
	})
}

// CancelOrder sends a cancel request for one order.
func (c *Client) CancelOrder(ctx context.Context, orderID string, symbol string) error {
	reqBody := map[string]string{
		"symbol":    symbol,
		"clientOid": orderID,
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v2/spot/trade/cancel-order", "", reqBody)
	if err != nil {
		return domain.NewNetworkError("cancel-order", err)
	}
	defer resp.Body.Close()

	return parseAPIResponse(resp, nil)
}

// CancelSymbolOrders cancels every open order for a symbol.
func (c *Client) CancelSymbolOrders(ctx context.Context, symbol string) error {
	reqBody := map[string]string{
		"symbol": symbol,
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v2/spot/trade/cancel-symbol-order", "", reqBody)
	if err != nil {
		return domain.NewNetworkError("cancel-symbol-orders", err)
	}
	defer resp.Body.Close()

	return parseAPIResponse(resp, nil)
}

type assetEntry struct {
	Coin      string `json:"coin"`
	Available string `json:"available"`
	Frozen    string `json:"frozen"`
}

// FetchAsset returns the total holding of one coin (available + frozen).
func (c *Client) FetchAsset(ctx context.Context, coin string) (float64, error) {
	query := "coin=" + coin
	resp, err := c.doRequest(ctx, "GET", "/api/v2/spot/account/assets", query, nil)
	if err != nil {
		return 0, domain.NewNetworkError("fetch-asset", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Code string       `json:"code"`
		Msg  string       `json:"msg"`
		Data []assetEntry `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return 0, fmt.Errorf("failed to parse asset response: %w", err)
	}
	if apiResp.Code != "00000" {
		return 0, fmt.Errorf("exchange business error: code=%s msg=%s", apiResp.Code, apiResp.Msg)
	}

	for _, entry := range apiResp.Data {
		if entry.Coin != coin {
			continue
		}
		available, _ := strconv.ParseFloat(entry.Available, 64)
		frozen, _ := strconv.ParseFloat(entry.Frozen, 64)
		return available + frozen, nil
	}
	return 0, nil
}

// FillRecord is one executed trade as reported by the fills endpoint.
type FillRecord struct {
	TradeID   string
	OrderID   string
	Direction string // domain.SideBuy or domain.SideSell
	Price     float64
	Volume    float64
	Ts        int64
}

type fillEntry struct {
	TradeID  string `json:"tradeId"`
	OrderID  string `json:"orderId"`
	Side     string `json:"side"` // buy, sell
	PriceAvg string `json:"priceAvg"`
	Size     string `json:"size"`
	CTime    string `json:"cTime"`
}

// FetchFills returns the executed trades for a symbol since startTime
// (Unix milliseconds). The boundary may return trades at exactly
// startTime again; callers dedupe on TradeID.
func (c *Client) FetchFills(ctx context.Context, symbol string, startTime int64) ([]FillRecord, error) {
	query := "symbol=" + symbol + "&startTime=" + strconv.FormatInt(startTime, 10)
	resp, err := c.doRequest(ctx, "GET", "/api/v2/spot/trade/fills", query, nil)
	if err != nil {
		return nil, domain.NewNetworkError("fetch-fills", err)
	}
	defer resp.Body.Close()

	var data []fillEntry
	if err := decodeAPIData(resp, &data); err != nil {
		return nil, err
	}

	fills := make([]FillRecord, 0, len(data))
	for _, entry := range data {
		direction := domain.SideBuy
		if entry.Side == "sell" {
			direction = domain.SideSell
		}
		price, _ := strconv.ParseFloat(entry.PriceAvg, 64)
		volume, _ := strconv.ParseFloat(entry.Size, 64)
		ts, _ := strconv.ParseInt(entry.CTime, 10, 64)
		fills = append(fills, FillRecord{
			TradeID:   entry.TradeID,
			OrderID:   entry.OrderID,
			Direction: direction,
			Price:     price,
			Volume:    volume,
			Ts:        ts,
		})
	}
	return fills, nil
}

// FetchOpenOrders returns the client order ids of still-unfilled orders.
func (c *Client) FetchOpenOrders(ctx context.Context, symbol string) ([]string, error) {
	query := "symbol=" + symbol
	resp, err := c.doRequest(ctx, "GET", "/api/v2/spot/trade/unfilled-orders", query, nil)
	if err != nil {
		return nil, domain.NewNetworkError("fetch-open-orders", err)
	}
	defer resp.Body.Close()

	var data []struct {
		ClientOid string `json:"clientOid"`
	}
	if err := decodeAPIData(resp, &data); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(data))
	for _, entry := range data {
		ids = append(ids, entry.ClientOid)
	}
	return ids, nil
}

// OrderInfo is the terminal-state view of one order.
type OrderInfo struct {
	ClientOID string
	Status    string // live, partially_filled, filled, cancelled
}

// FetchOrderInfo looks up one order by client order id.
func (c *Client) FetchOrderInfo(ctx context.Context, clientOID string) (OrderInfo, error) {
	query := "clientOid=" + clientOID
	resp, err := c.doRequest(ctx, "GET", "/api/v2/spot/trade/orderInfo", query, nil)
	if err != nil {
		return OrderInfo{}, domain.NewNetworkError("fetch-order-info", err)
	}
	defer resp.Body.Close()

	var data []struct {
		ClientOid string `json:"clientOid"`
		Status    string `json:"status"`
	}
	if err := decodeAPIData(resp, &data); err != nil {
		return OrderInfo{}, err
	}
	if len(data) == 0 {
		return OrderInfo{}, fmt.Errorf("order not found: %s", clientOID)
	}
	return OrderInfo{ClientOID: data[0].ClientOid, Status: data[0].Status}, nil
}

// decodeAPIData maps the business error code and unmarshals the data field.
func decodeAPIData(resp *http.Response, out interface{}) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Code string          `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if apiResp.Code != "00000" {
		return fmt.Errorf("exchange business error: code=%s msg=%s", apiResp.Code, apiResp.Msg)
	}
	return json.Unmarshal(apiResp.Data, out)
}

// parseAPIResponse drains the response and maps the business error code.
func parseAPIResponse(resp *http.Response, onSuccess func()) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Code string          `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if apiResp.Code != "00000" {
		return fmt.Errorf("exchange business error: code=%s msg=%s", apiResp.Code, apiResp.Msg)
	}

	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

// doRequest handles auth headers and serialization
func (c *Client) doRequest(ctx context.Context, method, path, query string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBytes)
		bodyStr = string(jsonBytes)
	}

	reqURL := c.baseURL + path
	if query != "" {
		reqURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, err
	}

	headers := c.signer.GenerateHeaders(method, path, query, bodyStr)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.httpClient.Do(req)
}
