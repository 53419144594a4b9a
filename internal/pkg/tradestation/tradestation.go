// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tradestation provides an API client for the TradeStation historical
// futures transactions GraphQL endpoint.
//
// Every call is a single bearer-authenticated POST of the
// FetchHistoricalFuturesTransactions operation for one account, one date
// window, and one transaction type. The endpoint treats dateFrom and dateTo as
// inclusive instants, so the client widens the requested dates to whole UTC
// days: the from date starts at 00:00:00.000Z and the to date ends at
// 23:59:59.000Z.
//
// The response nests rows two levels deep:
//
//	data.getHistoricalFuturesTransactions.Transactions[].Details.Transactions[]
//
// A response without data.getHistoricalFuturesTransactions is a *ProtocolError.
// A missing or empty Transactions list is an empty result.
package tradestation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bufdev/tsctl/internal/standard/xtime"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultEndpoint is the TradeStation live GraphQL endpoint.
	DefaultEndpoint = "https://api.tradestation.com/graphql/v1/live/graphql"
	// operationName is the GraphQL operation issued for every request.
	operationName = "FetchHistoricalFuturesTransactions"
	// orderBy is the remote ordering field. Callers must not rely on it.
	orderBy = "TransactionDate"
	// sortOrder is the remote ordering direction. Callers must not rely on it.
	sortOrder = "Descending"
	// wireTimeLayout matches JavaScript's Date.prototype.toISOString.
	wireTimeLayout = "2006-01-02T15:04:05.000Z07:00"
	// requestIDHeader carries a per-request id for log correlation.
	requestIDHeader = "x-request-id"
)

// TransactionType is the remote transaction type of a request.
type TransactionType string

const (
	// TransactionTypeTrade selects trade executions.
	TransactionTypeTrade TransactionType = "Trade"
	// TransactionTypeCash selects cash ledger movements.
	TransactionTypeCash TransactionType = "Cash"
)

// Client is the interface for fetching historical futures transactions.
type Client interface {
	// FetchTrades fetches the trade executions of one account between
	// fromDate and toDate, both inclusive on the wire.
	//
	// Returns an empty slice if the account has no trades in the window.
	FetchTrades(ctx context.Context, token string, accountID string, fromDate xtime.Date, toDate xtime.Date) ([]TradeRow, error)
	// FetchCash fetches the cash transactions of one account between
	// fromDate and toDate, both inclusive on the wire.
	//
	// Returns an empty slice if the account has no cash transactions in the window.
	FetchCash(ctx context.Context, token string, accountID string, fromDate xtime.Date, toDate xtime.Date) ([]CashRow, error)
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*client)

// ClientWithHTTPClient sets the HTTP client to use for requests.
func ClientWithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// ClientWithEndpoint sets the GraphQL endpoint URL.
//
// The default is DefaultEndpoint.
func ClientWithEndpoint(endpoint string) ClientOption {
	return func(c *client) {
		c.endpoint = endpoint
	}
}

// NewClient creates a new TradeStation API client. The logger is required.
func NewClient(logger *slog.Logger, options ...ClientOption) Client {
	c := &client{
		httpClient: http.DefaultClient,
		logger:     logger,
		endpoint:   DefaultEndpoint,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// TradeRow is a trade execution as returned by the API.
//
// Numeric fields are absent (Valid == false) when the API returns null or omits them.
type TradeRow struct {
	AccountID            string              `json:"AccountId"`
	Contract             string              `json:"Contract"`
	TradeDate            string              `json:"TradeDate"`
	Buy                  decimal.NullDecimal `json:"Buy"`
	Sell                 decimal.NullDecimal `json:"Sell"`
	Price                decimal.NullDecimal `json:"Price"`
	Currency             string              `json:"Currency"`
	ExchangeClearingFees decimal.NullDecimal `json:"ExchangeClearingFees"`
	NFAFee               decimal.NullDecimal `json:"NfaFee"`
	CommissionUSD        decimal.NullDecimal `json:"CommissionUSD"`
}

// CashRow is a cash ledger movement as returned by the API.
type CashRow struct {
	AccountID   string              `json:"AccountId"`
	PostingDate string              `json:"PostingDate"`
	Description string              `json:"Description"`
	Debit       decimal.NullDecimal `json:"Debit"`
	Credit      decimal.NullDecimal `json:"Credit"`
	Currency    string              `json:"Currency"`
}

// ProtocolError is returned when the API response is not the expected envelope.
//
// Body holds the raw response for diagnostics.
type ProtocolError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Body is the raw response body.
	Body []byte
	// Messages are the GraphQL error messages, if the response carried any.
	Messages []string
	// Err is the decoding error, if the body was not valid JSON.
	Err error
}

// Error implements error.
func (e *ProtocolError) Error() string {
	var builder strings.Builder
	builder.WriteString("invalid response from API")
	if e.StatusCode != http.StatusOK {
		fmt.Fprintf(&builder, " (status %d)", e.StatusCode)
	}
	if len(e.Messages) > 0 {
		builder.WriteString(": ")
		builder.WriteString(strings.Join(e.Messages, "; "))
	}
	if e.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Err.Error())
	}
	builder.WriteString(":\n")
	var indented bytes.Buffer
	if err := json.Indent(&indented, e.Body, "", "  "); err == nil {
		builder.Write(indented.Bytes())
	} else {
		builder.Write(e.Body)
	}
	return builder.String()
}

// Unwrap returns the decoding error, if any.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// FormatWireFrom formats the start of the from date as sent to the API.
func FormatWireFrom(fromDate xtime.Date) string {
	return fromDate.In(time.UTC).Format(wireTimeLayout)
}

// FormatWireTo formats the end of the to date as sent to the API.
func FormatWireTo(toDate xtime.Date) string {
	return time.Date(toDate.Year, toDate.Month, toDate.Day, 23, 59, 59, 0, time.UTC).Format(wireTimeLayout)
}

// *** PRIVATE ***

// tradeFields are the detail fields requested for trade transactions.
var tradeFields = []string{
	"AccountId",
	"Contract",
	"TradeDate",
	"Buy",
	"Sell",
	"Price",
	"Currency",
	"ExchangeClearingFees",
	"NfaFee",
	"CommissionUSD",
}

// cashFields are the detail fields requested for cash transactions.
var cashFields = []string{
	"AccountId",
	"PostingDate",
	"Description",
	"Debit",
	"Credit",
	"Currency",
}

// queryTemplate is the GraphQL document. The single verb is the detail field list.
const queryTemplate = `query FetchHistoricalFuturesTransactions($accountId: String!, $dateFrom: Date!, $dateTo: Date!, $transactionType: HistoricalFuturesTransactionType!, $orderBy: HistoricalFuturesTransactionOrderBy!, $sortOrder: HistoricalFuturesTransactionSortOrder!) {
  getHistoricalFuturesTransactions(
    accountId: $accountId
    dateFrom: $dateFrom
    dateTo: $dateTo
    transactionType: $transactionType
    orderBy: $orderBy
    sortOrder: $sortOrder
  ) {
    Transactions {
      Details {
        Transactions {
          %s
        }
      }
    }
  }
}`

type client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
}

// graphQLRequest is the JSON body of a request.
type graphQLRequest struct {
	OperationName string           `json:"operationName"`
	Variables     graphQLVariables `json:"variables"`
	Query         string           `json:"query"`
}

// graphQLVariables are the typed variables of the operation.
type graphQLVariables struct {
	AccountID       string          `json:"accountId"`
	DateFrom        string          `json:"dateFrom"`
	DateTo          string          `json:"dateTo"`
	TransactionType TransactionType `json:"transactionType"`
	OrderBy         string          `json:"orderBy"`
	SortOrder       string          `json:"sortOrder"`
}

// graphQLResponse is the JSON envelope of a response.
type graphQLResponse[R any] struct {
	Data *struct {
		Result *struct {
			Transactions []struct {
				Details *struct {
					Transactions []R `json:"Transactions"`
				} `json:"Details"`
			} `json:"Transactions"`
		} `json:"getHistoricalFuturesTransactions"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *client) FetchTrades(ctx context.Context, token string, accountID string, fromDate xtime.Date, toDate xtime.Date) ([]TradeRow, error) {
	return fetch[TradeRow](ctx, c, token, accountID, fromDate, toDate, TransactionTypeTrade, tradeFields)
}

func (c *client) FetchCash(ctx context.Context, token string, accountID string, fromDate xtime.Date, toDate xtime.Date) ([]CashRow, error) {
	return fetch[CashRow](ctx, c, token, accountID, fromDate, toDate, TransactionTypeCash, cashFields)
}

// fetch issues one request and flattens the nested detail rows.
func fetch[R any](
	ctx context.Context,
	c *client,
	token string,
	accountID string,
	fromDate xtime.Date,
	toDate xtime.Date,
	transactionType TransactionType,
	fields []string,
) ([]R, error) {
	// Validate required parameters.
	if token == "" {
		return nil, errors.New("token is required")
	}
	if accountID == "" {
		return nil, errors.New("account ID is required")
	}
	if toDate.Before(fromDate) {
		return nil, fmt.Errorf("to date %s is before from date %s", toDate, fromDate)
	}
	requestBody, err := json.Marshal(
		&graphQLRequest{
			OperationName: operationName,
			Variables: graphQLVariables{
				AccountID:       accountID,
				DateFrom:        FormatWireFrom(fromDate),
				DateTo:          FormatWireTo(toDate),
				TransactionType: transactionType,
				OrderBy:         orderBy,
				SortOrder:       sortOrder,
			},
			Query: fmt.Sprintf(queryTemplate, strings.Join(fields, "\n          ")),
		},
	)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	c.logger.Debug(
		"graphql request",
		"request_id", requestID,
		"account_id", accountID,
		"transaction_type", string(transactionType),
		"from", fromDate.String(),
		"to", toDate.String(),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("graphql response", "request_id", requestID, "status", resp.StatusCode, "bytes", len(body))
	if resp.StatusCode != http.StatusOK {
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Body: body}
	}
	var response graphQLResponse[R]
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Body: body, Err: err}
	}
	// The result envelope must be present, even when there are no rows.
	if response.Data == nil || response.Data.Result == nil {
		messages := make([]string, 0, len(response.Errors))
		for _, graphQLError := range response.Errors {
			messages = append(messages, graphQLError.Message)
		}
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Body: body, Messages: messages}
	}
	rows := make([]R, 0)
	for _, transaction := range response.Data.Result.Transactions {
		if transaction.Details == nil {
			continue
		}
		rows = append(rows, transaction.Details.Transactions...)
	}
	return rows, nil
}
