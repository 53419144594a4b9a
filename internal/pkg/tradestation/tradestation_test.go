// Copyright 2026 Peter Edge
//
// All rights reserved.

package tradestation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bufdev/tsctl/internal/standard/xtime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const tradesResponse = `{
  "data": {
    "getHistoricalFuturesTransactions": {
      "Transactions": [
        {
          "Details": {
            "Transactions": [
              {
                "AccountId": "11111111",
                "Contract": " ESH24 ",
                "TradeDate": "2024-01-05T00:00:00Z",
                "Buy": 1,
                "Sell": null,
                "Price": 4800.25,
                "Currency": "USD",
                "ExchangeClearingFees": 1.38,
                "NfaFee": 0.02,
                "CommissionUSD": 0.85
              }
            ]
          }
        },
        {
          "Details": {
            "Transactions": [
              {
                "AccountId": "11111111",
                "Contract": "NQH24",
                "TradeDate": "2024-01-04T00:00:00Z",
                "Sell": 2,
                "Price": "16800.5",
                "Currency": "USD"
              }
            ]
          }
        },
        {
          "Details": null
        }
      ]
    }
  }
}`

func TestFetchTrades(t *testing.T) {
	t.Parallel()
	var request graphQLRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get(requestIDHeader))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		_, _ = io.WriteString(w, tradesResponse)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(server)

	rows, err := client.FetchTrades(context.Background(), "secret", "11111111", date(2024, 1, 1), date(2024, 2, 29))
	require.NoError(t, err)

	// Verify the request variables.
	require.Equal(t, operationName, request.OperationName)
	require.Equal(t, "11111111", request.Variables.AccountID)
	require.Equal(t, "2024-01-01T00:00:00.000Z", request.Variables.DateFrom)
	require.Equal(t, "2024-02-29T23:59:59.000Z", request.Variables.DateTo)
	require.Equal(t, TransactionTypeTrade, request.Variables.TransactionType)
	require.Equal(t, "TransactionDate", request.Variables.OrderBy)
	require.Equal(t, "Descending", request.Variables.SortOrder)
	require.Contains(t, request.Query, "getHistoricalFuturesTransactions(")
	require.Contains(t, request.Query, "CommissionUSD")

	// Verify the rows were flattened across detail groups.
	require.Len(t, rows, 2)
	first := rows[0]
	require.Equal(t, "11111111", first.AccountID)
	require.Equal(t, " ESH24 ", first.Contract)
	require.Equal(t, "2024-01-05T00:00:00Z", first.TradeDate)
	require.True(t, first.Buy.Valid)
	require.True(t, first.Buy.Decimal.Equal(decimal.NewFromInt(1)))
	require.False(t, first.Sell.Valid)
	require.True(t, first.Price.Decimal.Equal(decimal.RequireFromString("4800.25")))
	require.True(t, first.ExchangeClearingFees.Decimal.Equal(decimal.RequireFromString("1.38")))
	require.True(t, first.NFAFee.Decimal.Equal(decimal.RequireFromString("0.02")))
	second := rows[1]
	require.False(t, second.Buy.Valid)
	require.True(t, second.Price.Decimal.Equal(decimal.RequireFromString("16800.5")))
	require.False(t, second.CommissionUSD.Valid)
}

func TestFetchCash(t *testing.T) {
	t.Parallel()
	var request graphQLRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		_, _ = io.WriteString(w, `{"data":{"getHistoricalFuturesTransactions":{"Transactions":[{"Details":{"Transactions":[
			{"AccountId":"11111111","PostingDate":"2024-01-31","Description":"WIRE IN","Credit":5000,"Currency":"USD"}
		]}}]}}}`)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(server)

	rows, err := client.FetchCash(context.Background(), "secret", "11111111", date(2024, 1, 1), date(2024, 3, 1))
	require.NoError(t, err)
	require.Equal(t, TransactionTypeCash, request.Variables.TransactionType)
	require.Contains(t, request.Query, "PostingDate")
	require.NotContains(t, request.Query, "CommissionUSD")
	require.Len(t, rows, 1)
	require.Equal(t, "11111111", rows[0].AccountID)
	require.Equal(t, "WIRE IN", rows[0].Description)
	require.False(t, rows[0].Debit.Valid)
	require.True(t, rows[0].Credit.Decimal.Equal(decimal.NewFromInt(5000)))
}

func TestFetchEmptyResult(t *testing.T) {
	t.Parallel()
	for _, body := range []string{
		`{"data":{"getHistoricalFuturesTransactions":{"Transactions":null}}}`,
		`{"data":{"getHistoricalFuturesTransactions":{"Transactions":[]}}}`,
		`{"data":{"getHistoricalFuturesTransactions":{}}}`,
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		}))
		rows, err := newTestClient(server).FetchTrades(context.Background(), "secret", "1", date(2024, 1, 1), date(2024, 1, 2))
		server.Close()
		require.NoError(t, err, body)
		require.NotNil(t, rows, body)
		require.Empty(t, rows, body)
	}
}

func TestFetchProtocolError(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		desc         string
		status       int
		body         string
		wantMessages []string
		wantErr      bool
	}{
		{
			desc:         "missing envelope with graphql errors",
			status:       http.StatusOK,
			body:         `{"errors":[{"message":"unauthorized"}],"data":null}`,
			wantMessages: []string{"unauthorized"},
		},
		{
			desc:   "missing result key",
			status: http.StatusOK,
			body:   `{"data":{}}`,
		},
		{
			desc:   "non-ok status",
			status: http.StatusUnauthorized,
			body:   `{"message":"token expired"}`,
		},
		{
			desc:    "not json",
			status:  http.StatusOK,
			body:    `<html>bad gateway</html>`,
			wantErr: true,
		},
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(test.status)
			_, _ = io.WriteString(w, test.body)
		}))
		_, err := newTestClient(server).FetchTrades(context.Background(), "secret", "1", date(2024, 1, 1), date(2024, 1, 2))
		server.Close()
		var protocolError *ProtocolError
		require.True(t, errors.As(err, &protocolError), test.desc)
		require.Equal(t, test.status, protocolError.StatusCode, test.desc)
		require.Equal(t, test.body, string(protocolError.Body), test.desc)
		require.Equal(t, len(test.wantMessages), len(protocolError.Messages), test.desc)
		require.Equal(t, test.wantErr, protocolError.Err != nil, test.desc)
		require.Contains(t, err.Error(), "invalid response from API", test.desc)
	}
}

func TestFetchValidation(t *testing.T) {
	t.Parallel()
	client := NewClient(discardLogger())
	_, err := client.FetchTrades(context.Background(), "", "1", date(2024, 1, 1), date(2024, 1, 2))
	require.Error(t, err)
	_, err = client.FetchCash(context.Background(), "secret", "", date(2024, 1, 1), date(2024, 1, 2))
	require.Error(t, err)
	_, err = client.FetchTrades(context.Background(), "secret", "1", date(2024, 1, 2), date(2024, 1, 1))
	require.Error(t, err)
}

func TestFormatWire(t *testing.T) {
	t.Parallel()
	require.Equal(t, "2024-03-31T00:00:00.000Z", FormatWireFrom(date(2024, 3, 31)))
	require.Equal(t, "2024-03-31T23:59:59.000Z", FormatWireTo(date(2024, 3, 31)))
}

func newTestClient(server *httptest.Server) Client {
	return NewClient(
		discardLogger(),
		ClientWithHTTPClient(server.Client()),
		ClientWithEndpoint(server.URL),
	)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(year int, month int, day int) xtime.Date {
	return xtime.Date{Year: year, Month: time.Month(month), Day: day}
}
