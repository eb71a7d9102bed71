package facades

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	pb "github.com/sbilibin2017/proto-exchange/exchange"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const fxKeyPrefix = "fx"

// FXQuoteKey returns the quote key of a currency pair, e.g. "fx-usd-rub".
func FXQuoteKey(from, to string) string {
	return fmt.Sprintf("%s-%s-%s", fxKeyPrefix, strings.ToLower(from), strings.ToLower(to))
}

func parseFXKey(key string) (from, to string, ok bool) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 || parts[0] != fxKeyPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return strings.ToUpper(parts[1]), strings.ToUpper(parts[2]), true
}

// ExchangeRatesGRPCFacade serves currency pair quotes from the exchanger over gRPC.
type ExchangeRatesGRPCFacade struct {
	client pb.ExchangeServiceClient
}

// NewExchangeRatesGRPCFacade creates a new facade with a gRPC client.
func NewExchangeRatesGRPCFacade(client pb.ExchangeServiceClient) *ExchangeRatesGRPCFacade {
	return &ExchangeRatesGRPCFacade{client: client}
}

// Fetch returns the rate for a key built by FXQuoteKey.
func (f *ExchangeRatesGRPCFacade) Fetch(ctx context.Context, key string) (decimal.Decimal, error) {
	from, to, ok := parseFXKey(key)
	if !ok {
		return decimal.Zero, &models.UpstreamError{
			Source:     "exchanger",
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("malformed currency pair key %q", key),
		}
	}

	rate, err := f.GetExchangeRateForCurrency(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat32(rate), nil
}

// GetExchangeRateForCurrency fetches exchange rate between two currencies.
// gRPC failures are returned as *models.UpstreamError.
func (f *ExchangeRatesGRPCFacade) GetExchangeRateForCurrency(ctx context.Context, fromCurrency, toCurrency string) (float32, error) {
	req := &pb.CurrencyRequest{
		FromCurrency: fromCurrency,
		ToCurrency:   toCurrency,
	}

	resp, err := f.client.GetExchangeRateForCurrency(ctx, req)
	if err != nil {
		logger.Log.Errorw("failed to fetch exchange rate for currency via gRPC",
			"from", fromCurrency, "to", toCurrency, "error", err)
		return 0, &models.UpstreamError{
			Source:     "exchanger",
			StatusCode: httpStatusFromCode(status.Code(err)),
			Err:        err,
		}
	}

	return resp.Rate, nil
}

func httpStatusFromCode(c codes.Code) int {
	switch c {
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
