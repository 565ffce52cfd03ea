package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_aggregator/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type stubPortfolioService struct {
	snapshot      *entity.Snapshot
	portfolio     *entity.WalletPortfolio
	portfolioErr  error
	portfolios    []entity.WalletPortfolio
	serviceErrors []entity.PortfolioError
	nfts          []entity.NftRecord
	nftsErr       error
}

func (s *stubPortfolioService) LoadSnapshot(context.Context, string) (*entity.Snapshot, error) {
	return s.snapshot, nil
}

func (s *stubPortfolioService) FetchWalletPortfolio(context.Context, string) (*entity.WalletPortfolio, error) {
	return s.portfolio, s.portfolioErr
}

func (s *stubPortfolioService) FetchAllWalletsPortfolio(context.Context) ([]entity.WalletPortfolio, []entity.PortfolioError) {
	return s.portfolios, s.serviceErrors
}

func (s *stubPortfolioService) FetchWalletNfts(context.Context, string) ([]entity.NftRecord, error) {
	return s.nfts, s.nftsErr
}

func serveRequest(t *testing.T, svc *stubPortfolioService, path string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := SetupRouter(NewPortfolioHandler(svc, nopLogger{}))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestGetPortfolioHandler(t *testing.T) {
	svc := &stubPortfolioService{
		portfolio: &entity.WalletPortfolio{WalletAddress: "Wallet1111", LoadID: "load-1"},
	}

	recorder := serveRequest(t, svc, "/api/v1/portfolio/Wallet1111")
	require.Equal(t, http.StatusOK, recorder.Code)

	var response APIPortfolioResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.NotNil(t, response.Data.Portfolio)
	assert.Equal(t, "Wallet1111", response.Data.Portfolio.WalletAddress)
	assert.Equal(t, "load-1", response.Data.Portfolio.LoadID)
}

func TestGetPortfolioHandlerUpstreamFailure(t *testing.T) {
	svc := &stubPortfolioService{portfolioErr: errors.New("holdings fetch failed on chain solana")}

	recorder := serveRequest(t, svc, "/api/v1/portfolio/Wallet1111")
	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "holdings fetch failed")
}

func TestGetPortfoliosHandlerReportsPartialErrors(t *testing.T) {
	svc := &stubPortfolioService{
		portfolios:    []entity.WalletPortfolio{{WalletAddress: "Wallet1111"}},
		serviceErrors: []entity.PortfolioError{{WalletAddress: "Wallet2222", Message: "node unreachable"}},
	}

	recorder := serveRequest(t, svc, "/api/v1/portfolios")
	require.Equal(t, http.StatusOK, recorder.Code)

	var response APIPortfoliosResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Len(t, response.Data.Portfolios, 1)
	require.Len(t, response.ServiceErrors, 1)
	assert.Equal(t, "Wallet2222", response.ServiceErrors[0].WalletAddress)
	assert.Contains(t, response.StatusMessage, "Some wallets encountered errors")
}

func TestGetNftsHandler(t *testing.T) {
	svc := &stubPortfolioService{
		nfts: []entity.NftRecord{
			{ChainIdentifier: "solana", AccountAddress: "Acc1", Mint: "MintA", Status: entity.NftResolved},
			{ChainIdentifier: "solana", AccountAddress: "Acc2", Mint: "MintB", Status: entity.NftNoMetadata},
		},
	}

	recorder := serveRequest(t, svc, "/api/v1/portfolio/Wallet1111/nfts")
	require.Equal(t, http.StatusOK, recorder.Code)

	var response APINftsResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Len(t, response.Data.Nfts, 2)
	assert.Equal(t, entity.NftResolved, response.Data.Nfts[0].Status)
	assert.Equal(t, entity.NftNoMetadata, response.Data.Nfts[1].Status)
}

func TestHealthz(t *testing.T) {
	recorder := serveRequest(t, &stubPortfolioService{}, "/healthz")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "ok")
}
