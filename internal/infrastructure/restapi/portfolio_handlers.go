package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// APIPortfoliosResponse is the envelope of the bootstrap endpoint.
type APIPortfoliosResponse struct {
	Data struct {
		Portfolios []entity.WalletPortfolio `json:"portfolios"`
	} `json:"data"`
	ServiceErrors []entity.PortfolioError `json:"service_errors,omitempty"`
	StatusMessage string                  `json:"status_message"`
}

// APIPortfolioResponse is the envelope of the single-wallet endpoint.
type APIPortfolioResponse struct {
	Data struct {
		Portfolio *entity.WalletPortfolio `json:"portfolio"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// APINftsResponse is the envelope of the NFT endpoint.
type APINftsResponse struct {
	Data struct {
		Nfts []entity.NftRecord `json:"nfts"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// PortfolioHandler handles portfolio-related HTTP requests.
type PortfolioHandler struct {
	portfolioService port.PortfolioService
	logger           port.Logger
}

// NewPortfolioHandler creates a new PortfolioHandler instance.
func NewPortfolioHandler(ps port.PortfolioService, logger port.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: ps,
		logger:           logger,
	}
}

// GetPortfoliosHandler serves the bootstrap view: portfolios for every
// tracked wallet. Per-wallet failures go into service_errors, the endpoint
// itself stays 200 as long as it produced a response.
func (h *PortfolioHandler) GetPortfoliosHandler(c *gin.Context) {
	portfolios, serviceErrors := h.portfolioService.FetchAllWalletsPortfolio(c.Request.Context())

	var response APIPortfoliosResponse
	response.Data.Portfolios = portfolios
	response.ServiceErrors = serviceErrors

	switch {
	case len(serviceErrors) > 0 && len(portfolios) == 0:
		response.StatusMessage = "Failed to retrieve any portfolios due to service errors."
	case len(serviceErrors) > 0:
		response.StatusMessage = "Portfolios retrieved. Some wallets encountered errors."
	case len(portfolios) == 0:
		response.StatusMessage = "No portfolio data found. Check the tracked wallet list and chain configuration."
	default:
		response.StatusMessage = "Portfolios retrieved successfully."
	}

	c.JSON(http.StatusOK, response)
}

// GetPortfolioHandler serves one wallet's portfolio, loaded fresh. A failed
// load is an upstream failure, not a client error.
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	walletAddress := c.Param("address")
	if walletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet address is required"})
		return
	}

	portfolio, err := h.portfolioService.FetchWalletPortfolio(c.Request.Context(), walletAddress)
	if err != nil {
		h.logger.Error("Portfolio load failed", "wallet", walletAddress, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	var response APIPortfolioResponse
	response.Data.Portfolio = portfolio
	response.StatusMessage = "Portfolio retrieved successfully."
	c.JSON(http.StatusOK, response)
}

// GetNftsHandler serves the wallet's NFT metadata records. Resolution is
// best-effort per record; only a failed holdings fetch fails the endpoint.
func (h *PortfolioHandler) GetNftsHandler(c *gin.Context) {
	walletAddress := c.Param("address")
	if walletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet address is required"})
		return
	}

	records, err := h.portfolioService.FetchWalletNfts(c.Request.Context(), walletAddress)
	if err != nil {
		h.logger.Error("NFT resolution failed", "wallet", walletAddress, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	var response APINftsResponse
	response.Data.Nfts = records
	response.StatusMessage = "NFT metadata retrieved successfully."
	c.JSON(http.StatusOK, response)
}
