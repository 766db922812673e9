package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kon-rad/juego-sub000/internal/http/response"
	"github.com/kon-rad/juego-sub000/internal/services"
)

type BlockchainHandler struct {
	chain services.BlockchainService
}

func NewBlockchainHandler(chain services.BlockchainService) *BlockchainHandler {
	return &BlockchainHandler{chain: chain}
}

// GET /api/blockchain/stats
func (h *BlockchainHandler) Stats(c *gin.Context) {
	st, err := h.chain.Stats(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "stats_failed")
		return
	}
	response.RespondOK(c, st)
}

// GET /api/blockchain/nfts/total
func (h *BlockchainHandler) TotalNFTs(c *gin.Context) {
	n, err := h.chain.TotalNFTs(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "total_nfts_failed")
		return
	}
	response.RespondOK(c, gin.H{"totalNFTs": n})
}

// GET /api/blockchain/tokens/total
func (h *BlockchainHandler) TotalTokens(c *gin.Context) {
	total, err := h.chain.TotalTokens(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "total_tokens_failed")
		return
	}
	response.RespondOK(c, gin.H{"totalTokens": total})
}

// GET /api/blockchain/player/:address
func (h *BlockchainHandler) PlayerBalances(c *gin.Context) {
	b, err := h.chain.PlayerBalances(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.RespondAPIError(c, err, "player_balances_failed")
		return
	}
	response.RespondOK(c, b)
}

type mintTokensReq struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

// POST /api/blockchain/mint/tokens
func (h *BlockchainHandler) MintTokens(c *gin.Context) {
	var req mintTokensReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	r, err := h.chain.MintTokens(c.Request.Context(), req.Address, req.Amount)
	if err != nil {
		response.RespondAPIError(c, err, "mint_tokens_failed")
		return
	}
	response.RespondOK(c, r)
}

type mintNFTReq struct {
	Address  string `json:"address"`
	TokenURI string `json:"tokenURI"`
}

// POST /api/blockchain/mint/nft
func (h *BlockchainHandler) MintNFT(c *gin.Context) {
	var req mintNFTReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	r, err := h.chain.MintNFT(c.Request.Context(), req.Address, req.TokenURI)
	if err != nil {
		response.RespondAPIError(c, err, "mint_nft_failed")
		return
	}
	response.RespondOK(c, r)
}

type generateWalletReq struct {
	PlayerID string `json:"playerId"`
}

// POST /api/blockchain/wallet/generate
func (h *BlockchainHandler) GenerateWallet(c *gin.Context) {
	var req generateWalletReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	w, err := h.chain.GenerateWallet(c.Request.Context(), req.PlayerID)
	if err != nil {
		response.RespondAPIError(c, err, "generate_wallet_failed")
		return
	}
	response.RespondOK(c, w)
}
