package handler

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"otc-core/internal/handler/request"
	"otc-core/internal/handler/response"
	"otc-core/internal/otc"
	"otc-core/internal/service"
	"otc-core/pkg/crypto_util"
	"otc-core/pkg/errno"
)

// AdminHandler 管理员接口，调用方必须是引擎 owner，校验在引擎内完成
type AdminHandler struct {
	engine *otc.Engine
}

func NewAdminHandler(engine *otc.Engine) *AdminHandler {
	return &AdminHandler{engine: engine}
}

// RegisterCollection 注册或覆盖集合
// @Summary 注册集合
// @Description 创建集合或在首笔成交前覆盖其条款。collection_id 与 label 二选一，unit_price 与 price 二选一
// @Tags Admin
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Caller address"
// @Param request body request.RegisterCollectionRequest true "Collection terms"
// @Success 200 {object} response.Response{data=service.CollectionView}
// @Router /api/v1/admin/collections [post]
func (h *AdminHandler) RegisterCollection(c *gin.Context) {
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req request.RegisterCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	id, err := collectionID(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	asset, err := optionalAddress("payment_asset", req.PaymentAsset)
	if err != nil {
		response.Error(c, err)
		return
	}
	price, err := unitPrice(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := otc.ParseAmount(req.TotalAmount)
	if err != nil {
		response.Error(c, err)
		return
	}

	col, err := h.engine.RegisterCollection(c.Request.Context(), caller, id, asset, price, total)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, service.NewCollectionView(col))
}

// AddWhitelist 批量加入白名单
// @Summary 加入白名单
// @Tags Admin
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Caller address"
// @Param id path string true "Collection ID"
// @Param request body request.WhitelistRequest true "Buyers"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/collections/{id}/whitelist [post]
func (h *AdminHandler) AddWhitelist(c *gin.Context) {
	h.updateWhitelist(c, h.engine.AddWhitelist)
}

// RemoveWhitelist 批量移出白名单
// @Summary 移出白名单
// @Tags Admin
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Caller address"
// @Param id path string true "Collection ID"
// @Param request body request.WhitelistRequest true "Buyers"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/collections/{id}/whitelist [delete]
func (h *AdminHandler) RemoveWhitelist(c *gin.Context) {
	h.updateWhitelist(c, h.engine.RemoveWhitelist)
}

type whitelistFunc func(ctx context.Context, caller, id otc.Address, buyers []otc.Address) ([]otc.Address, error)

func (h *AdminHandler) updateWhitelist(c *gin.Context, apply whitelistFunc) {
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := parseAddress("id", c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req request.WhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	buyers, err := parseAddresses("buyers", req.Buyers)
	if err != nil {
		response.Error(c, err)
		return
	}

	changed, err := apply(c.Request.Context(), caller, id, buyers)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]string, 0, len(changed))
	for _, a := range changed {
		out = append(out, a.Hex())
	}
	response.Success(c, gin.H{"collection_id": id.Hex(), "changed": out})
}

// Withdraw 从引擎账户提取资产
// @Summary 提现
// @Tags Admin
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Caller address"
// @Param request body request.WithdrawRequest true "Withdraw request"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/withdraw [post]
func (h *AdminHandler) Withdraw(c *gin.Context) {
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req request.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	asset, err := optionalAddress("asset", req.Asset)
	if err != nil {
		response.Error(c, err)
		return
	}
	dest, err := parseAddress("destination", req.Destination)
	if err != nil {
		response.Error(c, err)
		return
	}
	amount, err := otc.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.engine.Withdraw(c.Request.Context(), caller, asset, dest, amount); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"asset": asset.Hex(), "destination": dest.Hex(), "amount": amount.Dec()})
}

// Pause 暂停全部变更操作
// @Summary 暂停
// @Tags Admin
// @Produce json
// @Param X-Caller-Address header string true "Caller address"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/pause [post]
func (h *AdminHandler) Pause(c *gin.Context) {
	h.setPaused(c, h.engine.Pause, true)
}

// Unpause 恢复
// @Summary 恢复
// @Tags Admin
// @Produce json
// @Param X-Caller-Address header string true "Caller address"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/unpause [post]
func (h *AdminHandler) Unpause(c *gin.Context) {
	h.setPaused(c, h.engine.Unpause, false)
}

func (h *AdminHandler) setPaused(c *gin.Context, apply func(ctx context.Context, caller otc.Address) error, paused bool) {
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := apply(c.Request.Context(), caller); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"paused": paused})
}

func collectionID(req request.RegisterCollectionRequest) (otc.Address, error) {
	switch {
	case req.CollectionID != "" && req.Label != "":
		return otc.NullAddress, errno.ErrInvalidArgument.WithMessage("collection_id and label are mutually exclusive")
	case req.CollectionID != "":
		return parseAddress("collection_id", req.CollectionID)
	case req.Label != "":
		return common.Address(crypto_util.DeriveAddressBytes(req.Label)), nil
	}
	return otc.NullAddress, errno.ErrInvalidArgument.WithMessage("collection_id or label is required")
}

func unitPrice(req request.RegisterCollectionRequest) (*uint256.Int, error) {
	switch {
	case req.UnitPrice != "" && req.Price != "":
		return nil, errno.ErrInvalidArgument.WithMessage("unit_price and price are mutually exclusive")
	case req.UnitPrice != "":
		return otc.ParseAmount(req.UnitPrice)
	case req.Price != "":
		d, err := decimal.NewFromString(req.Price)
		if err != nil {
			return nil, errno.ErrInvalidArgument.WithMessage("price is not a decimal number")
		}
		return otc.ScalePrice(d)
	}
	return nil, errno.ErrInvalidArgument.WithMessage("unit_price or price is required")
}
