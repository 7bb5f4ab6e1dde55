package handler

import (
	"github.com/gin-gonic/gin"

	"otc-core/internal/handler/request"
	"otc-core/internal/handler/response"
	"otc-core/internal/otc"
	"otc-core/internal/service"
)

// CollectionHandler 面向买家的查询与购买接口
type CollectionHandler struct {
	engine *otc.Engine
	query  *service.QueryService
}

func NewCollectionHandler(engine *otc.Engine, query *service.QueryService) *CollectionHandler {
	return &CollectionHandler{engine: engine, query: query}
}

// ReceiptView 购买回执
type ReceiptView struct {
	ID              string `json:"id"`
	CollectionID    string `json:"collection_id"`
	Buyer           string `json:"buyer"`
	PaymentAsset    string `json:"payment_asset"`
	Amount          string `json:"amount"`
	Cost            string `json:"cost"`
	PurchasedAmount string `json:"purchased_amount"`
	BuyerTotal      string `json:"buyer_total"`
}

func newReceiptView(r *otc.Receipt) ReceiptView {
	return ReceiptView{
		ID:              r.ID,
		CollectionID:    r.CollectionID.Hex(),
		Buyer:           r.Buyer.Hex(),
		PaymentAsset:    r.PaymentAsset.Hex(),
		Amount:          r.Amount.Dec(),
		Cost:            r.Cost.Dec(),
		PurchasedAmount: r.PurchasedAmount.Dec(),
		BuyerTotal:      r.BuyerTotal.Dec(),
	}
}

// Status 引擎状态
// @Summary 引擎状态
// @Tags Collection
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/status [get]
func (h *CollectionHandler) Status(c *gin.Context) {
	paused, err := h.engine.Paused(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"paused":  paused,
		"owner":   h.engine.Owner().Hex(),
		"custody": h.engine.Custody().Hex(),
	})
}

// List 全部已注册集合
// @Summary 集合列表
// @Tags Collection
// @Produce json
// @Success 200 {object} response.Response{data=[]service.CollectionView}
// @Router /api/v1/collections [get]
func (h *CollectionHandler) List(c *gin.Context) {
	cols, err := h.engine.Collections(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	views := make([]service.CollectionView, 0, len(cols))
	for _, col := range cols {
		views = append(views, service.NewCollectionView(col))
	}
	response.Success(c, views)
}

// Get 单个集合 (带缓存)，未注册时返回全零记录
// @Summary 集合详情
// @Tags Collection
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} response.Response{data=service.CollectionView}
// @Router /api/v1/collections/{id} [get]
func (h *CollectionHandler) Get(c *gin.Context) {
	id, err := parseAddress("id", c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.query.Collection(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Quote 报价
// @Summary 报价
// @Description cost = floor(amount * unit_price / 1e9)
// @Tags Collection
// @Produce json
// @Param id path string true "Collection ID"
// @Param amount query string true "Amount"
// @Success 200 {object} response.Response
// @Router /api/v1/collections/{id}/quote [get]
func (h *CollectionHandler) Quote(c *gin.Context) {
	id, err := parseAddress("id", c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var q request.QuoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, bindError(err))
		return
	}
	amount, err := otc.ParseAmount(q.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	cost, err := h.engine.Quote(c.Request.Context(), id, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"collection_id": id.Hex(), "amount": amount.Dec(), "cost": cost.Dec()})
}

// Validate 校验条款是否与链下约定一致
// @Summary 条款校验
// @Tags Collection
// @Produce json
// @Param id path string true "Collection ID"
// @Param payment_asset query string false "Payment asset, empty for native"
// @Param unit_price query string true "Unit price (x1e9)"
// @Success 200 {object} response.Response
// @Router /api/v1/collections/{id}/validate [get]
func (h *CollectionHandler) Validate(c *gin.Context) {
	id, err := parseAddress("id", c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var q request.ValidateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, bindError(err))
		return
	}
	asset, err := optionalAddress("payment_asset", q.PaymentAsset)
	if err != nil {
		response.Error(c, err)
		return
	}
	price, err := otc.ParseAmount(q.UnitPrice)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok, err := h.engine.ValidateCollection(c.Request.Context(), id, asset, price)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"valid": ok})
}

// Whitelisted 查询白名单
// @Summary 白名单查询
// @Tags Collection
// @Produce json
// @Param id path string true "Collection ID"
// @Param buyer path string true "Buyer address"
// @Success 200 {object} response.Response
// @Router /api/v1/collections/{id}/whitelist/{buyer} [get]
func (h *CollectionHandler) Whitelisted(c *gin.Context) {
	id, buyer, ok := h.pair(c)
	if !ok {
		return
	}
	allowed, err := h.engine.IsWhitelisted(c.Request.Context(), id, buyer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"whitelisted": allowed})
}

// Purchased 查询买家累计购买量
// @Summary 累计购买量
// @Tags Collection
// @Produce json
// @Param id path string true "Collection ID"
// @Param buyer path string true "Buyer address"
// @Success 200 {object} response.Response
// @Router /api/v1/collections/{id}/purchases/{buyer} [get]
func (h *CollectionHandler) Purchased(c *gin.Context) {
	id, buyer, ok := h.pair(c)
	if !ok {
		return
	}
	total, err := h.engine.PurchasedBy(c.Request.Context(), id, buyer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"amount": total.Dec()})
}

// Purchase 购买，调用方即买家
// @Summary 购买
// @Description expected_cost 必须与报价完全一致；原生币支付时 value 必须等于 cost，其他资产 value 必须为 0
// @Tags Collection
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Buyer address"
// @Param id path string true "Collection ID"
// @Param request body request.PurchaseRequest true "Purchase request"
// @Success 200 {object} response.Response{data=ReceiptView}
// @Router /api/v1/collections/{id}/purchase [post]
func (h *CollectionHandler) Purchase(c *gin.Context) {
	buyer, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := parseAddress("id", c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req request.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	amount, err := otc.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	expected, err := otc.ParseAmount(req.ExpectedCost)
	if err != nil {
		response.Error(c, err)
		return
	}
	value, err := optionalAmount(req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}

	receipt, err := h.engine.Purchase(c.Request.Context(), buyer, id, amount, expected, value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newReceiptView(receipt))
}

func (h *CollectionHandler) pair(c *gin.Context) (otc.Address, otc.Address, bool) {
	id, err := parseAddress("id", c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return id, id, false
	}
	buyer, err := parseAddress("buyer", c.Param("buyer"))
	if err != nil {
		response.Error(c, err)
		return id, buyer, false
	}
	return id, buyer, true
}
