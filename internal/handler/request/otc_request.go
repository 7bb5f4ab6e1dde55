package request

// RegisterCollectionRequest 注册集合
// CollectionID 与 Label 二选一，Label 通过 keccak256 派生 ID；UnitPrice (x1e9) 与 Price (十进制) 二选一
type RegisterCollectionRequest struct {
	CollectionID string `json:"collection_id" binding:"omitempty,eth_addr"`
	Label        string `json:"label" binding:"omitempty,max=128"`
	PaymentAsset string `json:"payment_asset" binding:"omitempty,eth_addr"` // 为空表示原生币
	UnitPrice    string `json:"unit_price" binding:"omitempty,uint256"`
	Price        string `json:"price" binding:"omitempty,numeric"`
	TotalAmount  string `json:"total_amount" binding:"required,uint256"`
}

// WhitelistRequest 批量增删白名单
type WhitelistRequest struct {
	Buyers []string `json:"buyers" binding:"required,max=500,dive,eth_addr"`
}

// WithdrawRequest 管理员提现
type WithdrawRequest struct {
	Asset       string `json:"asset" binding:"omitempty,eth_addr"` // 为空表示原生币
	Destination string `json:"destination" binding:"required,eth_addr"`
	Amount      string `json:"amount" binding:"required,uint256"`
}

// PurchaseRequest 购买
type PurchaseRequest struct {
	Amount       string `json:"amount" binding:"required,uint256"`
	ExpectedCost string `json:"expected_cost" binding:"required,uint256"`
	Value        string `json:"value" binding:"omitempty,uint256"` // 随调用附带的原生币
}

// QuoteQuery 报价查询参数
type QuoteQuery struct {
	Amount string `form:"amount" binding:"required,uint256"`
}

// ValidateQuery 条款校验参数
type ValidateQuery struct {
	PaymentAsset string `form:"payment_asset" binding:"omitempty,eth_addr"`
	UnitPrice    string `form:"unit_price" binding:"required,uint256"`
}
