package event

// Outbox 主题
const (
	TopicCollection = "otc_events_collection"
	TopicWhitelist  = "otc_events_whitelist"
	TopicPurchase   = "otc_events_purchase"
	TopicWithdraw   = "otc_events_withdraw"
	TopicAdmin      = "otc_events_admin"
)

// Envelope 本地消息表中的一条待投递消息
type Envelope struct {
	ID      uint64 `json:"id"`
	Topic   string `json:"topic"`
	Key     string `json:"key"`
	Payload []byte `json:"payload"`
}

// CollectionRegisteredEvent 集合注册/覆盖事件
// Topic: otc_events_collection
type CollectionRegisteredEvent struct {
	CollectionID string `json:"collection_id"`
	PaymentAsset string `json:"payment_asset"`
	UnitPrice    string `json:"unit_price"`   // 定点数 (x1e9) 的十进制字符串
	TotalAmount  string `json:"total_amount"` // Decimal string
	Overwrite    bool   `json:"overwrite"`
}

// WhitelistUpdatedEvent 白名单变更事件，只包含实际发生变化的地址
// Topic: otc_events_whitelist
type WhitelistUpdatedEvent struct {
	CollectionID string   `json:"collection_id"`
	Added        []string `json:"added,omitempty"`
	Removed      []string `json:"removed,omitempty"`
}

// PurchasedEvent 购买成功事件
// Topic: otc_events_purchase
type PurchasedEvent struct {
	ReceiptID       string `json:"receipt_id"`
	CollectionID    string `json:"collection_id"`
	Buyer           string `json:"buyer"`
	PaymentAsset    string `json:"payment_asset"`
	Amount          string `json:"amount"`
	Cost            string `json:"cost"`
	PurchasedAmount string `json:"purchased_amount"`
	BuyerTotal      string `json:"buyer_total"`
}

// WithdrawnEvent 管理员提现事件
// Topic: otc_events_withdraw
type WithdrawnEvent struct {
	Asset       string `json:"asset"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
}

// PauseToggledEvent 暂停/恢复事件
// Topic: otc_events_admin
type PauseToggledEvent struct {
	Paused bool   `json:"paused"`
	By     string `json:"by"`
}
