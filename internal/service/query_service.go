package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"otc-core/internal/otc"
	"otc-core/pkg/cache"
	"otc-core/pkg/logger"
)

const collectionCachePrefix = "otc:collection:"

// CollectionView 对外展示的集合信息，数值均为十进制字符串
type CollectionView struct {
	ID              string `json:"id"`
	PaymentAsset    string `json:"payment_asset"`
	Native          bool   `json:"native"`
	UnitPrice       string `json:"unit_price"` // 定点数 (x1e9)
	Price           string `json:"price"`      // 还原后的价格
	TotalAmount     string `json:"total_amount"`
	PurchasedAmount string `json:"purchased_amount"`
	Remaining       string `json:"remaining"`
	Registered      bool   `json:"registered"`
}

// NewCollectionView 由领域对象构造展示结构
func NewCollectionView(c otc.Collection) CollectionView {
	return CollectionView{
		ID:              c.ID.Hex(),
		PaymentAsset:    c.PaymentAsset.Hex(),
		Native:          c.IsNative(),
		UnitPrice:       c.UnitPrice.Dec(),
		Price:           otc.DescalePrice(c.UnitPrice).String(),
		TotalAmount:     c.TotalAmount.Dec(),
		PurchasedAmount: c.PurchasedAmount.Dec(),
		Remaining:       c.Remaining().Dec(),
		Registered:      c.Registered(),
	}
}

// QueryService 带缓存的集合查询，引擎提交变更后通过 Invalidate 清理
type QueryService struct {
	reader CollectionReader
	cache  cache.Cache
	ttl    time.Duration
}

func NewQueryService(reader CollectionReader, c cache.Cache, ttl time.Duration) *QueryService {
	return &QueryService{reader: reader, cache: c, ttl: ttl}
}

func (s *QueryService) Collection(ctx context.Context, id otc.Address) (CollectionView, error) {
	key := collectionCachePrefix + id.Hex()

	var view CollectionView
	if s.cache != nil {
		err := s.cache.Get(ctx, key, &view)
		if err == nil {
			return view, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn("collection cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	c, err := s.reader.Collection(ctx, id)
	if err != nil {
		return CollectionView{}, err
	}
	view = NewCollectionView(c)
	// 未注册的集合不缓存，避免注册后短时间内仍读到占位记录
	if s.cache != nil && view.Registered {
		if err := s.cache.Set(ctx, key, view, s.ttl); err != nil {
			logger.Warn("collection cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return view, nil
}

// Invalidate 清理单个集合的缓存，可直接作为 otc.WithCollectionHook 的回调
func (s *QueryService) Invalidate(ctx context.Context, id otc.Address) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, collectionCachePrefix+id.Hex()); err != nil {
		logger.Warn("collection cache invalidate failed", zap.String("collection", id.Hex()), zap.Error(err))
	}
}
