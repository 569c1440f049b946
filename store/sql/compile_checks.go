package sqlstore

import "github.com/goliatone/go-delivery/core"

var (
	_ core.DeliveryStore          = (*DeliveryStore)(nil)
	_ core.DeliveryStatsReader    = (*DeliveryStatsStore)(nil)
	_ core.DeliveryStatsReader    = (*CachedStatsStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
