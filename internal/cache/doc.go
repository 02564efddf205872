// Package cache provides LRU caching for index blocks read from blob stores.
//
// ShardedLRUBlockCache spreads entries over 64 independently locked
// LRUBlockCache shards so concurrent searches over one index rarely contend.
// Both honor an optional resource.Controller memory budget: a Set that
// would exceed it is dropped.
package cache
