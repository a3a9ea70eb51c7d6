package store

var CacheExpiry = cacheExpiry
