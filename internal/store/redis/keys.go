package redis

const (
	// KeyPrefixCache is the prefix of cached upstream responses.
	KeyPrefixCache = "komiku:cache:"
	// KeyPrefixTag is the prefix of the tag -> cache keys sets.
	KeyPrefixTag = "komiku:tag:"
	// KeyPrefixLibrary is the prefix of persisted library blobs.
	KeyPrefixLibrary = "komiku:library:"
)

// CacheKey returns the Redis key of a cached response by request URL.
func CacheKey(url string) string {
	return KeyPrefixCache + url
}

// TagKey returns the Redis key of the set of cache keys registered under tag.
func TagKey(tag string) string {
	return KeyPrefixTag + tag
}

// LibraryKey returns the Redis key of a library blob by name.
func LibraryKey(name string) string {
	return KeyPrefixLibrary + name
}
