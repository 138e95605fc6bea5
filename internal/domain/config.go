package domain

// KeyPrefix namespaces every key written to the cache store.
const KeyPrefix = "rwhplan:"

// APIVersion is reported in prediction metadata.
const APIVersion = "1.0.0"

// ServiceName identifies the API in health responses.
const ServiceName = "RWH-Erode ML API"
