package boltdb

const (
	metadataBucket      = "metadata"
	vulnerabilityBucket = "vulnerability"
	exploitBucket       = "exploit"
)
