package orders

import "strconv"

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status.changed"
)

// PartitionKey keeps every event of one order on the same partition, in order.
func PartitionKey(orderID int64) string { return strconv.FormatInt(orderID, 10) }
