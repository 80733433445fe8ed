package infra

// Queue names for the engine's four RabbitMQ consumers, replacing the
// teacher's produce package constants (IAM/bucket/upload queues) with the
// ones this domain's control surface actually needs.
const (
	EventStreamQueue      = "filemanager.event-stream"
	CrawlControlQueue     = "filemanager.crawl-control"
	InventoryControlQueue = "filemanager.inventory-control"
	AnnotationQueue       = "filemanager.annotation"
)
