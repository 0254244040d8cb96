package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MStockLevel              MetricKey = "inventory_stock_level"
	MWebhookEvents           MetricKey = "webhook_events_total"
	MOrderTransitions        MetricKey = "order_transitions_total"
)

// MetricSpec describes how a metric key is registered with a backend.
type MetricSpec struct {
	Key    MetricKey
	Help   string
	Labels []string
}

var (
	CounterSpecs = []MetricSpec{
		{MUsecaseRequests, "Total number of use case invocations.", []string{"use_case", "outcome"}},
		{MHTTPRequests, "Total number of HTTP requests.", []string{"method", "route", "status"}},
		{MExternalRequests, "Total number of calls to external peers.", []string{"peer", "endpoint", "outcome"}},
		{MWebhookEvents, "Payment webhook deliveries by event type and result.", []string{"event_type", "result"}},
		{MOrderTransitions, "Committed order status transitions.", []string{"from", "to", "source"}},
	}
	HistogramSpecs = []MetricSpec{
		{MUsecaseDuration, "Duration of use case execution in seconds.", []string{"use_case"}},
		{MHTTPRequestDuration, "Duration of HTTP requests in seconds.", []string{"method", "route", "status"}},
		{MExternalRequestDuration, "Duration of calls to external peers in seconds.", []string{"peer", "endpoint"}},
	}
	GaugeSpecs = []MetricSpec{
		{MStockLevel, "Current stock level per product.", []string{"product_id"}},
	}
)
