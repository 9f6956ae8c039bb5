package request

// SubscribeRequest registers a webhook delivery target. An empty events
// list subscribes to everything.
type SubscribeRequest struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events"`
}
