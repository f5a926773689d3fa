package model

// Plan is one purchasable subscription tier as listed by the backend.
type Plan struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	PriceMonthly          float64 `json:"price_monthly"`
	PriceYearly           float64 `json:"price_yearly"`
	VideosLimit           int     `json:"videos_limit"`
	QuestionsLimit        int     `json:"ai_questions_limit"`
	CommentsPerVideoLimit int     `json:"comments_per_video_limit"`
	Highlighted           bool    `json:"highlighted,omitempty"`
}

// BillingCycle selects monthly or yearly pricing at checkout.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// CheckoutSession is the backend's answer to a checkout initiation: the
// external overlay URL the view hands to the user, plus the transaction
// reference the return listener logs when the user comes back.
type CheckoutSession struct {
	CheckoutURL   string `json:"checkout_url"`
	TransactionID string `json:"transaction_id"`
	PlanID        string `json:"plan_id"`
}
