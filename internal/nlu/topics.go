package nlu

// Topic is a store information subject and the keywords that select it
type Topic struct {
	Name     string
	Keywords []string
}

// Store information topics. Names match the `topic` metadata of indexed FAQ documents.
// Order decides ties: "return policy" resolves to returns, not the general policy page.
const (
	TopicShipping        = "shipping"
	TopicReturns         = "returns"
	TopicPayment         = "payment"
	TopicTracking        = "tracking"
	TopicAccount         = "account"
	TopicCustomerService = "customer_service"
	TopicDiscounts       = "discounts"
	TopicSecurity        = "security"
	TopicInternational   = "international"
	TopicProductQuality  = "product_quality"
	TopicAbout           = "about"
)

var topicTable = []Topic{
	{Name: TopicInternational, Keywords: []string{"international", "overseas", "abroad", "ship to canada", "ship to the uk"}},
	{Name: TopicReturns, Keywords: []string{"return", "refund", "exchange", "money back"}},
	{Name: TopicShipping, Keywords: []string{"shipping", "delivery", "deliver", "ship"}},
	{Name: TopicTracking, Keywords: []string{"track", "where is my order", "order status"}},
	{Name: TopicProductQuality, Keywords: []string{"warranty", "damaged", "defective", "broken"}},
	{Name: TopicPayment, Keywords: []string{"payment", "pay with", "credit card", "paypal", "apple pay", "google pay"}},
	{Name: TopicSecurity, Keywords: []string{"secure", "security", "privacy", "my data"}},
	{Name: TopicDiscounts, Keywords: []string{"discount", "promo", "coupon", "voucher", "sale"}},
	{Name: TopicAccount, Keywords: []string{"account", "sign up", "register", "guest"}},
	{Name: TopicCustomerService, Keywords: []string{"support", "contact", "customer service", "help", "phone number", "email"}},
	{Name: TopicAbout, Keywords: []string{"policy", "policies", "about shophub", "about the store", "who are you"}},
}

// Topics returns the topic table in resolution order
func Topics() []Topic {
	out := make([]Topic, len(topicTable))
	copy(out, topicTable)
	return out
}

// ResolveTopic returns the first topic with a keyword in text
func ResolveTopic(text string) (string, bool) {
	lower := normalize(text)
	for _, t := range topicTable {
		if containsAnyWordPrefix(lower, t.Keywords) {
			return t.Name, true
		}
	}
	return "", false
}
