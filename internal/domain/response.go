package domain

import "encoding/json"

// Intent is the symbolic classification of a chat message
type Intent string

const (
	IntentGreeting          Intent = "greeting"
	IntentClearCart         Intent = "clear_cart"
	IntentRemoveFromCart    Intent = "remove_from_cart"
	IntentAddMultipleToCart Intent = "add_multiple_to_cart"
	IntentAddToCart         Intent = "add_to_cart"
	IntentAddAndCheckout    Intent = "add_and_checkout"
	IntentCheckout          Intent = "checkout"
	IntentCartQuery         Intent = "cart_query"
	IntentProductByID       Intent = "product_by_id"
	IntentShopHubInfo       Intent = "shophub_info"
	IntentProductSearch     Intent = "product_search"
	IntentUnknown           Intent = "unknown"
)

// Action is a UI hint for the presentation layer. The engine never interprets it.
type Action string

const (
	ActionNone               Action = ""
	ActionShowCartButton     Action = "show_cart_button"
	ActionRedirectToCheckout Action = "redirect_to_checkout"
	ActionBrowseProducts     Action = "browse_products"
	ActionShowProduct        Action = "show_product"
)

// ResponseKind discriminates ChatResponse bodies
type ResponseKind string

const (
	KindText          ResponseKind = "text"
	KindCartSummary   ResponseKind = "cart_summary"
	KindProductInfo   ResponseKind = "product_info"
	KindSearchResults ResponseKind = "search_results"
	KindInfoAnswer    ResponseKind = "info_answer"
	KindError         ResponseKind = "error"
)

// ResponseBody is the typed payload of a ChatResponse
type ResponseBody interface {
	Kind() ResponseKind
}

// CartSummary is returned by every cart-touching handler
type CartSummary struct {
	Cart          *CartView `json:"cart"`
	CheckoutReady bool      `json:"checkout_ready,omitempty"`
	Added         []Product `json:"added_products,omitempty"`
	Removed       []string  `json:"removed_products,omitempty"`
	NotInCart     []string  `json:"not_in_cart,omitempty"`
	Failed        []string  `json:"failed_products,omitempty"`
}

func (CartSummary) Kind() ResponseKind { return KindCartSummary }

// ProductInfo carries a single product
type ProductInfo struct {
	Product Product `json:"product"`
}

func (ProductInfo) Kind() ResponseKind { return KindProductInfo }

// SearchResults carries product search hits
type SearchResults struct {
	Hits []RetrievalHit `json:"results"`
}

func (SearchResults) Kind() ResponseKind { return KindSearchResults }

// InfoAnswer carries a store information answer
type InfoAnswer struct {
	Topic  string `json:"topic"`
	Title  string `json:"title"`
	Answer string `json:"answer"`
}

func (InfoAnswer) Kind() ResponseKind { return KindInfoAnswer }

// ErrorBody marks a reply produced after an internal failure
type ErrorBody struct {
	Reason string `json:"reason"`
}

func (ErrorBody) Kind() ResponseKind { return KindError }

// ChatResponse is the reply to one chat message
type ChatResponse struct {
	Response string
	Intent   Intent
	Action   Action
	Body     ResponseBody
}

// Kind returns the body kind, or KindText for plain replies
func (r *ChatResponse) Kind() ResponseKind {
	if r.Body == nil {
		return KindText
	}
	return r.Body.Kind()
}

// Cart returns the cart view carried by the body, if any
func (r *ChatResponse) Cart() *CartView {
	if s, ok := r.Body.(CartSummary); ok {
		return s.Cart
	}
	return nil
}

// CheckoutReady reports whether the reply flags the cart as ready to check out
func (r *ChatResponse) CheckoutReady() bool {
	s, ok := r.Body.(CartSummary)
	return ok && s.CheckoutReady
}

type chatResponseJSON struct {
	Response string       `json:"response"`
	Intent   Intent       `json:"intent"`
	Kind     ResponseKind `json:"kind"`
	Action   Action       `json:"action,omitempty"`
	Cart     *CartView    `json:"cart,omitempty"`
	Product  *Product     `json:"product,omitempty"`
	Data     ResponseBody `json:"data,omitempty"`
}

// MarshalJSON flattens cart and product to the top level for the presentation layer
func (r ChatResponse) MarshalJSON() ([]byte, error) {
	out := chatResponseJSON{
		Response: r.Response,
		Intent:   r.Intent,
		Kind:     r.Kind(),
		Action:   r.Action,
		Data:     r.Body,
	}
	switch b := r.Body.(type) {
	case CartSummary:
		out.Cart = b.Cart
	case ProductInfo:
		p := b.Product
		out.Product = &p
	}
	return json.Marshal(out)
}
