package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shophub/shophub/internal/domain"
	"github.com/shophub/shophub/internal/nlu"
)

// Replies shared by several handlers
const (
	greetingReply  = "Hey there! I'm your ShopHub shopping assistant. How can I help you today?"
	rephraseReply  = "I couldn't find relevant information. Could you rephrase your question?"
	cartErrorReply = "Sorry, I couldn't update your cart right now. Please try again in a moment."
	unknownReply   = "I'm not sure I understand. I can help you with:\n" +
		"- Finding products\n" +
		"- Checking your cart\n" +
		"- Checking out your cart\n" +
		"- Store info (shipping, returns, payment...)\n" +
		"- Adding items to your cart\n\n" +
		"What would you like to do?"
)

func (s *ChatService) handleGreeting(ctx context.Context, t *turn) *domain.ChatResponse {
	return &domain.ChatResponse{Response: greetingReply}
}

func (s *ChatService) handleUnknown(ctx context.Context, t *turn) *domain.ChatResponse {
	return &domain.ChatResponse{Response: unknownReply, Action: domain.ActionBrowseProducts}
}

func (s *ChatService) handleCartQuery(ctx context.Context, t *turn) *domain.ChatResponse {
	cart := s.carts.Get(ctx, t.sessionID)
	if cart.IsEmpty() {
		return &domain.ChatResponse{
			Response: "Your cart is currently empty. Would you like to add some products?",
			Action:   domain.ActionBrowseProducts,
			Body:     domain.CartSummary{Cart: cart},
		}
	}

	lines := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, fmt.Sprintf("- %s (x%d): %s", item.Title, item.Quantity, money(item.Subtotal)))
	}
	return &domain.ChatResponse{
		Response: fmt.Sprintf("Here's what's in your cart:\n\n%s\n\nTotal: %s\n\nReady to checkout?",
			strings.Join(lines, "\n"), money(cart.Total)),
		Action: domain.ActionShowCartButton,
		Body:   domain.CartSummary{Cart: cart},
	}
}

func (s *ChatService) handleClearCart(ctx context.Context, t *turn) *domain.ChatResponse {
	cleared, units, err := s.carts.ClearItems(ctx, t.sessionID)
	if err != nil {
		return s.failure(t, "clear cart", err)
	}
	if units == 0 {
		return &domain.ChatResponse{
			Response: "Your cart is already empty.",
			Action:   domain.ActionBrowseProducts,
			Body:     domain.CartSummary{Cart: cleared},
		}
	}
	return &domain.ChatResponse{
		Response: fmt.Sprintf("I've cleared your cart. %d items were removed.", units),
		Action:   domain.ActionBrowseProducts,
		Body:     domain.CartSummary{Cart: cleared},
	}
}

func (s *ChatService) handleRemoveFromCart(ctx context.Context, t *turn) *domain.ChatResponse {
	ids := t.entities.ProductIDs
	if len(ids) == 0 {
		return &domain.ChatResponse{
			Response: "Please specify which product to remove. For example: 'Remove product 5 from my cart'",
		}
	}

	var (
		cart                       *domain.CartView
		removed, notInCart, failed []string
	)
	for _, id := range ids {
		view, ok, err := s.carts.RemoveItem(ctx, t.sessionID, id)
		if err != nil {
			s.logger.Warn("remove from cart failed",
				zap.String("session_id", t.sessionID),
				zap.String("product_id", id),
				zap.Error(err),
			)
			failed = append(failed, id)
			continue
		}
		cart = view
		if ok {
			removed = append(removed, id)
		} else {
			notInCart = append(notInCart, id)
		}
	}
	if cart == nil {
		cart = s.carts.Get(ctx, t.sessionID)
	}

	var parts []string
	if len(removed) > 0 {
		parts = append(parts, fmt.Sprintf("Removed product %s from your cart.", joinIDs(removed)))
	}
	if len(notInCart) > 0 {
		parts = append(parts, fmt.Sprintf("Product %s wasn't in your cart.", joinIDs(notInCart)))
	}
	if len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("I couldn't remove product %s right now.", joinIDs(failed)))
	}
	parts = append(parts, cartStatus(cart))

	return &domain.ChatResponse{
		Response: strings.Join(parts, "\n"),
		Action:   domain.ActionShowCartButton,
		Body: domain.CartSummary{
			Cart:      cart,
			Removed:   removed,
			NotInCart: notInCart,
			Failed:    failed,
		},
	}
}

func (s *ChatService) handleAddToCart(ctx context.Context, t *turn) *domain.ChatResponse {
	ids := t.entities.ProductIDs
	if len(ids) == 0 {
		return &domain.ChatResponse{
			Response: "Please specify which product to add. For example: 'Add product 5 to cart'",
		}
	}

	id, qty := ids[0], t.entities.Quantity
	cart, err := s.carts.Add(ctx, t.sessionID, id, qty)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ChatResponse{Response: notFoundReply(id)}
	}
	if err != nil {
		return s.failure(t, "add to cart", err)
	}

	product, _ := s.catalog.GetProduct(ctx, id)
	what := product.Title
	if qty > 1 {
		what = fmt.Sprintf("%d x %s", qty, product.Title)
	}
	return &domain.ChatResponse{
		Response: fmt.Sprintf("Added %s to your cart! %s", what, cartStatus(cart)),
		Action:   domain.ActionShowCartButton,
		Body:     domain.CartSummary{Cart: cart, Added: []domain.Product{product}},
	}
}

// addBatch adds every id and partitions them into added products and failed ids
func (s *ChatService) addBatch(ctx context.Context, t *turn) (*domain.CartView, []domain.Product, []string) {
	var (
		cart   *domain.CartView
		added  []domain.Product
		failed []string
	)
	for _, id := range t.entities.ProductIDs {
		view, err := s.carts.Add(ctx, t.sessionID, id, t.entities.Quantity)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("add to cart failed",
					zap.String("session_id", t.sessionID),
					zap.String("product_id", id),
					zap.Error(err),
				)
			}
			failed = append(failed, id)
			continue
		}
		cart = view
		p, _ := domain.FindProduct(s.catalog.ListProducts(ctx), id)
		added = append(added, p)
	}
	if cart == nil {
		cart = s.carts.Get(ctx, t.sessionID)
	}
	return cart, added, failed
}

func (s *ChatService) handleAddMultiple(ctx context.Context, t *turn) *domain.ChatResponse {
	if len(t.entities.ProductIDs) == 0 {
		return &domain.ChatResponse{
			Response: "Please specify which products to add. For example: 'Add products 5, 6, and 7 to cart'",
		}
	}

	cart, added, failed := s.addBatch(ctx, t)
	body := domain.CartSummary{Cart: cart, Added: added, Failed: failed}

	if len(added) == 0 {
		return &domain.ChatResponse{
			Response: fmt.Sprintf("Sorry, I couldn't add any of the products. Product IDs %s could not be added.",
				strings.Join(failed, ", ")),
			Body: body,
		}
	}

	parts := []string{fmt.Sprintf("Successfully added %d items to your cart:", len(added))}
	for _, p := range added {
		parts = append(parts, "• "+p.Title)
	}
	if len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("\nCould not add products: %s", strings.Join(failed, ", ")))
	}
	parts = append(parts, "\n"+cartStatus(cart))

	return &domain.ChatResponse{
		Response: strings.Join(parts, "\n"),
		Action:   domain.ActionShowCartButton,
		Body:     body,
	}
}

func (s *ChatService) handleAddAndCheckout(ctx context.Context, t *turn) *domain.ChatResponse {
	if len(t.entities.ProductIDs) == 0 {
		return &domain.ChatResponse{
			Response: "Please specify which products to add and checkout. For example: 'Add products 5 and 9 and checkout'",
		}
	}

	cart, added, failed := s.addBatch(ctx, t)
	if len(added) == 0 {
		return &domain.ChatResponse{
			Response: fmt.Sprintf("Sorry, I couldn't add any of those products (%s), so I haven't started checkout.",
				strings.Join(failed, ", ")),
			Body: domain.CartSummary{Cart: cart, Failed: failed},
		}
	}

	resp := s.checkoutReply(cart)
	resp.Response = fmt.Sprintf("Added %d items to your cart!\n\n%s", len(added), resp.Response)
	if len(failed) > 0 {
		resp.Response += fmt.Sprintf("\n\nCould not add products: %s", strings.Join(failed, ", "))
	}
	summary := resp.Body.(domain.CartSummary)
	summary.Added = added
	summary.Failed = failed
	resp.Body = summary
	return resp
}

func (s *ChatService) handleCheckout(ctx context.Context, t *turn) *domain.ChatResponse {
	return s.checkoutReply(s.carts.Get(ctx, t.sessionID))
}

// checkoutReply rejects an empty cart and otherwise flags it ready for checkout
func (s *ChatService) checkoutReply(cart *domain.CartView) *domain.ChatResponse {
	if cart.IsEmpty() {
		return &domain.ChatResponse{
			Response: "Your cart is empty. Add some products before checking out!",
			Action:   domain.ActionBrowseProducts,
			Body:     domain.CartSummary{Cart: cart},
		}
	}

	text := fmt.Sprintf("Great! Your order total is %s for %d items.", money(cart.Total), cart.ItemCount)
	if s.checkout != nil {
		if sum, err := s.checkout.Price(cart); err == nil {
			text = fmt.Sprintf("Great! Your order comes to %s for %d items (subtotal %s, tax %s, shipping %s).",
				money(sum.Total), sum.ItemCount, money(sum.Subtotal), money(sum.Tax), money(sum.Shipping))
		}
	}
	text += " To complete checkout, please proceed to our checkout page where you can enter shipping and payment details."

	return &domain.ChatResponse{
		Response: text,
		Action:   domain.ActionRedirectToCheckout,
		Body:     domain.CartSummary{Cart: cart, CheckoutReady: true},
	}
}

func (s *ChatService) handleProductByID(ctx context.Context, t *turn) *domain.ChatResponse {
	ids := t.entities.ProductIDs
	if len(ids) == 0 {
		return &domain.ChatResponse{
			Response: "Please provide a valid product ID. For example: 'Tell me about product 5'",
		}
	}

	p, err := s.catalog.GetProduct(ctx, ids[0])
	if err != nil {
		return &domain.ChatResponse{Response: notFoundReply(ids[0])}
	}
	return &domain.ChatResponse{
		Response: fmt.Sprintf("%s\n\nPrice: %s\nCategory: %s\n\n%s\n\nWould you like to add this to your cart?",
			p.Title, money(p.Price), p.Category, p.Description),
		Action: domain.ActionShowProduct,
		Body:   domain.ProductInfo{Product: p},
	}
}

func (s *ChatService) handleShopHubInfo(ctx context.Context, t *turn) *domain.ChatResponse {
	topic, ok := nlu.ResolveTopic(t.text)
	if !ok {
		return &domain.ChatResponse{
			Response: "I can help with shipping, returns, payment, order tracking, accounts and more. What would you like to know?",
		}
	}
	if s.retriever == nil {
		return s.degraded(t, domain.ErrRetrievalUnavailable)
	}

	hits, err := s.retriever.Search(ctx, t.text, domain.RetrievalFilter{Type: domain.DocTypeInfo, Topic: topic}, 1)
	if err != nil {
		return s.degraded(t, err)
	}
	if len(hits) == 0 {
		return &domain.ChatResponse{Response: rephraseReply}
	}

	h := hits[0]
	answer := domain.InfoAnswer{
		Topic:  topic,
		Title:  h.Metadata[domain.MetaKeyTitle],
		Answer: h.Metadata[domain.MetaKeyAnswer],
	}
	if answer.Answer == "" {
		answer.Answer = strings.TrimSpace(h.Document)
	}

	text := answer.Answer
	if answer.Title != "" {
		text = answer.Title + "\n" + answer.Answer
	}
	return &domain.ChatResponse{Response: text, Body: answer}
}

func (s *ChatService) handleProductSearch(ctx context.Context, t *turn) *domain.ChatResponse {
	if s.retriever == nil {
		return s.degraded(t, domain.ErrRetrievalUnavailable)
	}

	hits, err := s.retriever.Search(ctx, t.text, domain.RetrievalFilter{Type: domain.DocTypeProduct}, s.topK)
	if err != nil {
		return s.degraded(t, err)
	}
	if len(hits) == 0 {
		return &domain.ChatResponse{Response: rephraseReply, Action: domain.ActionBrowseProducts}
	}

	parts := make([]string, 0, len(hits))
	for i, h := range hits {
		md := h.Metadata
		parts = append(parts, fmt.Sprintf("%d. %s - $%s\n   Category: %s\n   Product ID: %s",
			i+1, md[domain.MetaKeyTitle], md[domain.MetaKeyPrice], md[domain.MetaKeyCategory], md[domain.MetaKeyProductID]))
	}
	text := strings.Join(parts, "\n\n") +
		"\n\nWould you like to know more about any of these products or add one to your cart?"

	return &domain.ChatResponse{
		Response: text,
		Action:   domain.ActionBrowseProducts,
		Body:     domain.SearchResults{Hits: hits},
	}
}

// degraded answers a retrieval failure with the rephrase prompt
func (s *ChatService) degraded(t *turn, err error) *domain.ChatResponse {
	s.logger.Warn("retrieval unavailable",
		zap.String("session_id", t.sessionID),
		zap.Error(err),
	)
	return &domain.ChatResponse{
		Response: rephraseReply,
		Body:     domain.ErrorBody{Reason: domain.ErrRetrievalUnavailable.Error()},
	}
}

// failure answers a cart write failure
func (s *ChatService) failure(t *turn, op string, err error) *domain.ChatResponse {
	s.logger.Error("chat cart operation failed",
		zap.String("session_id", t.sessionID),
		zap.String("op", op),
		zap.Error(err),
	)
	return &domain.ChatResponse{
		Response: cartErrorReply,
		Body:     domain.ErrorBody{Reason: domain.ErrStoreUnavailable.Error()},
	}
}

func notFoundReply(id string) string {
	return fmt.Sprintf("Sorry, I couldn't find a product with ID %s. Please check the ID and try again.", id)
}

func cartStatus(cart *domain.CartView) string {
	return fmt.Sprintf("Your cart now has %d items totaling %s.", cart.ItemCount, money(cart.Total))
}

func joinIDs(ids []string) string {
	if len(ids) == 1 {
		return ids[0]
	}
	return strings.Join(ids[:len(ids)-1], ", ") + " and " + ids[len(ids)-1]
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
