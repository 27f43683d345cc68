package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shophub/shophub/internal/domain"
)

func newTestChat(t *testing.T, env *testEnv, retriever Retriever) *ChatService {
	t.Helper()
	return NewChatService(env.carts, env.checkout, env.catalog, ChatServiceOptions{
		Retriever: retriever,
		TopK:      3,
	})
}

func send(t *testing.T, s *ChatService, session, text string) *domain.ChatResponse {
	t.Helper()
	resp, err := s.ProcessMessage(context.Background(), session, text)
	if err != nil {
		t.Fatalf("ProcessMessage(%q) failed: %v", text, err)
	}
	return resp
}

func TestChat_CheckoutEmptyCart(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)

	resp := send(t, chat, "s1", "checkout")

	if resp.Intent != domain.IntentCheckout {
		t.Errorf("expected checkout intent, got %s", resp.Intent)
	}
	if !strings.Contains(strings.ToLower(resp.Response), "empty") {
		t.Errorf("expected rejection mentioning empty, got %q", resp.Response)
	}
	if resp.CheckoutReady() {
		t.Error("empty cart must not be checkout ready")
	}
}

func TestChat_AddProduct(t *testing.T) {
	env := newTestEnv(t)
	chat := newTestChat(t, env, nil)

	resp := send(t, chat, "s1", "Add product 5 to cart")

	if resp.Intent != domain.IntentAddToCart {
		t.Fatalf("expected add_to_cart, got %s", resp.Intent)
	}
	cart := resp.Cart()
	if cart == nil || cart.ItemCount != 1 || cart.Total != 10.00 {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if stored := env.carts.Get(context.Background(), "s1"); stored.ItemCount != 1 {
		t.Errorf("expected stored cart to hold 1 item, got %d", stored.ItemCount)
	}
	if resp.Action != domain.ActionShowCartButton {
		t.Errorf("unexpected action %s", resp.Action)
	}
}

func TestChat_AddWithQuantity(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)

	resp := send(t, chat, "s1", "add 3 of product 6")
	if cart := resp.Cart(); cart == nil || cart.ItemCount != 3 || cart.Total != 7.5 {
		t.Errorf("unexpected cart %+v", cart)
	}
}

func TestChat_AddUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	chat := newTestChat(t, env, nil)
	send(t, chat, "s1", "Add product 5 to cart")

	resp := send(t, chat, "s1", "Add product 9999 to cart")

	if !strings.Contains(resp.Response, "couldn't find") || !strings.Contains(resp.Response, "9999") {
		t.Errorf("expected not-found reply, got %q", resp.Response)
	}
	if stored := env.carts.Get(context.Background(), "s1"); stored.ItemCount != 1 || stored.Total != 10 {
		t.Errorf("cart changed after unknown add: %+v", stored)
	}
}

func TestChat_AddToCartWithoutID(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)

	resp := send(t, chat, "s1", "add this to my cart")
	if resp.Intent != domain.IntentAddToCart || !strings.Contains(resp.Response, "specify") {
		t.Errorf("expected clarification, got %s %q", resp.Intent, resp.Response)
	}
}

func TestChat_AddMultiplePartialFailure(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)

	resp := send(t, chat, "s1", "Add products 5, 9999, and 6 to cart")

	if resp.Intent != domain.IntentAddMultipleToCart {
		t.Fatalf("expected add_multiple_to_cart, got %s", resp.Intent)
	}
	body, ok := resp.Body.(domain.CartSummary)
	if !ok {
		t.Fatalf("expected cart summary, got %T", resp.Body)
	}
	if len(body.Added) != 2 || len(body.Failed) != 1 || body.Failed[0] != "9999" {
		t.Errorf("unexpected partition added=%v failed=%v", body.Added, body.Failed)
	}
	if body.Cart.ItemCount != 2 {
		t.Errorf("expected 2 items, got %d", body.Cart.ItemCount)
	}
	if !strings.Contains(resp.Response, "9999") {
		t.Errorf("failed id missing from reply %q", resp.Response)
	}
}

func TestChat_AddAndCheckout(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)

	resp := send(t, chat, "s1", "add product 5 and checkout")

	if resp.Intent != domain.IntentAddAndCheckout {
		t.Fatalf("expected add_and_checkout, got %s", resp.Intent)
	}
	if !resp.CheckoutReady() || resp.Action != domain.ActionRedirectToCheckout {
		t.Errorf("expected checkout ready redirect, got ready=%v action=%s", resp.CheckoutReady(), resp.Action)
	}
	// subtotal 10, tax 0.70, shipping 5
	if !strings.Contains(resp.Response, "$15.70") {
		t.Errorf("expected priced total in reply, got %q", resp.Response)
	}
}

func TestChat_AddAndCheckoutAllFailed(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)

	resp := send(t, chat, "s1", "add products 9998 and 9999 and checkout")

	if resp.CheckoutReady() {
		t.Error("checkout must not be ready when nothing was added")
	}
	if body := resp.Body.(domain.CartSummary); len(body.Failed) != 2 {
		t.Errorf("expected both ids to fail, got %v", body.Failed)
	}
}

func TestChat_CheckoutReady(t *testing.T) {
	env := newTestEnv(t)
	chat := newTestChat(t, env, nil)
	env.carts.Add(context.Background(), "s1", "9", 1)

	resp := send(t, chat, "s1", "I want to place order")
	if !resp.CheckoutReady() || resp.Cart().ItemCount != 1 {
		t.Errorf("expected ready cart, got %+v", resp)
	}
	// over the free shipping threshold: 64 + 4.48 tax
	if !strings.Contains(resp.Response, "$68.48") {
		t.Errorf("unexpected total in %q", resp.Response)
	}
}

func TestChat_CartQuery(t *testing.T) {
	env := newTestEnv(t)
	chat := newTestChat(t, env, nil)

	resp := send(t, chat, "s1", "What's in my cart?")
	if resp.Action != domain.ActionBrowseProducts || !strings.Contains(resp.Response, "empty") {
		t.Errorf("unexpected empty cart reply %+v", resp)
	}

	env.carts.Add(context.Background(), "s1", "5", 2)
	resp = send(t, chat, "s1", "show cart")
	if resp.Action != domain.ActionShowCartButton {
		t.Errorf("unexpected action %s", resp.Action)
	}
	if !strings.Contains(resp.Response, "Bracelet (x2): $20.00") || !strings.Contains(resp.Response, "Total: $20.00") {
		t.Errorf("unexpected listing %q", resp.Response)
	}
}

func TestChat_ClearCart(t *testing.T) {
	env := newTestEnv(t)
	chat := newTestChat(t, env, nil)

	resp := send(t, chat, "s1", "clear my cart")
	if !strings.Contains(resp.Response, "already empty") {
		t.Errorf("unexpected reply %q", resp.Response)
	}

	env.carts.Add(context.Background(), "s1", "5", 1)
	resp = send(t, chat, "s1", "empty my cart")
	if resp.Cart() == nil || !resp.Cart().IsEmpty() {
		t.Errorf("expected empty cart, got %+v", resp.Cart())
	}
	if env.redis.Exists("cart:s1") {
		t.Error("expected cart key to be deleted")
	}
}

func TestChat_ClearCartWhileCatalogUnavailable(t *testing.T) {
	env := newTestEnv(t)
	chat := newTestChat(t, env, nil)
	ctx := context.Background()
	env.carts.Add(ctx, "s1", "5", 2)

	// catalog fetch failures read as an empty product list
	products := env.catalog.products
	env.catalog.products = nil

	resp := send(t, chat, "s1", "clear my cart")
	if strings.Contains(resp.Response, "already empty") {
		t.Errorf("stored lines must count even when they cannot be priced, got %q", resp.Response)
	}
	if !strings.Contains(resp.Response, "2 items were removed") {
		t.Errorf("unexpected reply %q", resp.Response)
	}
	if env.redis.Exists("cart:s1") {
		t.Error("expected cart key to be deleted")
	}

	env.catalog.products = products
	if cart := env.carts.Get(ctx, "s1"); !cart.IsEmpty() {
		t.Errorf("cleared items came back after the catalog recovered: %+v", cart)
	}
}

func TestChat_RemoveAllOfOneProduct(t *testing.T) {
	env := newTestEnv(t)
	chat := newTestChat(t, env, nil)
	ctx := context.Background()
	env.carts.Add(ctx, "s1", "5", 3)
	env.carts.Add(ctx, "s1", "6", 1)

	resp := send(t, chat, "s1", "remove all of product 5 from my cart")

	if resp.Intent != domain.IntentRemoveFromCart {
		t.Fatalf("expected remove_from_cart, got %s", resp.Intent)
	}
	cart := env.carts.Get(ctx, "s1")
	if len(cart.Items) != 1 || cart.Items[0].ProductID != "6" || cart.ItemCount != 1 {
		t.Errorf("expected only product 6 to remain, got %+v", cart.Items)
	}
}

func TestChat_RemoveFromCart(t *testing.T) {
	env := newTestEnv(t)
	chat := newTestChat(t, env, nil)
	env.carts.Add(context.Background(), "s1", "5", 1)
	env.carts.Add(context.Background(), "s1", "6", 1)

	resp := send(t, chat, "s1", "remove products 5 and 9 from my cart")

	if resp.Intent != domain.IntentRemoveFromCart {
		t.Fatalf("expected remove_from_cart, got %s", resp.Intent)
	}
	body := resp.Body.(domain.CartSummary)
	if len(body.Removed) != 1 || body.Removed[0] != "5" {
		t.Errorf("unexpected removed %v", body.Removed)
	}
	if len(body.NotInCart) != 1 || body.NotInCart[0] != "9" {
		t.Errorf("unexpected not-in-cart %v", body.NotInCart)
	}
	if body.Cart.ItemCount != 1 {
		t.Errorf("expected 1 item left, got %d", body.Cart.ItemCount)
	}
}

func TestChat_StoreDownIsReply(t *testing.T) {
	env := newTestEnv(t)
	chat := newTestChat(t, env, nil)
	env.redis.Close()

	resp := send(t, chat, "s1", "Add product 5 to cart")
	if resp.Kind() != domain.KindError {
		t.Errorf("expected error body, got %s", resp.Kind())
	}

	resp = send(t, chat, "s1", "add products 5 and 6")
	if body := resp.Body.(domain.CartSummary); len(body.Failed) != 2 {
		t.Errorf("expected both adds to fail, got %+v", body)
	}
}

func TestChat_ProductByID(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)

	resp := send(t, chat, "s1", "Tell me about product 5")
	info, ok := resp.Body.(domain.ProductInfo)
	if !ok || info.Product.ID != "5" || resp.Action != domain.ActionShowProduct {
		t.Fatalf("unexpected reply %+v", resp)
	}
	if !strings.Contains(resp.Response, "Price: $10.00") {
		t.Errorf("unexpected text %q", resp.Response)
	}

	resp = send(t, chat, "s1", "tell me about product 404")
	if resp.Body != nil || !strings.Contains(resp.Response, "404") {
		t.Errorf("expected not-found text, got %+v", resp)
	}
}

func TestChat_ShopHubInfo(t *testing.T) {
	retriever := &fakeRetriever{hits: []domain.RetrievalHit{{
		Document: "Q: What is your return policy? A: 30 days.",
		Metadata: map[string]string{
			domain.MetaKeyType:   domain.DocTypeInfo,
			domain.MetaKeyTopic:  "returns",
			domain.MetaKeyTitle:  "What is your return policy?",
			domain.MetaKeyAnswer: "30 days.",
		},
	}}}
	chat := newTestChat(t, newTestEnv(t), retriever)

	resp := send(t, chat, "s1", "What's your return policy?")

	if resp.Intent != domain.IntentShopHubInfo {
		t.Fatalf("expected shophub_info, got %s", resp.Intent)
	}
	want := domain.RetrievalFilter{Type: domain.DocTypeInfo, Topic: "returns"}
	if len(retriever.filters) != 1 || retriever.filters[0] != want || retriever.ks[0] != 1 {
		t.Errorf("unexpected search filter=%v k=%v", retriever.filters, retriever.ks)
	}
	answer, ok := resp.Body.(domain.InfoAnswer)
	if !ok || answer.Answer != "30 days." {
		t.Errorf("unexpected answer %+v", resp.Body)
	}
	if resp.Response != "What is your return policy?\n30 days." {
		t.Errorf("unexpected text %q", resp.Response)
	}
}

func TestChat_ProductSearch(t *testing.T) {
	retriever := &fakeRetriever{hits: []domain.RetrievalHit{
		{Metadata: map[string]string{domain.MetaKeyType: "product", "title": "Jacket", "price": "55.99", "category": "women's clothing", "product_id": "17"}},
		{Metadata: map[string]string{domain.MetaKeyType: "product", "title": "Coat", "price": "29.95", "category": "men's clothing", "product_id": "3"}},
	}}
	chat := newTestChat(t, newTestEnv(t), retriever)

	resp := send(t, chat, "s1", "I'm looking for a cheap jacket")

	if resp.Intent != domain.IntentProductSearch || resp.Kind() != domain.KindSearchResults {
		t.Fatalf("unexpected reply %s %s", resp.Intent, resp.Kind())
	}
	if retriever.filters[0].Type != domain.DocTypeProduct || retriever.ks[0] != 3 {
		t.Errorf("unexpected search filter=%v k=%v", retriever.filters, retriever.ks)
	}
	if !strings.HasPrefix(resp.Response, "1. Jacket - $55.99\n   Category: women's clothing\n   Product ID: 17") {
		t.Errorf("unexpected listing %q", resp.Response)
	}
}

func TestChat_RetrievalDegrades(t *testing.T) {
	retriever := &fakeRetriever{err: domain.ErrRetrievalUnavailable}
	chat := newTestChat(t, newTestEnv(t), retriever)

	for _, text := range []string{"show me some electronics", "do you offer free shipping"} {
		resp := send(t, chat, "s1", text)
		if resp.Response != rephraseReply || resp.Kind() != domain.KindError {
			t.Errorf("%q: expected rephrase degrade, got %q (%s)", text, resp.Response, resp.Kind())
		}
	}

	// no retriever configured degrades the same way
	resp := send(t, newTestChat(t, newTestEnv(t), nil), "s1", "show me some electronics")
	if resp.Response != rephraseReply {
		t.Errorf("unexpected reply %q", resp.Response)
	}
}

func TestChat_GreetingAndUnknown(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)

	if resp := send(t, chat, "s1", "hello"); resp.Response != greetingReply || resp.Kind() != domain.KindText {
		t.Errorf("unexpected greeting %+v", resp)
	}
	resp := send(t, chat, "s1", "the weather is nice")
	if resp.Intent != domain.IntentUnknown || resp.Action != domain.ActionBrowseProducts {
		t.Errorf("unexpected unknown reply %+v", resp)
	}
}

func TestChat_Validation(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)
	ctx := context.Background()

	if _, err := chat.ProcessMessage(ctx, "", "hello"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("missing session: expected ErrInvalidRequest, got %v", err)
	}
	if _, err := chat.ProcessMessage(ctx, "s1", "   "); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("empty message: expected ErrInvalidRequest, got %v", err)
	}
}

func TestChat_ConversationLog(t *testing.T) {
	env := newTestEnv(t)
	chat := NewChatService(env.carts, env.checkout, env.catalog, ChatServiceOptions{
		Conversations: newTestConversations(t),
	})

	send(t, chat, "s1", "hello")
	send(t, chat, "s1", "checkout")

	hist, err := chat.History(context.Background(), "s1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(hist.Messages))
	}
	if hist.Messages[0].Role != domain.RoleUser || hist.Messages[0].Content != "hello" {
		t.Errorf("unexpected first message %+v", hist.Messages[0])
	}
	if hist.Messages[3].Intent != string(domain.IntentCheckout) {
		t.Errorf("expected assistant row with intent, got %+v", hist.Messages[3])
	}
}

func TestChat_SessionsAreIsolated(t *testing.T) {
	chat := newTestChat(t, newTestEnv(t), nil)

	send(t, chat, "alice", "Add product 5 to cart")
	resp := send(t, chat, "bob", "show cart")
	if !resp.Cart().IsEmpty() {
		t.Errorf("bob sees alice's cart: %+v", resp.Cart())
	}
}
