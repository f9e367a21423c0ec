package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"autobesa/pkg/account"
	"autobesa/pkg/badge"
	"autobesa/pkg/cart"
	"autobesa/pkg/catalog"
	"autobesa/pkg/checkout"
	"autobesa/pkg/money"
	"autobesa/pkg/order"
	"autobesa/pkg/otel"
	"autobesa/pkg/session"
	"autobesa/pkg/storefront"
)

const sessionCookie = "session_id"

type ctxKey struct{}

// loginRequest represents login credentials.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type profileResponse struct {
	Profile string `json:"profile"`
}

// loginHandler binds the browser to a named profile. The first login with a
// name sets its password.
// @Summary Login
// @Description Starts a session for the named profile and sets the session cookie. An unused name is claimed with the given password.
// @Accept json
// @Produce json
// @Param creds body loginRequest true "Credentials"
// @Success 200 {object} profileResponse
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Router /login [post]
func loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "loginHandler")
	defer span.End()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || storefront.ValidateProfile(req.Username) != nil {
		http.Error(w, "invalid credentials", http.StatusBadRequest)
		return
	}
	if _, err := accounts.Authenticate(ctx, req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, account.ErrBadCredentials), errors.Is(err, account.ErrReserved):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
		default:
			log.Error(ctx, "authenticate", "error", err)
			http.Error(w, "login error", http.StatusInternalServerError)
		}
		return
	}
	if err := startSession(ctx, w, req.Username); err != nil {
		log.Error(ctx, "create session", "error", err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: req.Username})
}

func startSession(ctx context.Context, w http.ResponseWriter, profile string) error {
	sid, err := sessions.Create(ctx, profile)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// sessionMiddleware resolves the session cookie to a profile. Visitors
// without a valid session get a fresh guest profile.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var profile string
		if c, err := r.Cookie(sessionCookie); err == nil {
			p, err := sessions.Lookup(ctx, c.Value)
			switch {
			case err == nil:
				profile = p
			case !errors.Is(err, session.ErrNoSession):
				log.Error(ctx, "lookup session", "error", err)
				http.Error(w, "session error", http.StatusInternalServerError)
				return
			}
		}
		if profile == "" {
			profile = account.GuestPrefix + uuid.NewString()
			if err := startSession(ctx, w, profile); err != nil {
				log.Error(ctx, "create guest session", "error", err)
				http.Error(w, "session error", http.StatusInternalServerError)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKey{}, profile)))
	})
}

func current(r *http.Request) *storefront.Session {
	profile, _ := r.Context().Value(ctxKey{}).(string)
	return svc.Open(profile)
}

type cartResponse struct {
	Items  []cart.Item `json:"items"`
	Count  int         `json:"count"`
	Totals cart.Totals `json:"totals"`
}

// writeCart answers with the cart and its totals.
func writeCart(ctx context.Context, w http.ResponseWriter, s *storefront.Session, items []cart.Item) {
	totals, err := cart.ComputeTotals(items, s.Cart.Pricing())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	writeJSON(w, http.StatusOK, cartResponse{Items: items, Count: n, Totals: totals})
}

// getCartHandler returns the cart.
// @Summary Get cart
// @Produce json
// @Success 200 {object} cartResponse
// @Router /cart [get]
func getCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getCartHandler")
	defer span.End()

	s := current(r)
	items, err := s.Cart.Items(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeCart(ctx, w, s, items)
}

// addItemRequest describes a product to add. PriceCents wins over Price,
// which is display text such as "€28,000". Both are ignored when ID names a
// catalog card.
type addItemRequest struct {
	ID         string      `json:"id"`
	Model      string      `json:"model"`
	PriceCents money.Cents `json:"priceCents"`
	Price      string      `json:"price"`
	Image      string      `json:"image"`
	Quantity   int         `json:"quantity"`
}

// addCartItemHandler adds a product to the cart.
// @Summary Add cart item
// @Accept json
// @Produce json
// @Param item body addItemRequest true "Item"
// @Success 200 {object} cartResponse
// @Failure 400 {string} string
// @Router /cart/items [post]
func addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addCartItemHandler")
	defer span.End()

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Model == "" && req.ID == "" {
		http.Error(w, "id or model required", http.StatusBadRequest)
		return
	}

	s := current(r)
	var (
		items []cart.Item
		err   error
	)
	if _, cerr := svc.Catalog().Card(req.ID); cerr == nil {
		items, err = s.AddCard(ctx, req.ID, req.Quantity)
	} else {
		price := req.PriceCents
		if price == 0 && req.Price != "" {
			if price, err = money.Parse(req.Price); err != nil {
				writeError(ctx, w, err)
				return
			}
		}
		items, err = s.Cart.AddItem(ctx, cart.AddRequest{ID: req.ID, Model: req.Model, Price: price, Image: req.Image, Quantity: req.Quantity})
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeCart(ctx, w, s, items)
}

// addDetailHandler adds the car shown on a detail page.
// @Summary Add from detail page
// @Accept html
// @Produce json
// @Success 200 {object} cartResponse
// @Failure 422 {string} string
// @Router /cart/detail [post]
func addDetailHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addDetailHandler")
	defer span.End()

	s := current(r)
	items, err := s.AddFromDetail(ctx, io.LimitReader(r.Body, 4<<20))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeCart(ctx, w, s, items)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// updateCartItemHandler sets a line's quantity.
// @Summary Update quantity
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param body body quantityRequest true "Quantity"
// @Success 200 {object} cartResponse
// @Router /cart/items/{id} [put]
func updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateCartItemHandler")
	defer span.End()

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s := current(r)
	items, err := s.Cart.UpdateQuantity(ctx, mux.Vars(r)["id"], req.Quantity)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeCart(ctx, w, s, items)
}

// removeCartItemHandler drops a line.
// @Summary Remove cart item
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} cartResponse
// @Router /cart/items/{id} [delete]
func removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "removeCartItemHandler")
	defer span.End()

	s := current(r)
	items, err := s.Cart.RemoveItem(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeCart(ctx, w, s, items)
}

// clearCartHandler empties the cart.
// @Summary Clear cart
// @Success 204
// @Router /cart [delete]
func clearCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "clearCartHandler")
	defer span.End()

	if err := current(r).Cart.Clear(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type favoritesResponse struct {
	IDs   []string       `json:"ids"`
	Cards []catalog.Card `json:"cards"`
}

// listFavoritesHandler returns the favorites panel.
// @Summary List favorites
// @Produce json
// @Success 200 {object} favoritesResponse
// @Router /favorites [get]
func listFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listFavoritesHandler")
	defer span.End()

	s := current(r)
	ids, err := s.Favorites.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	cards, err := s.FavoriteCards(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, favoritesResponse{IDs: ids, Cards: cards})
}

type favoriteResponse struct {
	ID        string `json:"id"`
	Favorited bool   `json:"favorited"`
}

// isFavoriteHandler reports whether a card is favorited.
// @Summary Is favorited
// @Produce json
// @Param id path string true "Card ID"
// @Success 200 {object} favoriteResponse
// @Router /favorites/{id} [get]
func isFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "isFavoriteHandler")
	defer span.End()

	id := mux.Vars(r)["id"]
	fav, err := current(r).Favorites.IsFavorited(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{ID: id, Favorited: fav})
}

// toggleFavoriteHandler flips a card's membership.
// @Summary Toggle favorite
// @Produce json
// @Param id path string true "Card ID"
// @Success 200 {object} favoriteResponse
// @Router /favorites/{id}/toggle [post]
func toggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "toggleFavoriteHandler")
	defer span.End()

	id := mux.Vars(r)["id"]
	added, err := current(r).Favorites.Toggle(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{ID: id, Favorited: added})
}

// catalogHandler renders a catalog page under the saved filters.
// @Summary Browse catalog
// @Produce json
// @Param sort query string false "priceAsc, priceDesc, yearDesc or kmAsc"
// @Param page query int false "Page number"
// @Success 200 {object} storefront.Listing
// @Failure 400 {string} string
// @Router /catalog [get]
func catalogHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "catalogHandler")
	defer span.End()

	sort, err := catalog.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	l, err := current(r).Browse(ctx, sort, page)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// applyFiltersHandler saves and applies filter criteria.
// @Summary Apply filters
// @Accept json
// @Produce json
// @Param sort query string false "Sort key"
// @Param criteria body catalog.Criteria true "Criteria"
// @Success 200 {object} storefront.Listing
// @Router /catalog/filters [post]
func applyFiltersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "applyFiltersHandler")
	defer span.End()

	sort, err := catalog.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var c catalog.Criteria
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	l, err := current(r).ApplyFilters(ctx, c, sort)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// resetFiltersHandler clears the saved criteria.
// @Summary Reset filters
// @Produce json
// @Success 200 {object} storefront.Listing
// @Router /catalog/filters [delete]
func resetFiltersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "resetFiltersHandler")
	defer span.End()

	sort, err := catalog.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	l, err := current(r).ResetFilters(ctx, sort)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// addCardHandler adds a catalog card to the cart.
// @Summary Add card to cart
// @Accept json
// @Produce json
// @Param id path string true "Card ID"
// @Param body body quantityRequest false "Quantity"
// @Success 200 {object} cartResponse
// @Failure 404 {string} string
// @Router /catalog/{id}/cart [post]
func addCardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addCardHandler")
	defer span.End()

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s := current(r)
	items, err := s.AddCard(ctx, mux.Vars(r)["id"], req.Quantity)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeCart(ctx, w, s, items)
}

// quickViewHandler previews a card.
// @Summary Quick view
// @Produce json
// @Param id path string true "Card ID"
// @Success 200 {object} storefront.QuickView
// @Failure 404 {string} string
// @Router /catalog/{id}/quickview [get]
func quickViewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "quickViewHandler")
	defer span.End()

	qv, err := current(r).QuickView(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, qv)
}

// checkoutHandler places an order from the cart.
// @Summary Checkout
// @Accept json
// @Produce json
// @Param customer body order.Customer true "Customer"
// @Success 201 {object} checkout.Result
// @Failure 400 {string} string
// @Failure 422 {string} string
// @Router /checkout [post]
func checkoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "checkoutHandler")
	defer span.End()

	var c order.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := current(r).Checkout.Checkout(ctx, c)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// listOrdersHandler lists orders.
// @Summary List orders
// @Produce json
// @Success 200 {array} order.Order
// @Router /orders [get]
func listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	orders, err := current(r).Orders.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {string} string
// @Router /orders/{id} [get]
func getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	o, err := current(r).Orders.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type badgesResponse struct {
	Counts badge.Counts          `json:"counts"`
	Badges map[string]badge.View `json:"badges"`
}

// badgesHandler returns the current badge counts.
// @Summary Badges
// @Produce json
// @Success 200 {object} badgesResponse
// @Router /badges [get]
func badgesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "badgesHandler")
	defer span.End()

	c := current(r).Badges(ctx)
	writeJSON(w, http.StatusOK, badgesResponse{Counts: c, Badges: c.Views()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError
	switch {
	case errors.Is(err, catalog.ErrCardNotFound), errors.Is(err, order.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, catalog.ErrUnknownSort), errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidPrice), errors.Is(err, money.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &verr), errors.Is(err, catalog.ErrDetailsUnavailable), errors.Is(err, money.ErrOverflow):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, order.ErrExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error(ctx, "request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
